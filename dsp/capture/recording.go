package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// wavPrecision is the sample width in bytes of exported files.
const wavPrecision = 2

// Recording is a finalized capture with interleaved samples.
type Recording struct {
	SampleRate int
	Channels   int
	Samples    []float64
	// Dropped counts frames lost because the hand-off queue was full.
	Dropped int64
}

// Frames returns the number of captured frames.
func (r *Recording) Frames() int {
	if r.Channels == 0 {
		return 0
	}

	return len(r.Samples) / r.Channels
}

// Duration returns the captured length.
func (r *Recording) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}

	return time.Duration(r.Frames()) * time.Second / time.Duration(r.SampleRate)
}

// Channel returns a copy of channel c.
func (r *Recording) Channel(c int) []float64 {
	out := make([]float64, r.Frames())
	for i := range out {
		out[i] = r.Samples[i*r.Channels+c]
	}

	return out
}

// Format describes the recording for beep consumers.
func (r *Recording) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(r.SampleRate),
		NumChannels: r.Channels,
		Precision:   wavPrecision,
	}
}

// Streamer returns a beep.Streamer positioned at the first frame.
func (r *Recording) Streamer() beep.Streamer {
	return &recordingStreamer{rec: r}
}

// WriteWAV encodes the recording as 16-bit PCM WAV.
func (r *Recording) WriteWAV(w io.WriteSeeker) error {
	if err := wav.Encode(w, r.Streamer(), r.Format()); err != nil {
		return fmt.Errorf("capture: encode wav: %w", err)
	}

	return nil
}

type recordingStreamer struct {
	rec *Recording
	pos int
}

func (s *recordingStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.rec.Frames()
	if s.pos >= frames {
		return 0, false
	}

	ch := s.rec.Channels
	n := min(len(samples), frames-s.pos)

	for i := range n {
		base := (s.pos + i) * ch
		left := s.rec.Samples[base]
		right := left

		if ch > 1 {
			right = s.rec.Samples[base+1]
		}

		samples[i] = [2]float64{left, right}
	}

	s.pos += n

	return n, true
}

func (s *recordingStreamer) Err() error {
	return nil
}
