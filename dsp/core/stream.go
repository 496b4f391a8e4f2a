package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrStream is wrapped by every Stream validation failure.
var ErrStream = errors.New("core: invalid stream")

// Stream describes the audio a processor is built for.
type Stream struct {
	SampleRate float64
	Channels   int
	// MaxBlock is the largest block processed in one pass. Longer calls
	// are split by the caller.
	MaxBlock int
}

// DefaultStream is 48 kHz stereo in blocks of up to 1024 frames.
func DefaultStream() Stream {
	return Stream{SampleRate: 48000, Channels: 2, MaxBlock: 1024}
}

// Validate checks that s is usable with at most maxChannels channels.
func (s Stream) Validate(maxChannels int) error {
	switch {
	case !(s.SampleRate > 0) || math.IsInf(s.SampleRate, 0):
		return fmt.Errorf("%w: sample rate %v", ErrStream, s.SampleRate)
	case s.MaxBlock <= 0:
		return fmt.Errorf("%w: block size %d", ErrStream, s.MaxBlock)
	case s.Channels < 1 || s.Channels > maxChannels:
		return fmt.Errorf("%w: %d channels, want 1..%d", ErrStream, s.Channels, maxChannels)
	}

	return nil
}

func (s Stream) String() string {
	return fmt.Sprintf("%g Hz x %d, %d-frame blocks", s.SampleRate, s.Channels, s.MaxBlock)
}
