package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	bytesPerSample      = 4
	defaultPlayerFrames = 1024
)

// Puller renders planar output on demand. *engine.Engine implements it.
type Puller interface {
	Pull(dst [][]float64) (int, error)
}

// pullReader adapts a Puller to the interleaved float32 byte stream the
// device expects. Read never fails; once the puller reports io.EOF the
// stream is silent and done is closed.
type pullReader struct {
	src      Puller
	channels int
	planar   [][]float64

	eof  atomic.Bool
	once sync.Once
	done chan struct{}
}

func newPullReader(src Puller, channels, frames int) *pullReader {
	planar := make([][]float64, channels)
	for c := range planar {
		planar[c] = make([]float64, frames)
	}

	return &pullReader{
		src:      src,
		channels: channels,
		planar:   planar,
		done:     make(chan struct{}),
	}
}

func (r *pullReader) Read(p []byte) (int, error) {
	frameBytes := r.channels * bytesPerSample
	frames := len(p) / frameBytes

	for pos := 0; pos < frames; {
		k := min(frames-pos, len(r.planar[0]))
		block := r.planar

		for c := range block {
			block[c] = block[c][:k]
		}

		if r.eof.Load() {
			for _, ch := range block {
				clear(ch)
			}
		} else if _, err := r.src.Pull(block); errors.Is(err, io.EOF) {
			r.finish()
		}

		interleaveFloat32LE(p[pos*frameBytes:], block, k)
		pos += k

		for c := range block {
			block[c] = block[c][:cap(block[c])]
		}
	}

	n := frames * frameBytes
	clear(p[n:])

	return len(p), nil
}

func (r *pullReader) finish() {
	r.eof.Store(true)
	r.once.Do(func() { close(r.done) })
}

// interleaveFloat32LE writes frames of planar samples as little-endian
// float32 words.
func interleaveFloat32LE(dst []byte, src [][]float64, frames int) {
	off := 0

	for i := range frames {
		for _, ch := range src {
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(float32(ch[i])))
			off += bytesPerSample
		}
	}
}

// PlayerOption configures a [Player].
type PlayerOption func(*playerConfig) error

type playerConfig struct {
	frames     int
	bufferSize time.Duration
}

// WithDeviceBuffer sets the device buffer length. Zero selects the
// platform default.
func WithDeviceBuffer(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) error {
		if d < 0 {
			return fmt.Errorf("audio: device buffer must be >= 0: %v", d)
		}

		cfg.bufferSize = d

		return nil
	}
}

// WithPlayerFrames sets how many frames are pulled per engine call.
func WithPlayerFrames(n int) PlayerOption {
	return func(cfg *playerConfig) error {
		if n <= 0 {
			return fmt.Errorf("audio: player frames must be > 0: %d", n)
		}

		cfg.frames = n

		return nil
	}
}

// Player feeds the default output device from a Puller. Only one Player
// may exist per process.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	reader *pullReader

	mu      sync.Mutex
	started bool
}

// NewPlayer opens the output device at the given format.
func NewPlayer(ctx context.Context, src Puller, sampleRate, channels int, opts ...PlayerOption) (*Player, error) {
	cfg := playerConfig{frames: defaultPlayerFrames}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("audio: player channels must be 1 or 2: %d", channels)
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: open device: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	reader := newPullReader(src, channels, cfg.frames)

	return &Player{
		ctx:    otoCtx,
		player: otoCtx.NewPlayer(reader),
		reader: reader,
	}, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.player.Play()
		p.started = true
	}
}

// Done is closed once the source is exhausted.
func (p *Player) Done() <-chan struct{} {
	return p.reader.done
}

// Err returns a device error, if any.
func (p *Player) Err() error {
	return p.ctx.Err()
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = false

	if err := p.player.Close(); err != nil {
		return fmt.Errorf("audio: close player: %w", err)
	}

	return nil
}
