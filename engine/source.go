package engine

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Format describes a source stream.
type Format struct {
	SampleRate int
	Channels   int
}

// Source feeds the engine while it is running. ReadBlock fills up to
// len(dst[0]) frames of every channel and returns the frame count; it
// returns io.EOF once exhausted. ReadBlock is called from the audio path
// and must not block for longer than one block period.
type Source interface {
	Format() Format
	Open(ctx context.Context) error
	ReadBlock(dst [][]float64) (int, error)
	Close() error
}

var errSourceClosed = errors.New("engine: source not open")

// BufferSource plays planar samples held in memory, optionally looping.
type BufferSource struct {
	format Format
	data   [][]float64
	loop   bool

	mu   sync.Mutex
	pos  int
	open bool
}

// NewBufferSource wraps planar data. The slices are not copied.
func NewBufferSource(sampleRate int, data [][]float64, loop bool) *BufferSource {
	return &BufferSource{
		format: Format{SampleRate: sampleRate, Channels: len(data)},
		data:   data,
		loop:   loop,
	}
}

// Format implements Source.
func (s *BufferSource) Format() Format {
	return s.format
}

// Open implements Source and rewinds to the start.
func (s *BufferSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pos = 0
	s.open = true

	return nil
}

// ReadBlock implements Source.
func (s *BufferSource) ReadBlock(dst [][]float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return 0, errSourceClosed
	}

	total := 0
	if len(s.data) > 0 {
		total = len(s.data[0])
	}

	if len(dst) == 0 || total == 0 {
		return 0, io.EOF
	}

	want := len(dst[0])
	n := 0

	for n < want {
		if s.pos >= total {
			if !s.loop {
				break
			}

			s.pos = 0
		}

		k := min(want-n, total-s.pos)
		for c := range dst {
			copy(dst[c][n:n+k], s.data[min(c, len(s.data)-1)][s.pos:s.pos+k])
		}

		n += k
		s.pos += k
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Close implements Source.
func (s *BufferSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false

	return nil
}
