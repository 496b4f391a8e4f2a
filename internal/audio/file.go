// Package audio connects the engine to WAV files and the sound device.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"

	"github.com/cwbudde/algo-tube/engine"
)

const defaultChunkFrames = 1024

// ErrEmptyFile is returned when a looping source has no frames to repeat.
var ErrEmptyFile = errors.New("audio: file has no frames")

// FileOption configures a [FileSource].
type FileOption func(*FileSource) error

// WithLoop restarts the file from the beginning when it ends.
func WithLoop(loop bool) FileOption {
	return func(s *FileSource) error {
		s.loop = loop
		return nil
	}
}

// WithChunkFrames sets the size of the decode buffer. ReadBlock requests
// larger than the buffer are served in several decoder calls.
func WithChunkFrames(n int) FileOption {
	return func(s *FileSource) error {
		if n <= 0 {
			return fmt.Errorf("audio: chunk frames must be > 0: %d", n)
		}

		s.chunk = n

		return nil
	}
}

// FileSource streams a WAV file into the engine. It implements
// engine.Source and may be attached again after Close.
type FileSource struct {
	path  string
	loop  bool
	chunk int

	format beep.Format
	frames int

	mu   sync.Mutex
	file *os.File
	dec  beep.StreamSeekCloser
	buf  [][2]float64
}

var _ engine.Source = (*FileSource)(nil)

// NewFileSource reads the WAV header of path to learn the stream format.
func NewFileSource(path string, opts ...FileOption) (*FileSource, error) {
	s := &FileSource{path: path, chunk: defaultChunkFrames}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if err := s.openLocked(); err != nil {
		return nil, err
	}

	s.frames = s.dec.Len()

	if err := s.closeLocked(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the file name.
func (s *FileSource) Path() string {
	return s.path
}

// Frames returns the file length in frames.
func (s *FileSource) Frames() int {
	return s.frames
}

// Format implements engine.Source.
func (s *FileSource) Format() engine.Format {
	return engine.Format{
		SampleRate: int(s.format.SampleRate),
		Channels:   s.format.NumChannels,
	}
}

// Open implements engine.Source. It rewinds an open file.
func (s *FileSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec != nil {
		return s.rewindLocked()
	}

	return s.openLocked()
}

// ReadBlock implements engine.Source. It deinterleaves up to len(dst[0])
// frames into dst.
func (s *FileSource) ReadBlock(dst [][]float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec == nil {
		return 0, fmt.Errorf("audio: %s is not open", s.path)
	}

	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst[0])
	done := 0

	for done < want {
		k := min(want-done, len(s.buf))

		n, ok := s.dec.Stream(s.buf[:k])
		s.deinterleave(dst, done, n)
		done += n

		if ok && n > 0 {
			continue
		}

		if err := s.dec.Err(); err != nil {
			return done, fmt.Errorf("audio: decode %s: %w", s.path, err)
		}

		if !s.loop {
			return done, io.EOF
		}

		if s.frames == 0 {
			return done, ErrEmptyFile
		}

		if err := s.rewindLocked(); err != nil {
			return done, err
		}
	}

	return done, nil
}

// Close implements engine.Source.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeLocked()
}

func (s *FileSource) deinterleave(dst [][]float64, at, n int) {
	for c, ch := range dst {
		side := min(c, 1)
		for i := range n {
			ch[at+i] = s.buf[i][side]
		}
	}
}

func (s *FileSource) openLocked() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	dec, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("audio: decode %s: %w", s.path, err)
	}

	s.file, s.dec, s.format = f, dec, format

	if len(s.buf) != s.chunk {
		s.buf = make([][2]float64, s.chunk)
	}

	return nil
}

func (s *FileSource) rewindLocked() error {
	if err := s.dec.Seek(0); err != nil {
		return fmt.Errorf("audio: rewind %s: %w", s.path, err)
	}

	return nil
}

func (s *FileSource) closeLocked() error {
	if s.dec == nil {
		return nil
	}

	err := s.dec.Close()

	// The decoder may already have closed the file.
	if ferr := s.file.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) && err == nil {
		err = ferr
	}

	s.dec, s.file = nil, nil

	if err != nil {
		return fmt.Errorf("audio: close %s: %w", s.path, err)
	}

	return nil
}
