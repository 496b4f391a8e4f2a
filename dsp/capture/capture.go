package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultRingFrames    = 1 << 16
	defaultDrainInterval = 10 * time.Millisecond
	maxChannels          = 2
)

var (
	// ErrRecording is the parent of every capture misuse error.
	ErrRecording = errors.New("capture: recording error")
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = fmt.Errorf("%w: already recording", ErrRecording)
	// ErrNotRecording is returned by Stop without an active session.
	ErrNotRecording = fmt.Errorf("%w: not recording", ErrRecording)
)

// Option configures a [Sink].
type Option func(*config) error

type config struct {
	ringFrames    int
	drainInterval time.Duration
	logger        *log.Logger
}

// WithRingFrames sets the capacity of the real-time hand-off queue in
// frames. Frames written while the queue is full are dropped and counted.
func WithRingFrames(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("capture ring frames must be > 0: %d", n)
		}

		cfg.ringFrames = n

		return nil
	}
}

// WithDrainInterval sets how often the drain goroutine empties the queue.
func WithDrainInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return fmt.Errorf("capture drain interval must be > 0: %v", d)
		}

		cfg.drainInterval = d

		return nil
	}
}

// WithLogger sets the logger used for session start, stop and overflow.
func WithLogger(l *log.Logger) Option {
	return func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	}
}

// Sink taps a planar audio bus. At most one [Session] is active at a
// time. Write is safe to call from the audio path: it only copies into a
// preallocated queue and never blocks.
type Sink struct {
	sampleRate int
	channels   int
	cfg        config

	mu     sync.Mutex
	active atomic.Pointer[Session]
	nextID uint64
}

// Session is the handle of an active capture.
type Session struct {
	id      uint64
	started time.Time

	ring    *ring
	dropped atomic.Int64
	writers atomic.Int32
	closed  atomic.Bool

	rec  *Recording
	stop chan struct{}
	done chan struct{}
}

// ID identifies the session within its sink.
func (s *Session) ID() uint64 { return s.id }

// Started returns the wall-clock start time.
func (s *Session) Started() time.Time { return s.started }

// Dropped returns the number of frames lost to queue overflow so far.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// NewSink creates a sink for the given stream format.
func NewSink(sampleRate, channels int, opts ...Option) (*Sink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("capture sample rate must be > 0: %d", sampleRate)
	}

	if channels < 1 || channels > maxChannels {
		return nil, fmt.Errorf("capture channels must be in [1, %d]: %d", maxChannels, channels)
	}

	cfg := config{
		ringFrames:    defaultRingFrames,
		drainInterval: defaultDrainInterval,
		logger:        log.New(io.Discard),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Sink{sampleRate: sampleRate, channels: channels, cfg: cfg}, nil
}

// Active reports whether a session is running.
func (s *Sink) Active() bool {
	return s.active.Load() != nil
}

// Start begins a new session. ctx only bounds the start itself: once
// running, the session keeps draining until Stop, so a cancelled caller
// context never leaves a session that silently drops every frame.
func (s *Sink) Start(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active.Load() != nil {
		return nil, ErrAlreadyRecording
	}

	s.nextID++
	sess := &Session{
		id:      s.nextID,
		started: time.Now(),
		ring:    newRing(s.cfg.ringFrames * s.channels),
		rec:     &Recording{SampleRate: s.sampleRate, Channels: s.channels},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go sess.drain(s.cfg.drainInterval)

	s.active.Store(sess)
	s.cfg.logger.Info("capture started", "session", sess.id, "rate", s.sampleRate, "channels", s.channels)

	return sess, nil
}

// Stop finalizes the active session and returns its recording.
func (s *Sink) Stop() (*Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.active.Load()
	if sess == nil {
		return nil, ErrNotRecording
	}

	s.active.Store(nil)
	sess.closed.Store(true)

	// A writer that saw the session before it was closed finishes its
	// copy within one block.
	for sess.writers.Load() != 0 {
		runtime.Gosched()
	}

	close(sess.stop)
	<-sess.done

	rec := sess.rec
	rec.Samples = sess.ring.drainTo(rec.Samples)
	rec.Dropped = sess.dropped.Load()

	if rec.Dropped > 0 {
		s.cfg.logger.Warn("capture overflow", "session", sess.id, "dropped", rec.Dropped)
	}

	s.cfg.logger.Info("capture stopped", "session", sess.id, "frames", rec.Frames())

	return rec, nil
}

// Write copies one planar block into the active session, if any. A mono
// block feeds every captured channel.
func (s *Sink) Write(block [][]float64) {
	sess := s.active.Load()
	if sess == nil || len(block) == 0 {
		return
	}

	sess.writers.Add(1)

	if sess.closed.Load() {
		sess.writers.Add(-1)
		return
	}

	r := sess.ring
	frames := len(block[0])
	fit := min(frames, r.free()/s.channels)
	last := len(block) - 1
	head := r.head.Load()

	for i := range fit {
		for c := range s.channels {
			r.put(head, block[min(c, last)][i])
			head++
		}
	}

	r.commit(fit * s.channels)

	if fit < frames {
		sess.dropped.Add(int64(frames - fit))
	}

	sess.writers.Add(-1)
}

func (s *Session) drain(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.rec.Samples = s.ring.drainTo(s.rec.Samples)
		}
	}
}
