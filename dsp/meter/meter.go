package meter

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
)

const (
	// WindowSize is the number of frames averaged per reading.
	WindowSize = 2048
	// DefaultInterval is the display refresh cadence.
	DefaultInterval = 50 * time.Millisecond
	// MaxLevel is the full-scale reading.
	MaxLevel = 100.0

	// staleWindows is how many window durations may pass without a new
	// window before the reading falls back to zero.
	staleWindows = 8

	defaultSampleRate = 48000.0
)

// Meter is an RMS level meter with a real-time writer and non-blocking
// readers. The writer accumulates per-frame energy into a window; every
// full window is handed over through a triple buffer. Refresh turns the
// latest window into a level in [0, 100].
type Meter struct {
	tb *tripleBuffer
	n  int

	staleAfter time.Duration
	now        func() time.Time

	readMu    sync.Mutex
	lastFresh time.Time

	level atomic.Uint64
}

// New returns a meter reading 0 for a stream at sampleRate. A non-positive
// rate falls back to 48 kHz.
func New(sampleRate float64) *Meter {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		sampleRate = defaultSampleRate
	}

	window := time.Duration(float64(WindowSize) / sampleRate * float64(time.Second))

	return &Meter{
		tb:         newTripleBuffer(WindowSize),
		staleAfter: staleWindows * window,
		now:        time.Now,
	}
}

// Write feeds one planar block. Multi-channel blocks are metered by their
// mean energy per frame. Write must only be called from one goroutine and
// never blocks or allocates.
func (m *Meter) Write(block [][]float64) {
	if len(block) == 0 {
		return
	}

	frames := len(block[0])
	inv := 1 / float64(len(block))

	for pos := 0; pos < frames; {
		win := m.tb.writeBuffer()
		k := min(frames-pos, WindowSize-m.n)
		seg := win[m.n : m.n+k]

		x := block[0][pos : pos+k]
		vecmath.MulBlock(seg, x, x)

		if len(block) > 1 {
			for _, ch := range block[1:] {
				y := ch[pos : pos+k]
				vecmath.MulAddBlock(seg, y, y, seg)
			}

			vecmath.ScaleBlockInPlace(seg, inv)
		}

		m.n += k
		pos += k

		if m.n == WindowSize {
			m.tb.publish()
			m.n = 0
		}
	}
}

// Refresh recomputes the level from the most recently completed window
// and returns it. Without new windows the previous level is kept until
// eight window durations have passed, then it drops to zero. The refresh
// cadence does not affect how long a reading is held.
func (m *Meter) Refresh() float64 {
	m.readMu.Lock()
	defer m.readMu.Unlock()

	now := m.now()

	win, fresh := m.tb.acquire()
	if !fresh {
		if !m.lastFresh.IsZero() && now.Sub(m.lastFresh) >= m.staleAfter {
			m.level.Store(0)
		}

		return m.Level()
	}

	m.lastFresh = now
	level := levelFromMeanSquare(vecmath.Sum(win) / WindowSize)
	m.level.Store(math.Float64bits(level))

	return level
}

// Level returns the last computed level without blocking.
func (m *Meter) Level() float64 {
	return math.Float64frombits(m.level.Load())
}

func levelFromMeanSquare(ms float64) float64 {
	if !(ms > 0) {
		return 0
	}

	return math.Min(math.Sqrt(ms)*MaxLevel, MaxLevel)
}

// Monitor refreshes meters every interval until ctx is done.
func Monitor(ctx context.Context, interval time.Duration, meters ...*Meter) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range meters {
				m.Refresh()
			}
		}
	}
}
