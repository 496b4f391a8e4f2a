package oversample

import (
	"errors"
	"fmt"
)

const (
	// DefaultFactor is the oversampling factor used when none is given.
	DefaultFactor = 4
	// DefaultTapsPerPhase is P, the number of taps per polyphase branch.
	DefaultTapsPerPhase = 16

	defaultCutoffScale = 0.9
	defaultKaiserBeta  = 6.5
	maxFactor          = 16
)

var (
	// ErrInvalidFactor indicates an oversampling factor outside [2, 16].
	ErrInvalidFactor = errors.New("oversample: invalid factor")
	// ErrInvalidTaps indicates a non-positive taps-per-phase value.
	ErrInvalidTaps = errors.New("oversample: invalid taps per phase")
)

// Shaper is a memoryless nonlinearity evaluated at the oversampled rate.
type Shaper interface {
	Lookup(x float64) float64
}

type config struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

// Option configures an [Oversampler].
type Option func(*config)

// WithTapsPerPhase overrides P. The stage latency equals P samples.
func WithTapsPerPhase(n int) Option {
	return func(cfg *config) {
		cfg.tapsPerPhase = n
	}
}

// WithCutoffScale sets the prototype cutoff relative to the base-rate
// Nyquist frequency. Values outside (0, 1] are ignored.
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithKaiserBeta overrides the Kaiser window beta parameter.
func WithKaiserBeta(beta float64) Option {
	return func(cfg *config) {
		if beta >= 0 {
			cfg.kaiserBeta = beta
		}
	}
}

func defaultConfig() config {
	return config{
		tapsPerPhase: DefaultTapsPerPhase,
		cutoffScale:  defaultCutoffScale,
		kaiserBeta:   defaultKaiserBeta,
	}
}

// Oversampler upsamples, applies a [Shaper] and decimates back, one
// base-rate sample at a time. It owns a single channel of filter memory.
type Oversampler struct {
	factor       int
	tapsPerPhase int

	up      *Interpolator
	down    *Decimator
	scratch []float64
}

// New designs an oversampler for the given factor.
func New(factor int, opts ...Option) (*Oversampler, error) {
	if factor < 2 || factor > maxFactor {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.tapsPerPhase <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTaps, cfg.tapsPerPhase)
	}

	taps, err := prototype(factor, cfg)
	if err != nil {
		return nil, err
	}

	up, err := newInterpolator(taps, factor)
	if err != nil {
		return nil, err
	}

	return &Oversampler{
		factor:       factor,
		tapsPerPhase: cfg.tapsPerPhase,
		up:           up,
		down:         newDecimator(taps, factor),
		scratch:      make([]float64, factor),
	}, nil
}

// Factor returns the oversampling factor L.
func (o *Oversampler) Factor() int {
	return o.factor
}

// Latency returns the round-trip delay in base-rate samples.
func (o *Oversampler) Latency() int {
	return o.tapsPerPhase
}

// ProcessSample runs one base-rate sample through the oversampled shaper.
func (o *Oversampler) ProcessSample(x float64, shape Shaper) float64 {
	o.up.ProcessSample(o.scratch, x)

	for i, v := range o.scratch {
		o.scratch[i] = shape.Lookup(v)
	}

	return o.down.ProcessGroup(o.scratch)
}

// ProcessBlock shapes src into dst. dst and src may alias. The shaper may
// change between calls without disturbing the filter histories.
func (o *Oversampler) ProcessBlock(dst, src []float64, shape Shaper) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]

	for i, x := range src {
		dst[i] = o.ProcessSample(x, shape)
	}
}

// Reset clears both filter histories.
func (o *Oversampler) Reset() {
	o.up.Reset()
	o.down.Reset()
}
