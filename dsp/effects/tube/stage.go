package tube

import (
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/oversample"
)

const (
	defaultStageOversampling = oversample.DefaultFactor
	minStageOversampling     = 4
	maxStageOversampling     = 16
)

// StageOption mutates construction-time parameters.
type StageOption func(*stageConfig) error

type stageConfig struct {
	overSampling int
	filter       []oversample.Option
}

// WithStageOversampling sets the oversampling factor in [4, 16].
func WithStageOversampling(factor int) StageOption {
	return func(cfg *stageConfig) error {
		if factor < minStageOversampling || factor > maxStageOversampling {
			return fmt.Errorf("tube stage oversampling must be in [%d, %d]: %d",
				minStageOversampling, maxStageOversampling, factor)
		}

		cfg.overSampling = factor

		return nil
	}
}

// WithStageFilter passes anti-alias filter options, such as
// [oversample.WithKaiserBeta], to the stage oversampler.
func WithStageFilter(opts ...oversample.Option) StageOption {
	return func(cfg *stageConfig) error {
		cfg.filter = append(cfg.filter, opts...)
		return nil
	}
}

// Stage applies a transfer curve at an oversampled rate. It holds one
// channel of interpolation and decimation memory, which survives curve
// swaps. The curve itself is supplied per block so the caller can publish
// new curves without touching the stage.
type Stage struct {
	os *oversample.Oversampler
}

// NewStage creates a stage processor with validated options.
func NewStage(opts ...StageOption) (*Stage, error) {
	cfg := stageConfig{overSampling: defaultStageOversampling}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	ov, err := oversample.New(cfg.overSampling, cfg.filter...)
	if err != nil {
		return nil, fmt.Errorf("tube stage: %w", err)
	}

	return &Stage{os: ov}, nil
}

// ProcessBlock shapes src through c into dst. dst and src may alias.
func (s *Stage) ProcessBlock(dst, src []float64, c *Curve) {
	s.os.ProcessBlock(dst, src, c)
}

// Latency returns the stage delay in samples.
func (s *Stage) Latency() int {
	return s.os.Latency()
}

// Oversampling returns the oversampling factor.
func (s *Stage) Oversampling() int {
	return s.os.Factor()
}

// Reset silences the interpolation and decimation memory.
func (s *Stage) Reset() {
	s.os.Reset()
}
