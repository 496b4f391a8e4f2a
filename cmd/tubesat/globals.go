package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/dsp/oversample"
	"github.com/cwbudde/algo-tube/engine"
)

// Globals holds the flags shared by every command. Parameter flags
// override the preset, which overrides the power-on defaults.
type Globals struct {
	Verbose      bool   `short:"v" help:"Log control-path events."`
	Preset       string `type:"existingfile" help:"JSON preset to start from."`
	Oversampling int    `default:"4" help:"Stage oversampling factor (4 to 16)."`

	AliasBeta   *float64 `group:"Oversampling" help:"Kaiser beta of the anti-alias filter."`
	AliasCutoff *float64 `group:"Oversampling" help:"Anti-alias cutoff as a fraction of Nyquist (0 to 1]."`

	PentodeDrive *float64 `group:"Parameters" help:"Pentode drive (0-100)."`
	PentodeTube  *string  `group:"Parameters" help:"Pentode tube: 6U8A, 12AX7 or ECC83."`
	TriodeDrive  *float64 `group:"Parameters" help:"Triode drive (0-100)."`
	TriodeTube   *string  `group:"Parameters" help:"Triode tube: 6U8A, 12AT7 or ECC83."`
	Saturation   *string  `group:"Parameters" help:"Parallel saturation branch: on or off."`
	SatAmount    *float64 `group:"Parameters" help:"Saturation amount (0-100)."`
	SatVariant   *string  `group:"Parameters" help:"Saturation variant: standard or aggressive."`
	SatFrequency *string  `group:"Parameters" help:"Saturation band: low, flat or high."`
	Density      *float64 `group:"Parameters" help:"Pre-stage density (0-100)."`
	Air          *float64 `group:"Parameters" help:"10 kHz air shelf (0-100)."`
	Mix          *float64 `group:"Parameters" help:"Dry/wet mix (0-100)."`
	Output       *float64 `group:"Parameters" help:"Output gain (0-100)."`
	Calibration  *string  `group:"Parameters" help:"Calibration: normal, dark or bright."`

	ctx    context.Context
	logger *log.Logger
}

func (g *Globals) context() context.Context {
	if g.ctx == nil {
		return context.Background()
	}

	return g.ctx
}

func (g *Globals) log() *log.Logger {
	if g.logger == nil {
		return log.Default()
	}

	return g.logger
}

// config resolves the effective parameters.
func (g *Globals) config() (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if g.Preset != "" {
		f, err := os.Open(g.Preset)
		if err != nil {
			return cfg, fmt.Errorf("open preset: %w", err)
		}
		defer f.Close()

		if cfg, err = engine.DecodeConfig(f); err != nil {
			return cfg, err
		}
	}

	setFloat(&cfg.Pentode.Drive, g.PentodeDrive)
	setFloat(&cfg.Triode.Drive, g.TriodeDrive)
	setFloat(&cfg.Saturation.Amount, g.SatAmount)
	setFloat(&cfg.Mix.Density, g.Density)
	setFloat(&cfg.Mix.Air, g.Air)
	setFloat(&cfg.Mix.Mix, g.Mix)
	setFloat(&cfg.Mix.OutputGain, g.Output)

	if err := setEnum(&cfg.Saturation.Enabled, g.Saturation, parseSwitch); err != nil {
		return cfg, err
	}

	if err := setEnum(&cfg.Pentode.Tube, g.PentodeTube, tube.ParseTubeType); err != nil {
		return cfg, err
	}

	if err := setEnum(&cfg.Triode.Tube, g.TriodeTube, tube.ParseTubeType); err != nil {
		return cfg, err
	}

	if err := setEnum(&cfg.Saturation.Variant, g.SatVariant, tube.ParseVariant); err != nil {
		return cfg, err
	}

	if err := setEnum(&cfg.Saturation.Frequency, g.SatFrequency, engine.ParseFrequencyMode); err != nil {
		return cfg, err
	}

	if err := setEnum(&cfg.Mix.Calibration, g.Calibration, engine.ParseCalibration); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// engineOptions returns the options every command shares.
func (g *Globals) engineOptions(cfg engine.Config, sampleRate float64, channels int) []engine.Option {
	opts := []engine.Option{
		engine.WithSampleRate(sampleRate),
		engine.WithChannels(channels),
		engine.WithOversampling(g.Oversampling),
		engine.WithConfig(cfg),
		engine.WithLogger(g.log()),
	}

	if filter := g.aliasFilter(); len(filter) > 0 {
		opts = append(opts, engine.WithAntiAliasFilter(filter...))
	}

	return opts
}

func (g *Globals) aliasFilter() []oversample.Option {
	var filter []oversample.Option

	if g.AliasBeta != nil {
		filter = append(filter, oversample.WithKaiserBeta(*g.AliasBeta))
	}

	if g.AliasCutoff != nil {
		filter = append(filter, oversample.WithCutoffScale(*g.AliasCutoff))
	}

	return filter
}

func setFloat(dst, flag *float64) {
	if flag != nil {
		*dst = *flag
	}
}

func setEnum[T any](dst *T, flag *string, parse func(string) (T, error)) error {
	if flag == nil {
		return nil
	}

	v, err := parse(*flag)
	if err != nil {
		return err
	}

	*dst = v

	return nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: switch %q", engine.ErrUnknownName, s)
	}
}
