package engine

import (
	"github.com/cwbudde/algo-tube/dsp/effects/tube"
)

// SetStage changes drive and tube of one series stage.
func (e *Engine) SetStage(k tube.StageKind, drive float64, t tube.TubeType) error {
	return e.update("set stage", func(c *Config) error {
		switch k {
		case tube.Pentode:
			c.Pentode = StageConfig{Drive: drive, Tube: t}
		case tube.Triode:
			c.Triode = StageConfig{Drive: drive, Tube: t}
		default:
			return configError("stage", int(k), tube.ErrUnknownName)
		}

		return nil
	})
}

// SetSaturation configures the parallel saturation branch.
func (e *Engine) SetSaturation(enabled bool, amount float64, v tube.Variant, f FrequencyMode) error {
	return e.update("set saturation", func(c *Config) error {
		c.Saturation = SaturationConfig{Enabled: enabled, Amount: amount, Variant: v, Frequency: f}
		return nil
	})
}

// SetDensity sets the pre-stage drive in [0, 100].
func (e *Engine) SetDensity(v float64) error {
	return e.update("set density", func(c *Config) error {
		c.Mix.Density = v
		return nil
	})
}

// SetAir sets the 10 kHz shelf amount in [0, 100].
func (e *Engine) SetAir(v float64) error {
	return e.update("set air", func(c *Config) error {
		c.Mix.Air = v
		return nil
	})
}

// SetMix sets the wet share in [0, 100].
func (e *Engine) SetMix(v float64) error {
	return e.update("set mix", func(c *Config) error {
		c.Mix.Mix = v
		return nil
	})
}

// SetOutputGain sets the output level in [0, 100].
func (e *Engine) SetOutputGain(v float64) error {
	return e.update("set output gain", func(c *Config) error {
		c.Mix.OutputGain = v
		return nil
	})
}

// SetCalibration selects the tonal tilt.
func (e *Engine) SetCalibration(cal Calibration) error {
	return e.update("set calibration", func(c *Config) error {
		c.Mix.Calibration = cal
		return nil
	})
}

// Apply replaces the whole configuration with a single publication.
func (e *Engine) Apply(cfg Config) error {
	return e.update("apply", func(c *Config) error {
		*c = cfg
		return nil
	})
}

// Config returns the published configuration.
func (e *Engine) Config() Config {
	return e.state.Load().Config
}

// Version returns the version of the published State. It increases by one
// with every accepted change.
func (e *Engine) Version() uint64 {
	return e.state.Load().Version
}

// snapshot returns the published State. The audio path may be reading it,
// so it is never written to.
func (e *Engine) snapshot() *State {
	return e.state.Load()
}

// update applies mutate to a copy of the published configuration, derives
// the complete State off the audio path and publishes it with one store.
// Rejected or unchanged configurations publish nothing.
func (e *Engine) update(op string, mutate func(*Config) error) error {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	if l := e.Lifecycle(); !l.acceptsParameters() {
		return &GraphStateError{Op: op, State: l}
	}

	prev := e.state.Load()
	cfg := prev.Config

	if err := mutate(&cfg); err != nil {
		e.logger.Warn("parameter rejected", "op", op, "err", err)
		return err
	}

	if cfg == prev.Config {
		return nil
	}

	st, err := buildState(prev, cfg, prev.Version+1, e.stream.SampleRate)
	if err != nil {
		e.logger.Warn("parameter rejected", "op", op, "err", err)
		return err
	}

	e.state.Store(st)
	e.logger.Debug("state published", "op", op, "version", st.Version)

	return nil
}
