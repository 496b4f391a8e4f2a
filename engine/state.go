package engine

import (
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/core"
	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/dsp/filter/biquad"
	"github.com/cwbudde/algo-tube/dsp/filter/design"
)

const (
	satLowCorner  = 800.0
	satHighCorner = 2000.0

	calibrationCorner = 3000.0
	calibrationTiltDB = 3.0

	airCorner = 10000.0
	airMaxDB  = 8.0

	densityBase = 0.5
	densitySpan = 1.5
)

// State is one immutable, fully derived parameter snapshot. The audio path
// reads it through a single atomic load per block and never writes it.
type State struct {
	Config  Config
	Version uint64

	Pentode    *tube.Curve
	Triode     *tube.Curve
	Saturation *tube.Curve

	DensityGain float64

	SatEnabled bool
	SatGain    float64
	SatFilter  biquad.Coefficients

	Calibration biquad.Coefficients
	Air         biquad.Coefficients

	// DryGain and WetGain already include the output gain.
	DryGain float64
	WetGain float64
}

// buildState derives a State from cfg. Curves whose inputs did not change
// are shared with prev.
func buildState(prev *State, cfg Config, version uint64, sampleRate float64) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := &State{Config: cfg, Version: version}

	var err error

	if prev != nil && prev.Config.Pentode == cfg.Pentode {
		st.Pentode = prev.Pentode
	} else if st.Pentode, err = tube.BuildPentode(cfg.Pentode.Drive, cfg.Pentode.Tube); err != nil {
		return nil, configError("pentode", cfg.Pentode, err)
	}

	if prev != nil && prev.Config.Triode == cfg.Triode {
		st.Triode = prev.Triode
	} else if st.Triode, err = tube.BuildTriode(cfg.Triode.Drive, cfg.Triode.Tube); err != nil {
		return nil, configError("triode", cfg.Triode, err)
	}

	sat := cfg.Saturation
	if prev != nil && prev.Config.Saturation.Amount == sat.Amount && prev.Config.Saturation.Variant == sat.Variant {
		st.Saturation = prev.Saturation
	} else if st.Saturation, err = tube.BuildSaturation(sat.Amount, sat.Variant); err != nil {
		return nil, configError("saturation", sat, err)
	}

	st.SatEnabled = sat.Enabled
	if sat.Enabled {
		st.SatGain = core.Percent(sat.Amount)
	}

	st.SatFilter = saturationFilter(sat.Frequency, sampleRate)
	st.Calibration = calibrationFilter(cfg.Mix.Calibration, sampleRate)
	st.Air = design.HighShelf(airCorner, airMaxDB*core.Percent(cfg.Mix.Air), sampleRate)

	st.DensityGain = densityBase + densitySpan*core.Percent(cfg.Mix.Density)

	wet := core.Percent(cfg.Mix.Mix)
	out := core.Percent(cfg.Mix.OutputGain)
	st.WetGain = wet * out
	st.DryGain = (1 - wet) * out

	for _, c := range []struct {
		name string
		co   biquad.Coefficients
	}{
		{"saturation filter", st.SatFilter},
		{"calibration", st.Calibration},
		{"air", st.Air},
	} {
		if c.co == (biquad.Coefficients{}) {
			return nil, configError(c.name, sampleRate, fmt.Errorf("no design at %v Hz", sampleRate))
		}
	}

	return st, nil
}

func saturationFilter(mode FrequencyMode, sampleRate float64) biquad.Coefficients {
	switch mode {
	case FrequencyLow:
		return design.Lowpass(satLowCorner, sampleRate)
	case FrequencyHigh:
		return design.Highpass(satHighCorner, sampleRate)
	default:
		return biquad.Identity()
	}
}

func calibrationFilter(c Calibration, sampleRate float64) biquad.Coefficients {
	switch c {
	case CalibrationDark:
		return design.HighShelf(calibrationCorner, -calibrationTiltDB, sampleRate)
	case CalibrationBright:
		return design.HighShelf(calibrationCorner, calibrationTiltDB, sampleRate)
	default:
		return biquad.Identity()
	}
}
