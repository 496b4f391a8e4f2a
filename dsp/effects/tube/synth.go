package tube

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinDrive and MaxDrive bound the drive control of every curve.
	MinDrive = 0.0
	MaxDrive = 100.0

	pentodeGainSpan    = 4.0  // 1x to 5x
	triodeGainSpan     = 3.0  // 1x to 4x
	saturationGainSpan = 10.0 // 1x to 11x

	triodeBias = 0.05
)

var (
	// ErrInvalidDrive indicates a drive outside [0, 100] or not finite.
	ErrInvalidDrive = errors.New("tube: invalid drive")
	// ErrUnsupportedTube indicates a tube that does not fit the stage.
	ErrUnsupportedTube = errors.New("tube: unsupported tube for stage")
	// ErrUnknownName indicates an unparseable or out-of-range enum value.
	ErrUnknownName = errors.New("tube: unknown name")
)

// pentodeBias is the operating point of each pentode voicing. Shaping
// around a biased point makes the curve asymmetric, which adds even
// harmonics on top of the odd ones.
var pentodeBias = map[TubeType]float64{
	Tube6U8A:  0.15,
	Tube12AX7: 0.20,
	TubeECC83: 0.10,
}

// Build dispatches to BuildPentode or BuildTriode.
func Build(kind StageKind, drive float64, t TubeType) (*Curve, error) {
	switch kind {
	case Pentode:
		return BuildPentode(drive, t)
	case Triode:
		return BuildTriode(drive, t)
	default:
		return nil, fmt.Errorf("%w: stage %d", ErrUnknownName, int(kind))
	}
}

// BuildPentode synthesizes the pentode curve for drive in [0, 100].
func BuildPentode(drive float64, t TubeType) (*Curve, error) {
	if err := validate(Pentode, drive, t); err != nil {
		return nil, err
	}

	var voice func(u float64) float64

	switch t {
	case Tube12AX7:
		voice = func(u float64) float64 { return math.Tanh(u*2.2)*0.9 + u*0.05 }
	case TubeECC83:
		voice = func(u float64) float64 { return signedPow(math.Tanh(u*1.3), 0.9) }
	default:
		voice = func(u float64) float64 { return (math.Tanh(u*1.5) + u*0.1) / 1.1 }
	}

	return tabulate(biased(voice, 1+drive/100*pentodeGainSpan, pentodeBias[t])), nil
}

// BuildTriode synthesizes the triode curve for drive in [0, 100].
func BuildTriode(drive float64, t TubeType) (*Curve, error) {
	if err := validate(Triode, drive, t); err != nil {
		return nil, err
	}

	var voice func(u float64) float64

	switch t {
	case Tube12AT7:
		voice = func(u float64) float64 { return math.Tanh(u*0.8)*0.98 + u*0.02 }
	case TubeECC83:
		voice = func(u float64) float64 { return (math.Tanh(u*1.1) + math.Sin(u*0.5)*0.1) * 0.9 }
	default:
		voice = func(u float64) float64 { return math.Tanh(u) * 0.95 }
	}

	return tabulate(biased(voice, 1+drive/100*triodeGainSpan, triodeBias)), nil
}

// BuildSaturation synthesizes the symmetric saturation branch curve.
func BuildSaturation(drive float64, v Variant) (*Curve, error) {
	if !validDrive(drive) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDrive, drive)
	}

	if !v.Valid() {
		return nil, fmt.Errorf("%w: variant %d", ErrUnknownName, int(v))
	}

	gain := 1 + drive/100*saturationGainSpan

	if v == VariantAggressive {
		return tabulate(func(x float64) float64 {
			return signedPow(math.Tanh(x*gain*2), 0.7)
		}), nil
	}

	return tabulate(func(x float64) float64 {
		d := x * gain
		return math.Tanh(d*1.8) + d*0.05
	}), nil
}

// biased shifts voice to operating point b and removes the resulting
// offset, so the shaped curve still passes through the origin.
func biased(voice func(float64) float64, gain, b float64) func(float64) float64 {
	rest := voice(b)

	return func(x float64) float64 {
		return voice(x*gain+b) - rest
	}
}

func signedPow(v, p float64) float64 {
	if v < 0 {
		return -math.Pow(-v, p)
	}

	return math.Pow(v, p)
}

func validDrive(drive float64) bool {
	return drive >= MinDrive && drive <= MaxDrive && !math.IsNaN(drive)
}

func validate(kind StageKind, drive float64, t TubeType) error {
	if !validDrive(drive) {
		return fmt.Errorf("%w: %v", ErrInvalidDrive, drive)
	}

	if !t.Valid() {
		return fmt.Errorf("%w: tube %d", ErrUnknownName, int(t))
	}

	if !kind.Supports(t) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedTube, t, kind)
	}

	return nil
}
