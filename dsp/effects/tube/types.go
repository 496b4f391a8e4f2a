package tube

import (
	"fmt"
	"strings"
)

// StageKind names one of the two series gain stages.
type StageKind int

const (
	// Pentode is the first, more aggressive stage.
	Pentode StageKind = iota
	// Triode is the second, smoother stage.
	Triode
)

var stageKindNames = [...]string{"pentode", "triode"}

func (k StageKind) String() string {
	if k < 0 || int(k) >= len(stageKindNames) {
		return fmt.Sprintf("StageKind(%d)", int(k))
	}

	return stageKindNames[k]
}

// Valid reports whether k names a known stage.
func (k StageKind) Valid() bool {
	return k == Pentode || k == Triode
}

// Supports reports whether tube t can be fitted to stage k.
func (k StageKind) Supports(t TubeType) bool {
	switch k {
	case Pentode:
		return t == Tube6U8A || t == Tube12AX7 || t == TubeECC83
	case Triode:
		return t == Tube6U8A || t == Tube12AT7 || t == TubeECC83
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k StageKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: stage %d", ErrUnknownName, int(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StageKind) UnmarshalText(b []byte) error {
	v, err := ParseStageKind(string(b))
	if err != nil {
		return err
	}

	*k = v

	return nil
}

// ParseStageKind parses "pentode" or "triode", ignoring case.
func ParseStageKind(s string) (StageKind, error) {
	for i, name := range stageKindNames {
		if strings.EqualFold(s, name) {
			return StageKind(i), nil
		}
	}

	return 0, fmt.Errorf("%w: stage %q", ErrUnknownName, s)
}

// TubeType selects the voicing of a stage curve.
type TubeType int

const (
	Tube6U8A TubeType = iota
	Tube12AX7
	Tube12AT7
	TubeECC83
)

var tubeTypeNames = [...]string{"6U8A", "12AX7", "12AT7", "ECC83"}

func (t TubeType) String() string {
	if t < 0 || int(t) >= len(tubeTypeNames) {
		return fmt.Sprintf("TubeType(%d)", int(t))
	}

	return tubeTypeNames[t]
}

// Valid reports whether t names a known tube.
func (t TubeType) Valid() bool {
	return t >= Tube6U8A && t <= TubeECC83
}

// MarshalText implements encoding.TextMarshaler.
func (t TubeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: tube %d", ErrUnknownName, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TubeType) UnmarshalText(b []byte) error {
	v, err := ParseTubeType(string(b))
	if err != nil {
		return err
	}

	*t = v

	return nil
}

// ParseTubeType parses a tube designation such as "12AX7", ignoring case.
func ParseTubeType(s string) (TubeType, error) {
	for i, name := range tubeTypeNames {
		if strings.EqualFold(s, name) {
			return TubeType(i), nil
		}
	}

	return 0, fmt.Errorf("%w: tube %q", ErrUnknownName, s)
}

// Variant selects the saturation branch voicing.
type Variant int

const (
	// VariantStandard is a smooth tanh overdrive.
	VariantStandard Variant = iota
	// VariantAggressive is a hard power-law clipper.
	VariantAggressive
)

var variantNames = [...]string{"standard", "aggressive"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}

	return variantNames[v]
}

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool {
	return v == VariantStandard || v == VariantAggressive
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: variant %d", ErrUnknownName, int(v))
	}

	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}

	*v = p

	return nil
}

// ParseVariant parses "standard" or "aggressive", ignoring case.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if strings.EqualFold(s, name) {
			return Variant(i), nil
		}
	}

	return 0, fmt.Errorf("%w: variant %q", ErrUnknownName, s)
}
