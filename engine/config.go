package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
)

// ErrUnknownName indicates an unparseable enum value.
var ErrUnknownName = errors.New("engine: unknown name")

// FrequencyMode selects the saturation branch filter.
type FrequencyMode int

const (
	// FrequencyFlat leaves the branch unfiltered.
	FrequencyFlat FrequencyMode = iota
	// FrequencyLow keeps the branch below 800 Hz.
	FrequencyLow
	// FrequencyHigh keeps the branch above 2 kHz.
	FrequencyHigh
)

var frequencyModeNames = [...]string{"flat", "low", "high"}

func (m FrequencyMode) String() string {
	if m < 0 || int(m) >= len(frequencyModeNames) {
		return fmt.Sprintf("FrequencyMode(%d)", int(m))
	}

	return frequencyModeNames[m]
}

// Valid reports whether m names a known mode.
func (m FrequencyMode) Valid() bool {
	return m >= FrequencyFlat && m <= FrequencyHigh
}

// MarshalText implements encoding.TextMarshaler.
func (m FrequencyMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: frequency mode %d", ErrUnknownName, int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FrequencyMode) UnmarshalText(b []byte) error {
	v, err := ParseFrequencyMode(string(b))
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// ParseFrequencyMode parses "low", "flat" or "high", ignoring case.
func ParseFrequencyMode(s string) (FrequencyMode, error) {
	return parseName[FrequencyMode](frequencyModeNames[:], "frequency mode", s)
}

// Calibration selects a fixed tonal tilt of the wet signal.
type Calibration int

const (
	// CalibrationNormal is an exact bypass.
	CalibrationNormal Calibration = iota
	// CalibrationDark cuts the top end by 3 dB.
	CalibrationDark
	// CalibrationBright lifts the top end by 3 dB.
	CalibrationBright
)

var calibrationNames = [...]string{"normal", "dark", "bright"}

func (c Calibration) String() string {
	if c < 0 || int(c) >= len(calibrationNames) {
		return fmt.Sprintf("Calibration(%d)", int(c))
	}

	return calibrationNames[c]
}

// Valid reports whether c names a known calibration.
func (c Calibration) Valid() bool {
	return c >= CalibrationNormal && c <= CalibrationBright
}

// MarshalText implements encoding.TextMarshaler.
func (c Calibration) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: calibration %d", ErrUnknownName, int(c))
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Calibration) UnmarshalText(b []byte) error {
	v, err := ParseCalibration(string(b))
	if err != nil {
		return err
	}

	*c = v

	return nil
}

// ParseCalibration parses "dark", "normal" or "bright", ignoring case.
func ParseCalibration(s string) (Calibration, error) {
	return parseName[Calibration](calibrationNames[:], "calibration", s)
}

func parseName[T ~int](names []string, what, s string) (T, error) {
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return T(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %s %q", ErrUnknownName, what, s)
}

// StageConfig configures one series tube stage.
type StageConfig struct {
	Drive float64       `json:"drive"`
	Tube  tube.TubeType `json:"tube"`
}

// SaturationConfig configures the parallel saturation branch.
type SaturationConfig struct {
	Enabled   bool          `json:"enabled"`
	Amount    float64       `json:"amount"`
	Variant   tube.Variant  `json:"variant"`
	Frequency FrequencyMode `json:"frequency"`
}

// MixConfig holds the global controls. All levels are in [0, 100].
type MixConfig struct {
	Density     float64     `json:"density"`
	Air         float64     `json:"air"`
	Mix         float64     `json:"mix"`
	OutputGain  float64     `json:"output"`
	Calibration Calibration `json:"calibration"`
}

// Config is the complete user-facing parameter set.
type Config struct {
	Pentode    StageConfig      `json:"pentode"`
	Triode     StageConfig      `json:"triode"`
	Saturation SaturationConfig `json:"saturation"`
	Mix        MixConfig        `json:"mix"`
}

// DefaultConfig returns the power-on settings.
func DefaultConfig() Config {
	return Config{
		Pentode: StageConfig{Drive: 50, Tube: tube.Tube6U8A},
		Triode:  StageConfig{Drive: 50, Tube: tube.Tube6U8A},
		Saturation: SaturationConfig{
			Variant:   tube.VariantStandard,
			Frequency: FrequencyFlat,
		},
		Mix: MixConfig{
			Density:     50,
			Mix:         100,
			OutputGain:  75,
			Calibration: CalibrationNormal,
		},
	}
}

// Stage returns the configuration of stage k.
func (c Config) Stage(k tube.StageKind) StageConfig {
	if k == tube.Triode {
		return c.Triode
	}

	return c.Pentode
}

// Validate returns a *ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	if err := validateStage(tube.Pentode, c.Pentode); err != nil {
		return err
	}

	if err := validateStage(tube.Triode, c.Triode); err != nil {
		return err
	}

	s := c.Saturation
	if err := validateLevel("saturation.amount", s.Amount); err != nil {
		return err
	}

	if !s.Variant.Valid() {
		return configError("saturation.variant", int(s.Variant), ErrUnknownName)
	}

	if !s.Frequency.Valid() {
		return configError("saturation.frequency", int(s.Frequency), ErrUnknownName)
	}

	m := c.Mix
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"density", m.Density},
		{"air", m.Air},
		{"mix", m.Mix},
		{"output", m.OutputGain},
	} {
		if err := validateLevel(f.name, f.v); err != nil {
			return err
		}
	}

	if !m.Calibration.Valid() {
		return configError("calibration", int(m.Calibration), ErrUnknownName)
	}

	return nil
}

func validateStage(k tube.StageKind, s StageConfig) error {
	if err := validateLevel(k.String()+".drive", s.Drive); err != nil {
		return err
	}

	if !k.Supports(s.Tube) {
		return configError(k.String()+".tube", s.Tube, tube.ErrUnsupportedTube)
	}

	return nil
}

func validateLevel(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return configError(field, v, errors.New("must be in [0, 100]"))
	}

	return nil
}

// DecodeConfig reads a JSON preset. Missing fields keep their defaults;
// unknown fields are rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode preset: %w", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// EncodeConfig writes cfg as an indented JSON preset.
func EncodeConfig(w io.Writer, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("engine: encode preset: %w", err)
	}

	return nil
}
