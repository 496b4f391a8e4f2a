package thd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	defaultSampleRate   = 48000.0
	defaultFFTSize      = 8192
	defaultFundamental  = 1000.0
	defaultAmplitude    = 1.0
	defaultMaxHarmonics = 9
	defaultSettle       = 1024
)

// ErrInvalidConfig indicates an unusable analysis setup.
var ErrInvalidConfig = errors.New("thd: invalid config")

// Config holds the analysis parameters. The fundamental is snapped to the
// nearest FFT bin so that generated test tones are periodic in the frame
// and need no window.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64
	Amplitude       float64
	MaxHarmonics    int
	// Settle is the number of samples discarded before the analysis frame
	// when measuring a processor with memory.
	Settle int
}

// Result holds harmonic measurement results. Ratios are relative to the
// fundamental amplitude.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	DC               float64
	THD              float64
	THD_dB           float64
	OddHD            float64
	EvenHD           float64
	// Noise covers every bin that is neither DC, the fundamental nor one
	// of its harmonics below Nyquist. Aliased harmonics land here.
	Noise     float64
	Noise_dB  float64
	Harmonics []float64 // H2, H3, ...
}

// Calculator measures harmonic content of coherently sampled frames.
type Calculator struct {
	cfg  Config
	bin  int
	plan *algofft.Plan[complex128]
	in   []complex128
	out  []complex128
}

// NewCalculator validates cfg and prepares an FFT plan.
func NewCalculator(cfg Config) (*Calculator, error) {
	cfg = normalizeConfig(cfg)

	if cfg.FFTSize < 16 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("%w: fft size %d is not a power of two >= 16", ErrInvalidConfig, cfg.FFTSize)
	}

	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	bin := int(math.Round(cfg.FundamentalFreq / binHz))
	if bin < 1 || bin >= cfg.FFTSize/2 {
		return nil, fmt.Errorf("%w: fundamental %.1f Hz outside (0, Nyquist)", ErrInvalidConfig, cfg.FundamentalFreq)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("thd: fft plan: %w", err)
	}

	cfg.FundamentalFreq = float64(bin) * binHz

	return &Calculator{
		cfg:  cfg,
		bin:  bin,
		plan: plan,
		in:   make([]complex128, cfg.FFTSize),
		out:  make([]complex128, cfg.FFTSize),
	}, nil
}

// Config returns the normalized configuration with the snapped
// fundamental.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Tone returns n samples of the bin-exact test sine.
func (c *Calculator) Tone(n int) []float64 {
	out := make([]float64, n)

	step := 2 * math.Pi * float64(c.bin) / float64(c.cfg.FFTSize)
	for i := range out {
		out[i] = c.cfg.Amplitude * math.Sin(step*float64(i))
	}

	return out
}

// AnalyzeSignal measures the last FFTSize samples of signal.
func (c *Calculator) AnalyzeSignal(signal []float64) (Result, error) {
	n := c.cfg.FFTSize
	if len(signal) < n {
		return Result{}, fmt.Errorf("%w: need %d samples, got %d", ErrInvalidConfig, n, len(signal))
	}

	frame := signal[len(signal)-n:]
	for i, v := range frame {
		c.in[i] = complex(v, 0)
	}

	if err := c.plan.Forward(c.out, c.in); err != nil {
		return Result{}, fmt.Errorf("thd: fft: %w", err)
	}

	mags := make([]float64, n/2+1)
	for i := range mags {
		x := c.out[i]
		mags[i] = math.Hypot(real(x), imag(x)) * 2 / float64(n)
	}

	mags[0] /= 2

	return c.fromMagnitudes(mags), nil
}

// AnalyzeShaper drives a memoryless shaper with the test tone.
func (c *Calculator) AnalyzeShaper(s interface{ Lookup(float64) float64 }) (Result, error) {
	tone := c.Tone(c.cfg.FFTSize)
	for i, v := range tone {
		tone[i] = s.Lookup(v)
	}

	return c.AnalyzeSignal(tone)
}

// AnalyzeProcessor runs the test tone through process, discards Settle
// samples and measures the rest.
func (c *Calculator) AnalyzeProcessor(process func(dst, src []float64)) (Result, error) {
	src := c.Tone(c.cfg.Settle + c.cfg.FFTSize)
	dst := make([]float64, len(src))
	process(dst, src)

	return c.AnalyzeSignal(dst)
}

func (c *Calculator) fromMagnitudes(mags []float64) Result {
	fundamental := mags[c.bin]

	res := Result{
		FundamentalFreq:  c.cfg.FundamentalFreq,
		FundamentalLevel: fundamental,
		DC:               mags[0],
	}

	if fundamental <= 0 {
		return res
	}

	used := make([]bool, len(mags))
	used[0] = true
	used[c.bin] = true

	var oddSq, evenSq float64

	for k := 2; k <= c.cfg.MaxHarmonics+1; k++ {
		bin := k * c.bin
		if bin >= len(mags) {
			break
		}

		used[bin] = true
		h := mags[bin]
		res.Harmonics = append(res.Harmonics, h/fundamental)

		if k%2 == 0 {
			evenSq += h * h
		} else {
			oddSq += h * h
		}
	}

	var noiseSq float64

	for i, m := range mags {
		if !used[i] {
			noiseSq += m * m
		}
	}

	res.OddHD = math.Sqrt(oddSq) / fundamental
	res.EvenHD = math.Sqrt(evenSq) / fundamental
	res.THD = math.Sqrt(oddSq+evenSq) / fundamental
	res.THD_dB = ratioToDB(res.THD)
	res.Noise = math.Sqrt(noiseSq) / fundamental
	res.Noise_dB = ratioToDB(res.Noise)

	return res
}

func normalizeConfig(cfg Config) Config {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) {
		cfg.SampleRate = defaultSampleRate
	}

	if cfg.FFTSize == 0 {
		cfg.FFTSize = defaultFFTSize
	}

	if cfg.FundamentalFreq <= 0 {
		cfg.FundamentalFreq = defaultFundamental
	}

	if cfg.Amplitude <= 0 {
		cfg.Amplitude = defaultAmplitude
	}

	if cfg.MaxHarmonics <= 0 {
		cfg.MaxHarmonics = defaultMaxHarmonics
	}

	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}

	return cfg
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}
