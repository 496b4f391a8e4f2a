package biquad

// Coefficients describes one second-order section with a0 normalized to 1.
//
// Sections run in Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Identity returns the pass-through response. The engine publishes it for
// filters that are switched out, such as the neutral calibration.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// IsIdentity reports whether c passes its input through unchanged.
func (c Coefficients) IsIdentity() bool {
	return c == Identity()
}

// Section runs a set of coefficients over its own delay line. The engine
// keeps one Section per channel and filter node and re-targets it to the
// coefficients of each published state.
type Section struct {
	Coefficients

	d0, d1 float64
}

// NewSection returns a Section with the given coefficients and a silent
// delay line.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// SetCoefficients re-targets the section. The delay line is left alone so
// that a retune between blocks does not click.
func (s *Section) SetCoefficients(c Coefficients) {
	s.Coefficients = c
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// Process filters src into dst, which must be at least as long as src.
// dst and src may be the same slice.
//
// A section holding the identity response with a drained delay line copies
// src unchanged. After a switch to identity the delay line drains within two
// samples, so the copy path takes over from the following block on.
func (s *Section) Process(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	dst = dst[:len(src)]

	if s.d0 == 0 && s.d1 == 0 && s.IsIdentity() {
		copy(dst, src)
		return
	}

	c := s.Coefficients
	d0, d1 := s.d0, s.d1

	for i, x := range src {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		dst[i] = y
	}

	s.d0, s.d1 = d0, d1
}

// Reset silences the delay line. The engine calls it when a filter node
// changes its design family and when a new source is attached.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// State returns the delay line as [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}
