package tube

import "math"

const (
	// CurveSize is the number of table points. It is odd so that x = 0
	// falls exactly on the center entry.
	CurveSize = 4097
	// CurveCeiling bounds the magnitude of every table entry.
	CurveCeiling = 1.2

	center = (CurveSize - 1) / 2
)

// Curve is an immutable transfer table over [-1, 1] evaluated by linear
// interpolation. Inputs outside the range are clamped to the end points.
type Curve struct {
	table [CurveSize]float64
	peak  float64
}

// Lookup maps x through the curve. NaN maps to 0.
func (c *Curve) Lookup(x float64) float64 {
	switch {
	case x >= 1:
		return c.table[CurveSize-1]
	case x > -1:
		pos := (x + 1) * center
		i := int(pos)

		if i >= CurveSize-1 {
			return c.table[CurveSize-1]
		}

		frac := pos - float64(i)
		y0 := c.table[i]

		return y0 + frac*(c.table[i+1]-y0)
	case x <= -1:
		return c.table[0]
	default:
		return 0
	}
}

// At returns table entry i.
func (c *Curve) At(i int) float64 {
	return c.table[i]
}

// Peak returns the largest absolute table value.
func (c *Curve) Peak() float64 {
	return c.peak
}

// Equal reports whether two curves hold bit-identical tables.
func (c *Curve) Equal(o *Curve) bool {
	return c.table == o.table
}

// inputAt returns the table abscissa of entry i.
func inputAt(i int) float64 {
	return -1 + 2*float64(i)/float64(CurveSize-1)
}

// tabulate evaluates f across the table and scales the result down
// uniformly when its peak exceeds CurveCeiling.
func tabulate(f func(x float64) float64) *Curve {
	c := &Curve{}

	for i := range CurveSize {
		c.table[i] = f(inputAt(i))
	}

	var peak float64
	for _, v := range c.table {
		peak = math.Max(peak, math.Abs(v))
	}

	if peak > CurveCeiling {
		scale := CurveCeiling / peak
		for i := range c.table {
			c.table[i] *= scale
		}

		peak = CurveCeiling
	}

	c.peak = peak

	return c
}
