package templates

import (
	"math"
)

// GaussianPrior is a quadratic penalty over a masked subset of a
// flattened parameter vector, for use by external fitters.  Parameters
// flagged periodic are wrapped modulo 1 before comparison with their
// target.
type GaussianPrior struct {
	x0   []float64 // target locations, masked entries only
	s0   []float64 // widths * sqrt(2), masked entries only
	mod  []bool    // periodic flags, masked entries only
	mask []bool    // full-length enable mask
}

// NewGaussianPrior builds a prior from full-length arrays; a nil mask
// enables every entry.
func NewGaussianPrior(locations, widths []float64, mod, mask []bool) *GaussianPrior {
	g := &GaussianPrior{}
	if mask == nil {
		mask = make([]bool, len(locations))
		for i := range mask {
			mask[i] = true
		}
	}
	g.mask = append([]bool(nil), mask...)
	for i := range locations {
		if !mask[i] {
			continue
		}
		x0 := locations[i]
		if mod[i] {
			x0 = math.Mod(x0, 1)
		}
		g.x0 = append(g.x0, x0)
		g.s0 = append(g.s0, widths[i]*math.Sqrt2)
		g.mod = append(g.mod, mod[i])
	}
	return g
}

// Len reports the number of parameters carrying a prior.
func (g *GaussianPrior) Len() int { return len(g.x0) }

// Penalty returns the summed quadratic penalty over the enabled
// entries of the full parameter vector.
func (g *GaussianPrior) Penalty(parameters []float64) (r float64) {
	c := 0
	for i, m := range g.mask {
		if !m {
			continue
		}
		p := parameters[i]
		if g.mod[c] {
			p = math.Mod(p, 1)
		}
		d := (p - g.x0[c]) / g.s0[c]
		r += d * d
		c++
	}
	return
}

// Gradient returns the penalty gradient over the full parameter
// vector, zero on disabled entries.
func (g *GaussianPrior) Gradient(parameters []float64) (r []float64) {
	r = make([]float64, len(parameters))
	c := 0
	for i, m := range g.mask {
		if !m {
			continue
		}
		p := parameters[i]
		if g.mod[c] {
			p = math.Mod(p, 1)
		}
		r[i] = 2 * (p - g.x0[c]) / (g.s0[c] * g.s0[c])
		c++
	}
	return
}
