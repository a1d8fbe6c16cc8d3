package templates

import (
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pulsekit/golc/utils"

	"gonum.org/v1/gonum/mat"
)

// LCGaussian2 is a two-sided (asymmetric) Gaussian pulse shape wrapped
// onto the unit interval: width sigma1 on the leading side of the
// peak, sigma2 on the trailing side, with a continuous amplitude at
// the mode.  Parameters: width1, width2, location.
type LCGaussian2 struct {
	primBase
}

func NewLCGaussian2(width1, width2, location float64) *LCGaussian2 {
	g := &LCGaussian2{
		primBase{
			p:      []float64{width1, width2, location},
			free:   []bool{true, true, true},
			errors: []float64{0, 0, 0},
			bounds: [][2]float64{{0.005, 0.5}, {0.005, 0.5}, {-1, 1}},
			pnames: []string{"Width1", "Width2", "Location"},
		},
	}
	return g
}

func (g *LCGaussian2) Name() string      { return "Gaussian2" }
func (g *LCGaussian2) ShortName() string { return "G2" }

func (g *LCGaussian2) Clone() Primitive {
	r := &LCGaussian2{}
	g.cloneInto(&r.primBase)
	return r
}

func (g *LCGaussian2) GetWidth(hwhm bool) float64 {
	w := 0.5 * (g.p[0] + g.p[1])
	if hwhm {
		return w * Fwhm2Sigma / 2
	}
	return w
}

// side returns the width governing the side of the peak x falls on,
// for x already expressed relative to the location.
func (g *LCGaussian2) side(dx float64) float64 {
	if dx < 0 {
		return g.p[0]
	}
	return g.p[1]
}

func (g *LCGaussian2) amp() float64 {
	return 2 / ((g.p[0] + g.p[1]) * math.Sqrt(2*math.Pi))
}

func (g *LCGaussian2) Evaluate(phases []float64, log10En float64) (r []float64) {
	var (
		x0 = g.p[2]
		a  = g.amp()
	)
	r = make([]float64, len(phases))
	for i, ph := range phases {
		r[i] = wrappedSum(ph, func(x float64) float64 {
			z := (x - x0) / g.side(x-x0)
			return a * math.Exp(-0.5*z*z)
		})
	}
	return
}

func (g *LCGaussian2) Derivative(phases []float64, log10En float64, order int) (r []float64, err error) {
	var (
		x0 = g.p[2]
		a  = g.amp()
	)
	if order != 1 && order != 2 {
		return nil, errUnsupportedOrder(order)
	}
	r = make([]float64, len(phases))
	for i, ph := range phases {
		r[i] = wrappedSumSigned(ph, func(x float64) float64 {
			s := g.side(x - x0)
			z := (x - x0) / s
			f := a * math.Exp(-0.5*z*z)
			if order == 1 {
				return -z / s * f
			}
			return (z*z - 1) / (s * s) * f
		})
	}
	return
}

func (g *LCGaussian2) Gradient(phases []float64, log10En float64, free bool) *mat.Dense {
	var (
		s1, s2, x0 = g.p[0], g.p[1], g.p[2]
		a          = g.amp()
		full       = mat.NewDense(3, len(phases), nil)
	)
	for i, ph := range phases {
		var d1, d2, dx float64
		wrappedSumSigned(ph, func(x float64) float64 {
			s := g.side(x - x0)
			z := (x - x0) / s
			f := a * math.Exp(-0.5*z*z)
			d1 += -f / (s1 + s2)
			d2 += -f / (s1 + s2)
			if x < x0 {
				d1 += f * z * z / s1
			} else {
				d2 += f * z * z / s2
			}
			dx += f * z / s
			return f
		})
		full.Set(0, i, d1)
		full.Set(1, i, d2)
		full.Set(2, i, dx)
	}
	return selectRows(full, g.free, free)
}

// Hessian falls back to central differences of the analytic gradient;
// the junction at the mode makes the closed form unwieldy.
func (g *LCGaussian2) Hessian(phases []float64, log10En float64, free bool) [][][]float64 {
	h := numericPrimHessian(g, phases, log10En, 1.e-6)
	return selectHessian(h, g.free, free)
}

func (g *LCGaussian2) Integrate(a, b, log10En float64) float64 {
	var (
		s1, s2, x0 = g.p[0], g.p[1], g.p[2]
		w1         = s1 / (s1 + s2)
		w2         = s2 / (s1 + s2)
	)
	// cumulative mass below x, per periodic image
	cum := func(x float64) float64 {
		dx := x - x0
		if dx < 0 {
			return 2 * w1 * stdNormCDF(dx/s1)
		}
		return w1 + 2*w2*(stdNormCDF(dx/s2)-0.5)
	}
	return wrappedSum(0, func(k float64) float64 {
		return cum(b+k) - cum(a+k)
	})
}

func (g *LCGaussian2) Random(n int, log10Ens []float64, src rand.Source) (r []float64) {
	var (
		s1, s2, x0 = g.p[0], g.p[1], g.p[2]
		s          = sourceOrGlobal(src)
		norm       = distuv.Normal{Mu: 0, Sigma: 1, Src: s}
		uni        = distuv.Uniform{Min: 0, Max: 1, Src: s}
	)
	r = make([]float64, n)
	for i := range r {
		z := math.Abs(norm.Rand())
		if uni.Rand() < s1/(s1+s2) {
			r[i] = utils.WrapPhase(x0 - z*s1)
		} else {
			r[i] = utils.WrapPhase(x0 + z*s2)
		}
	}
	return
}
