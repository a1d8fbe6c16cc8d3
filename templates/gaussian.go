package templates

import (
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pulsekit/golc/utils"

	"gonum.org/v1/gonum/mat"
)

const (
	// wrapped shapes accumulate periodic images until a pair of
	// images contributes less than this fraction of the running sum
	wrapTol  = 1.e-12
	maxWraps = 100
)

// LCGaussian is a Gaussian pulse shape wrapped onto the unit phase
// interval.  Parameters: width (sigma), location.
type LCGaussian struct {
	primBase
}

func NewLCGaussian(width, location float64) *LCGaussian {
	g := &LCGaussian{
		primBase{
			p:      []float64{width, location},
			free:   []bool{true, true},
			errors: []float64{0, 0},
			bounds: [][2]float64{{0.005, 0.5}, {-1, 1}},
			pnames: []string{"Width", "Location"},
		},
	}
	return g
}

func (g *LCGaussian) Name() string      { return "Gaussian" }
func (g *LCGaussian) ShortName() string { return "G" }

func (g *LCGaussian) Clone() Primitive {
	r := &LCGaussian{}
	g.cloneInto(&r.primBase)
	return r
}

func (g *LCGaussian) GetWidth(hwhm bool) float64 {
	if hwhm {
		return g.p[0] * Fwhm2Sigma / 2
	}
	return g.p[0]
}

// wrappedSum accumulates f(x + k) over integer wraps k until the
// additions are negligible.  f must decay away from its mode.
func wrappedSum(x float64, f func(float64) float64) (sum float64) {
	sum = f(x)
	for k := 1; k <= maxWraps; k++ {
		t := f(x+float64(k)) + f(x-float64(k))
		sum += t
		if t < wrapTol*math.Abs(sum) {
			break
		}
	}
	return
}

func gaussPDF(z, sigma float64) float64 {
	return math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
}

func (g *LCGaussian) Evaluate(phases []float64, log10En float64) (r []float64) {
	var (
		sigma, x0 = g.p[0], g.p[1]
	)
	r = make([]float64, len(phases))
	for i, ph := range phases {
		r[i] = wrappedSum(ph, func(x float64) float64 {
			return gaussPDF((x-x0)/sigma, sigma)
		})
	}
	return
}

func (g *LCGaussian) Derivative(phases []float64, log10En float64, order int) (r []float64, err error) {
	var (
		sigma, x0 = g.p[0], g.p[1]
	)
	if order != 1 && order != 2 {
		return nil, errUnsupportedOrder(order)
	}
	r = make([]float64, len(phases))
	for i, ph := range phases {
		r[i] = wrappedSumSigned(ph, func(x float64) float64 {
			z := (x - x0) / sigma
			f := gaussPDF(z, sigma)
			if order == 1 {
				return -z / sigma * f
			}
			return (z*z - 1) / (sigma * sigma) * f
		})
	}
	return
}

// wrappedSumSigned is wrappedSum for integrands that change sign; the
// stopping test uses the magnitude of the additions instead of the sum.
func wrappedSumSigned(x float64, f func(float64) float64) (sum float64) {
	sum = f(x)
	scale := math.Abs(sum)
	for k := 1; k <= maxWraps; k++ {
		a, b := f(x+float64(k)), f(x-float64(k))
		sum += a + b
		t := math.Abs(a) + math.Abs(b)
		if t > scale {
			scale = t
		}
		if t < wrapTol*scale {
			break
		}
	}
	return
}

func (g *LCGaussian) Gradient(phases []float64, log10En float64, free bool) *mat.Dense {
	var (
		sigma, x0 = g.p[0], g.p[1]
		full      = mat.NewDense(2, len(phases), nil)
	)
	for i, ph := range phases {
		full.Set(0, i, wrappedSumSigned(ph, func(x float64) float64 {
			z := (x - x0) / sigma
			return gaussPDF(z, sigma) * (z*z - 1) / sigma
		}))
		full.Set(1, i, wrappedSumSigned(ph, func(x float64) float64 {
			z := (x - x0) / sigma
			return gaussPDF(z, sigma) * z / sigma
		}))
	}
	return selectRows(full, g.free, free)
}

func (g *LCGaussian) Hessian(phases []float64, log10En float64, free bool) [][][]float64 {
	var (
		sigma, x0 = g.p[0], g.p[1]
		s2        = sigma * sigma
		h         = newHessian(2, len(phases))
	)
	for i, ph := range phases {
		h[0][0][i] = wrappedSumSigned(ph, func(x float64) float64 {
			z := (x - x0) / sigma
			z2 := z * z
			return gaussPDF(z, sigma) * (z2*z2 - 5*z2 + 2) / s2
		})
		h[0][1][i] = wrappedSumSigned(ph, func(x float64) float64 {
			z := (x - x0) / sigma
			return gaussPDF(z, sigma) * z * (z*z - 3) / s2
		})
		h[1][0][i] = h[0][1][i]
		h[1][1][i] = wrappedSumSigned(ph, func(x float64) float64 {
			z := (x - x0) / sigma
			return gaussPDF(z, sigma) * (z*z - 1) / s2
		})
	}
	return selectHessian(h, g.free, free)
}

func stdNormCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

func (g *LCGaussian) Integrate(a, b, log10En float64) float64 {
	var (
		sigma, x0 = g.p[0], g.p[1]
	)
	return wrappedSum(0, func(k float64) float64 {
		return stdNormCDF((b+k-x0)/sigma) - stdNormCDF((a+k-x0)/sigma)
	})
}

func (g *LCGaussian) Random(n int, log10Ens []float64, src rand.Source) (r []float64) {
	d := distuv.Normal{Mu: g.p[1], Sigma: g.p[0], Src: sourceOrGlobal(src)}
	r = make([]float64, n)
	for i := range r {
		r[i] = utils.WrapPhase(d.Rand())
	}
	return
}
