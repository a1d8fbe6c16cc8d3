package templates

import (
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pulsekit/golc/utils"

	"gonum.org/v1/gonum/mat"
)

// LCLorentzian is a wrapped Cauchy (Lorentzian) pulse shape, which has
// the closed form sinh(g) / (cosh(g) - cos(2*pi*(phi-x0))).
// Parameters: gamma (width in radians), location.
type LCLorentzian struct {
	primBase
}

func NewLCLorentzian(gamma, location float64) *LCLorentzian {
	l := &LCLorentzian{
		primBase{
			p:      []float64{gamma, location},
			free:   []bool{true, true},
			errors: []float64{0, 0},
			bounds: [][2]float64{{0.005 * TwoPI, 0.5 * TwoPI}, {-1, 1}},
			pnames: []string{"Gamma", "Location"},
		},
	}
	return l
}

func (l *LCLorentzian) Name() string      { return "Lorentzian" }
func (l *LCLorentzian) ShortName() string { return "L" }

func (l *LCLorentzian) Clone() Primitive {
	r := &LCLorentzian{}
	l.cloneInto(&r.primBase)
	return r
}

// GetWidth reports the phase-domain width, gamma / (2 pi), which is
// also the small-width HWHM of the wrapped Cauchy.
func (l *LCLorentzian) GetWidth(hwhm bool) float64 {
	return l.p[0] / TwoPI
}

func (l *LCLorentzian) Evaluate(phases []float64, log10En float64) (r []float64) {
	var (
		g, x0 = l.p[0], l.p[1]
		sh    = math.Sinh(g)
		ch    = math.Cosh(g)
	)
	r = make([]float64, len(phases))
	for i, ph := range phases {
		r[i] = sh / (ch - math.Cos(TwoPI*(ph-x0)))
	}
	return
}

func (l *LCLorentzian) Derivative(phases []float64, log10En float64, order int) (r []float64, err error) {
	var (
		g, x0 = l.p[0], l.p[1]
		sh    = math.Sinh(g)
		ch    = math.Cosh(g)
	)
	if order != 1 && order != 2 {
		return nil, errUnsupportedOrder(order)
	}
	r = make([]float64, len(phases))
	for i, ph := range phases {
		z := TwoPI * (ph - x0)
		D := ch - math.Cos(z)
		sz := math.Sin(z)
		if order == 1 {
			r[i] = -TwoPI * sh * sz / (D * D)
		} else {
			r[i] = TwoPI * TwoPI * sh * (2*sz*sz/(D*D*D) - math.Cos(z)/(D*D))
		}
	}
	return
}

func (l *LCLorentzian) Gradient(phases []float64, log10En float64, free bool) *mat.Dense {
	var (
		g, x0 = l.p[0], l.p[1]
		sh    = math.Sinh(g)
		ch    = math.Cosh(g)
		full  = mat.NewDense(2, len(phases), nil)
	)
	for i, ph := range phases {
		z := TwoPI * (ph - x0)
		D := ch - math.Cos(z)
		full.Set(0, i, (ch*D-sh*sh)/(D*D))
		full.Set(1, i, TwoPI*sh*math.Sin(z)/(D*D))
	}
	return selectRows(full, l.free, free)
}

func (l *LCLorentzian) Hessian(phases []float64, log10En float64, free bool) [][][]float64 {
	var (
		g, x0 = l.p[0], l.p[1]
		sh    = math.Sinh(g)
		ch    = math.Cosh(g)
		h     = newHessian(2, len(phases))
	)
	for i, ph := range phases {
		z := TwoPI * (ph - x0)
		cz, sz := math.Cos(z), math.Sin(z)
		D := ch - cz
		D3 := D * D * D
		n1 := ch*D - sh*sh
		// d2f/dg2; dD/dg = sinh(g)
		h[0][0][i] = (-sh*cz*D - 2*sh*n1) / D3
		// d2f/dg dx0
		h[0][1][i] = TwoPI * sz * (ch*D - 2*sh*sh) / D3
		h[1][0][i] = h[0][1][i]
		// d2f/dx02 equals the second phase derivative
		h[1][1][i] = TwoPI * TwoPI * sh * (2*sz*sz/D3 - cz/(D*D))
	}
	return selectHessian(h, l.free, free)
}

// Integrate uses the continuous wrapped-Cauchy CDF
// F(z) = (z + 2*atan(rho*sin(z) / (1 - rho*cos(z)))) / (2*pi),
// with rho = exp(-gamma); the arctangent term is bounded for rho < 1,
// so no branch bookkeeping is needed.
func (l *LCLorentzian) Integrate(a, b, log10En float64) float64 {
	var (
		g, x0 = l.p[0], l.p[1]
		rho   = math.Exp(-g)
	)
	F := func(z float64) float64 {
		return (z + 2*math.Atan(rho*math.Sin(z)/(1-rho*math.Cos(z)))) / TwoPI
	}
	return F(TwoPI*(b-x0)) - F(TwoPI*(a-x0))
}

func (l *LCLorentzian) Random(n int, log10Ens []float64, src rand.Source) (r []float64) {
	// a Cauchy variate taken mod the period is wrapped-Cauchy; Student's
	// t with one degree of freedom is the Cauchy with scale gamma
	d := distuv.StudentsT{Mu: 0, Sigma: l.p[0], Nu: 1, Src: sourceOrGlobal(src)}
	r = make([]float64, n)
	for i := range r {
		r[i] = utils.WrapPhase(l.p[1] + d.Rand()/TwoPI)
	}
	return
}
