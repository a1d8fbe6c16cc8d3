package templates

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
)

// DefaultLog10E is the reference energy (log10 of 1 GeV in MeV) used
// when a caller has no energy information.
const DefaultLog10E = 3.

// TwoPI avoids recomputing the phase-to-angle conversion factor.
const TwoPI = 2 * math.Pi

// Fwhm2Sigma converts a Gaussian FWHM to its sigma parameter.
const Fwhm2Sigma = 2.3548200450309493

// Primitive is one shape component of the mixture.  A Primitive owns
// its parameter vector (location last, by convention) along with the
// free mask, per-parameter errors and bounds.  All phase arguments are
// assumed to lie in [0,1); implementations wrap their own shape around
// the unit interval as needed.
type Primitive interface {
	// Evaluate returns the shape value at each phase.
	Evaluate(phases []float64, log10En float64) []float64
	// Derivative returns the order-th derivative with respect to
	// phase.  Orders 1 and 2 are supported.
	Derivative(phases []float64, log10En float64, order int) ([]float64, error)
	// Gradient returns the matrix of d(shape)/d(param), one row per
	// (free) parameter, one column per phase.
	Gradient(phases []float64, log10En float64, free bool) *mat.Dense
	// Hessian returns d2(shape)/dp_i dp_j as [i][j][phase].
	Hessian(phases []float64, log10En float64, free bool) [][][]float64
	// Integrate returns the definite integral of the shape over
	// [a, b] for 0 <= a <= b <= 1.
	Integrate(a, b, log10En float64) float64
	// Random draws n phase variates from the shape.  A nil source
	// uses the global one.
	Random(n int, log10Ens []float64, src rand.Source) []float64

	GetLocation() float64
	GetLocationError() float64
	SetLocation(x float64)
	GetWidth(hwhm bool) float64

	GetParameters(free bool) []float64
	SetParameters(p []float64, free bool) (bool, error)
	GetErrors(free bool) []float64
	SetErrors(errs []float64) int
	GetBounds(free bool) [][2]float64
	GetFreeMask() []bool
	SetFreeMask(free []bool)
	GetParameterNames(free bool) []string
	NumParameters(free bool) int

	IsEnergyDependent() bool
	Name() string
	ShortName() string
	Clone() Primitive
}

// primBase carries the parameter-vector bookkeeping shared by all
// shipped primitives.  p holds the parameters with the location last.
type primBase struct {
	p      []float64
	free   []bool
	errors []float64
	bounds [][2]float64
	pnames []string
}

func (b *primBase) GetParameters(free bool) (r []float64) {
	if !free {
		r = append(r, b.p...)
		return
	}
	for i, f := range b.free {
		if f {
			r = append(r, b.p[i])
		}
	}
	return
}

// SetParameters applies the slice to the (free) parameters.  The
// returned flag reports whether all new values respect their bounds;
// values are applied regardless, matching the advisory contract.
func (b *primBase) SetParameters(p []float64, free bool) (bool, error) {
	n := b.NumParameters(free)
	if len(p) != n {
		return false, fmt.Errorf("parameter vector length %d, expected %d", len(p), n)
	}
	c := 0
	for i := range b.p {
		if free && !b.free[i] {
			continue
		}
		b.p[i] = p[c]
		c++
	}
	return b.boundsOK(), nil
}

func (b *primBase) boundsOK() bool {
	for i, val := range b.p {
		if val < b.bounds[i][0] || val > b.bounds[i][1] {
			return false
		}
	}
	return true
}

// SetErrors consumes len(p) entries from the head of errs and reports
// how many were consumed, so callers can walk a concatenated vector.
func (b *primBase) SetErrors(errs []float64) int {
	copy(b.errors, errs[:len(b.p)])
	return len(b.p)
}

func (b *primBase) GetErrors(free bool) (r []float64) {
	if !free {
		r = append(r, b.errors...)
		return
	}
	for i, f := range b.free {
		if f {
			r = append(r, b.errors[i])
		}
	}
	return
}

func (b *primBase) GetBounds(free bool) (r [][2]float64) {
	for i, bd := range b.bounds {
		if free && !b.free[i] {
			continue
		}
		r = append(r, bd)
	}
	return
}

func (b *primBase) GetFreeMask() (r []bool) {
	r = append(r, b.free...)
	return
}

func (b *primBase) SetFreeMask(free []bool) {
	copy(b.free, free)
}

func (b *primBase) GetParameterNames(free bool) (r []string) {
	for i, name := range b.pnames {
		if free && !b.free[i] {
			continue
		}
		r = append(r, name)
	}
	return
}

func (b *primBase) NumParameters(free bool) (n int) {
	if !free {
		return len(b.p)
	}
	for _, f := range b.free {
		if f {
			n++
		}
	}
	return
}

// location is stored last in the parameter vector for all shipped
// primitives.
func (b *primBase) GetLocation() float64 {
	return b.p[len(b.p)-1]
}

func (b *primBase) GetLocationError() float64 {
	return b.errors[len(b.errors)-1]
}

func (b *primBase) SetLocation(x float64) {
	b.p[len(b.p)-1] = x
}

func (b *primBase) IsEnergyDependent() bool { return false }

func (b *primBase) cloneInto(dst *primBase) {
	dst.p = append([]float64(nil), b.p...)
	dst.free = append([]bool(nil), b.free...)
	dst.errors = append([]float64(nil), b.errors...)
	dst.bounds = append([][2]float64(nil), b.bounds...)
	dst.pnames = append([]string(nil), b.pnames...)
}

// selectRows filters a full gradient matrix down to the free rows.
func selectRows(full *mat.Dense, mask []bool, free bool) *mat.Dense {
	if !free {
		return full
	}
	_, nc := full.Dims()
	var rows []int
	for i, f := range mask {
		if f {
			rows = append(rows, i)
		}
	}
	r := mat.NewDense(len(rows), nc, nil)
	for i, ri := range rows {
		r.SetRow(i, full.RawRowView(ri))
	}
	return r
}

// selectHessian filters a full [np][np][nphase] tensor to free rows
// and columns.
func selectHessian(full [][][]float64, mask []bool, free bool) [][][]float64 {
	if !free {
		return full
	}
	var idx []int
	for i, f := range mask {
		if f {
			idx = append(idx, i)
		}
	}
	r := make([][][]float64, len(idx))
	for i, ii := range idx {
		r[i] = make([][]float64, len(idx))
		for j, jj := range idx {
			r[i][j] = full[ii][jj]
		}
	}
	return r
}

func newHessian(np, nphase int) (h [][][]float64) {
	h = make([][][]float64, np)
	for i := range h {
		h[i] = make([][]float64, np)
		for j := range h[i] {
			h[i][j] = make([]float64, nphase)
		}
	}
	return
}

// sourceOrGlobal seeds a fresh source from the process-wide RNG when
// no source is given.
func sourceOrGlobal(src rand.Source) rand.Source {
	if src == nil {
		return rand.NewSource(rand.Uint64())
	}
	return src
}
