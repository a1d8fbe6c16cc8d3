package templates

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pulsekit/golc/utils"
)

// ApproxGradient computes the template gradient by central finite
// differences over the free parameters, for validating the analytic
// engine.
func ApproxGradient(t *LCTemplate, phases []float64, log10En, eps float64) (*mat.Dense, error) {
	var (
		p0     = t.GetParameters(true)
		nparam = len(p0)
		r      = mat.NewDense(nparam, len(phases), nil)
	)
	defer t.SetParameters(p0, true)
	for i := 0; i < nparam; i++ {
		work := append([]float64(nil), p0...)
		work[i] = p0[i] + eps
		if _, err := t.SetParameters(work, true); err != nil {
			return nil, err
		}
		hi, err := t.Evaluate(phases, log10En, false, false)
		if err != nil {
			return nil, err
		}
		work[i] = p0[i] - eps
		if _, err := t.SetParameters(work, true); err != nil {
			return nil, err
		}
		lo, err := t.Evaluate(phases, log10En, false, false)
		if err != nil {
			return nil, err
		}
		for k := range hi {
			r.Set(i, k, (hi[k]-lo[k])/(2*eps))
		}
	}
	return r, nil
}

// ApproxDerivative estimates the order-th phase derivative by central
// differences of the next lower order.
func ApproxDerivative(t *LCTemplate, phases []float64, log10En float64, order int, eps float64) ([]float64, error) {
	lower := func(ph []float64) ([]float64, error) {
		if order == 1 {
			return t.Evaluate(ph, log10En, false, false)
		}
		return t.Derivative(ph, log10En, order-1, false)
	}
	hiP := make([]float64, len(phases))
	loP := make([]float64, len(phases))
	for i, ph := range phases {
		hiP[i] = ph + eps
		loP[i] = ph - eps
	}
	// the shifted grids can step outside [0,1) at the interval edges
	hiP = utils.WrapPhases(hiP)
	loP = utils.WrapPhases(loP)
	hi, err := lower(hiP)
	if err != nil {
		return nil, err
	}
	lo, err := lower(loP)
	if err != nil {
		return nil, err
	}
	r := make([]float64, len(phases))
	for i := range r {
		r[i] = (hi[i] - lo[i]) / (2 * eps)
	}
	return r, nil
}

// ApproxHessian computes the Hessian over the free parameters by
// central differences of the analytic gradient.
func ApproxHessian(t *LCTemplate, phases []float64, log10En, eps float64) ([][][]float64, error) {
	var (
		p0     = t.GetParameters(true)
		nparam = len(p0)
		r      = newHessian(nparam, len(phases))
	)
	defer t.SetParameters(p0, true)
	for i := 0; i < nparam; i++ {
		work := append([]float64(nil), p0...)
		work[i] = p0[i] + eps
		if _, err := t.SetParameters(work, true); err != nil {
			return nil, err
		}
		hi, err := t.Gradient(phases, log10En, true)
		if err != nil {
			return nil, err
		}
		work[i] = p0[i] - eps
		if _, err := t.SetParameters(work, true); err != nil {
			return nil, err
		}
		lo, err := t.Gradient(phases, log10En, true)
		if err != nil {
			return nil, err
		}
		for j := 0; j < nparam; j++ {
			for k := range phases {
				r[i][j][k] = (hi.At(j, k) - lo.At(j, k)) / (2 * eps)
			}
		}
	}
	// symmetrize the finite-difference noise away
	for i := 0; i < nparam; i++ {
		for j := i + 1; j < nparam; j++ {
			for k := range phases {
				v := 0.5 * (r[i][j][k] + r[j][i][k])
				r[i][j][k] = v
				r[j][i][k] = v
			}
		}
	}
	return r, nil
}

// CheckGradient compares the analytic gradient against finite
// differences and reports the largest absolute discrepancy and whether
// it passes the combined tolerance |d| <= atol + rtol*|analytic|.
func CheckGradient(t *LCTemplate, phases []float64, log10En, atol, rtol float64) (ok bool, maxDiff float64, err error) {
	g, err := t.Gradient(phases, log10En, true)
	if err != nil {
		return false, 0, err
	}
	a, err := ApproxGradient(t, phases, log10En, 1.e-6)
	if err != nil {
		return false, 0, err
	}
	nr, nc := g.Dims()
	ok = true
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			d := math.Abs(g.At(i, j) - a.At(i, j))
			if d > maxDiff {
				maxDiff = d
			}
			if d > atol+rtol*math.Abs(g.At(i, j)) {
				ok = false
			}
		}
	}
	return
}

// CheckDerivative compares the analytic phase derivative against
// finite differences.
func CheckDerivative(t *LCTemplate, phases []float64, log10En float64, order int, atol, rtol float64) (ok bool, maxDiff float64, err error) {
	d, err := t.Derivative(phases, log10En, order, false)
	if err != nil {
		return false, 0, err
	}
	a, err := ApproxDerivative(t, phases, log10En, order, 1.e-7)
	if err != nil {
		return false, 0, err
	}
	ok = true
	for i := range d {
		ad := math.Abs(d[i] - a[i])
		if ad > maxDiff {
			maxDiff = ad
		}
		if ad > atol+rtol*math.Abs(d[i]) {
			ok = false
		}
	}
	return
}

// numericPrimHessian differences a primitive's analytic gradient over
// its full parameter set.  The primitive's parameters are restored on
// return.
func numericPrimHessian(p Primitive, phases []float64, log10En, eps float64) [][][]float64 {
	var (
		p0 = p.GetParameters(false)
		np = len(p0)
		h  = newHessian(np, len(phases))
	)
	defer p.SetParameters(p0, false)
	for i := 0; i < np; i++ {
		work := append([]float64(nil), p0...)
		work[i] = p0[i] + eps
		p.SetParameters(work, false)
		hi := p.Gradient(phases, log10En, false)
		work[i] = p0[i] - eps
		p.SetParameters(work, false)
		lo := p.Gradient(phases, log10En, false)
		for j := 0; j < np; j++ {
			for k := range phases {
				h[i][j][k] = (hi.At(j, k) - lo.At(j, k)) / (2 * eps)
			}
		}
	}
	for i := 0; i < np; i++ {
		for j := i + 1; j < np; j++ {
			for k := range phases {
				v := 0.5 * (h[i][j][k] + h[j][i][k])
				h[i][j][k] = v
				h[j][i][k] = v
			}
		}
	}
	return h
}
