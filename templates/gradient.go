package templates

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Gradient returns d(template)/d(param) with one row per free
// parameter (primitive parameters first, then NormMap parameters) and
// one column per phase; nil when nothing is free.  Bridge templates
// are unsupported: the pedestal coupling invalidates the additive form
// the engine relies on.
func (t *LCTemplate) Gradient(phases []float64, log10En float64, free bool) (*mat.Dense, error) {
	if t.HasBridge() {
		return nil, fmt.Errorf("gradient of bridge template: %w", ErrNotImplemented)
	}
	nparam := t.NumParameters(free)
	if nparam == 0 {
		return nil, nil
	}
	var (
		nphase    = len(phases)
		r         = mat.NewDense(nparam, nphase, nil)
		norms     = t.norms.Weights(log10En)
		primTerms = make([][]float64, len(t.primitives))
		c         = 0
	)
	for i, prim := range t.primitives {
		// a fully fixed primitive contributes no rows
		if n := prim.NumParameters(free); n > 0 {
			pg := prim.Gradient(phases, log10En, free)
			for j := 0; j < n; j++ {
				row := r.RawRowView(c + j)
				src := pg.RawRowView(j)
				for k := range row {
					row[k] = norms[i] * src[k]
				}
			}
			c += n
		}
		// d(template)/d(weight_i) is prim_i - 1, since raising a
		// weight also lowers the background
		pv := prim.Evaluate(phases, log10En)
		for k := range pv {
			pv[k] -= 1
		}
		primTerms[i] = pv
	}
	if c == nparam {
		// no NormMap parameters are free
		return r, nil
	}
	// contract d(weight_i)/d(angle_j) against the weight terms
	m := t.norms.Gradient(log10En, free)
	_, nfree := m.Dims()
	for j := 0; j < nfree; j++ {
		row := r.RawRowView(c + j)
		for i := range t.primitives {
			mij := m.At(i, j)
			if mij == 0 {
				continue
			}
			for k := range row {
				row[k] += mij * primTerms[i][k]
			}
		}
	}
	return r, nil
}

// Hessian returns d2(template)/dp_i dp_j as [i][j][phase].  The
// primitives are uncoupled by the additive form, so the Hessian is
// block diagonal in the primitive parameters with cross terms against
// the NormMap parameters, plus a NormMap-NormMap block contracting the
// NormMap's own Hessian over the components.  The full tensor is
// always assembled and then sliced to the free subset; this path is
// not performance critical.
func (t *LCTemplate) Hessian(phases []float64, log10En float64, free bool) ([][][]float64, error) {
	if t.HasBridge() {
		return nil, fmt.Errorf("hessian of bridge template: %w", ErrNotImplemented)
	}
	var (
		freeMask  = t.GetFreeMask()
		nparam    = len(freeMask)
		nphase    = len(phases)
		nnorm     = t.norms.NumParameters(false)
		nprimPar  = nparam - nnorm
		r         = newHessian(nparam, nphase)
		norms     = t.norms.Weights(log10En)
		normGrads = t.norms.Gradient(log10En, false)
		primTerms = make([][]float64, len(t.primitives))
		c         = 0
	)
	for i, prim := range t.primitives {
		var (
			h  = prim.Hessian(phases, log10En, false)
			pg = prim.Gradient(phases, log10En, false)
			n  = prim.NumParameters(false)
		)
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				for ph := 0; ph < nphase; ph++ {
					r[c+j][c+k][ph] = norms[i] * h[j][k][ph]
				}
			}
			// cross terms against every NormMap parameter
			for k := 0; k < nnorm; k++ {
				g := normGrads.At(i, k)
				for ph := 0; ph < nphase; ph++ {
					v := pg.At(j, ph) * g
					r[nprimPar+k][c+j][ph] = v
					r[c+j][nprimPar+k][ph] = v
				}
			}
		}
		pv := prim.Evaluate(phases, log10En)
		for k := range pv {
			pv[k] -= 1
		}
		primTerms[i] = pv
		c += n
	}
	hnorm := t.norms.Hessian(log10En)
	for j := 0; j < nnorm; j++ {
		for k := j; k < nnorm; k++ {
			dst := r[c+j][c+k]
			for i := range t.primitives {
				hijk := hnorm[i][j][k]
				if hijk == 0 {
					continue
				}
				for ph := 0; ph < nphase; ph++ {
					dst[ph] += hijk * primTerms[i][ph]
				}
			}
			if k != j {
				copy(r[c+k][c+j], dst)
			}
		}
	}
	return selectHessian(r, freeMask, free), nil
}
