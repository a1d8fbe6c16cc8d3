package templates

import (
	"fmt"

	"github.com/pulsekit/golc/utils"
)

// The flattened parameter vector concatenates primitive 0's (free)
// parameters, primitive 1's, ..., then the NormMap's.  Every accessor
// below respects that exact ordering.

func (t *LCTemplate) NumParameters(free bool) (n int) {
	for _, prim := range t.primitives {
		n += prim.NumParameters(free)
	}
	return n + t.norms.NumParameters(free)
}

func (t *LCTemplate) GetParameters(free bool) (r []float64) {
	for _, prim := range t.primitives {
		r = append(r, prim.GetParameters(free)...)
	}
	return append(r, t.norms.GetParameters(free)...)
}

// SetParameters distributes the vector across the primitives and the
// NormMap and invalidates the cache.  The boolean reports whether
// every component accepted its slice (bounds respected); a failure
// does not roll back slices already applied.
func (t *LCTemplate) SetParameters(p []float64, free bool) (bool, error) {
	if len(p) != t.NumParameters(free) {
		return false, fmt.Errorf("parameter vector length %d, expected %d",
			len(p), t.NumParameters(free))
	}
	defer t.MarkCacheDirty()
	ok := true
	start := 0
	for _, prim := range t.primitives {
		n := prim.NumParameters(free)
		pok, err := prim.SetParameters(p[start:start+n], free)
		if err != nil {
			return false, err
		}
		ok = pok && ok
		start += n
	}
	nok, err := t.norms.SetParameters(p[start:], free)
	if err != nil {
		return false, err
	}
	return nok && ok, nil
}

// SetErrors distributes a full-length error vector (free and fixed
// entries alike).
func (t *LCTemplate) SetErrors(errs []float64) error {
	if len(errs) != t.NumParameters(false) {
		return fmt.Errorf("error vector length %d, expected %d",
			len(errs), t.NumParameters(false))
	}
	start := 0
	for _, prim := range t.primitives {
		start += prim.SetErrors(errs[start:])
	}
	t.norms.SetErrors(errs[start:])
	return nil
}

func (t *LCTemplate) GetErrors(free bool) (r []float64) {
	for _, prim := range t.primitives {
		r = append(r, prim.GetErrors(free)...)
	}
	return append(r, t.norms.GetErrors(free)...)
}

func (t *LCTemplate) GetBounds(free bool) (r [][2]float64) {
	for _, prim := range t.primitives {
		r = append(r, prim.GetBounds(free)...)
	}
	return append(r, t.norms.GetBounds(free)...)
}

func (t *LCTemplate) GetFreeMask() (r []bool) {
	for _, prim := range t.primitives {
		r = append(r, prim.GetFreeMask()...)
	}
	return append(r, t.norms.GetFreeMask()...)
}

// GetParameterNames yields names like P1_Gau_Wid and Norm_Ang1,
// abbreviating component and parameter names to three characters plus
// any trailing digit.
func (t *LCTemplate) GetParameterNames(free bool) (r []string) {
	for i, prim := range t.primitives {
		for _, pname := range prim.GetParameterNames(free) {
			r = append(r, fmt.Sprintf("P%d_%s_%s", i+1, abbrev(prim.Name()), abbrev(pname)))
		}
	}
	for _, pname := range t.norms.GetParameterNames(free) {
		r = append(r, "Norm_"+pname)
	}
	return
}

func abbrev(s string) string {
	if len(s) <= 3 {
		return s
	}
	r := s[:3]
	if last := s[len(s)-1]; last >= '0' && last <= '9' {
		r += string(last)
	}
	return r
}

func (t *LCTemplate) setAllFree(free bool) {
	for _, prim := range t.primitives {
		mask := prim.GetFreeMask()
		for i := range mask {
			mask[i] = free
		}
		prim.SetFreeMask(mask)
	}
	mask := t.norms.GetFreeMask()
	for i := range mask {
		mask[i] = free
	}
	t.norms.SetFreeMask(mask)
}

// FreeParameters marks every parameter adjustable.
func (t *LCTemplate) FreeParameters() { t.setAllFree(true) }

// FreezeParameters marks every parameter fixed.
func (t *LCTemplate) FreezeParameters() { t.setAllFree(false) }

// GetGaussianPrior assembles a prior over the full parameter vector
// from each primitive's suggested prior settings; NormMap parameters
// get inert (disabled) entries.
func (t *LCTemplate) GetGaussianPrior() *GaussianPrior {
	var (
		locs    []float64
		widths  []float64
		mods    []bool
		enables []bool
	)
	for _, prim := range t.primitives {
		l, w, m, e := primGaussPrior(prim)
		locs = utils.VecConcat(locs, l)
		widths = utils.VecConcat(widths, w)
		mods = append(mods, m...)
		enables = append(enables, e...)
	}
	n := t.norms.NumParameters(false)
	locs = append(locs, utils.ConstArray(n, 0)...)
	widths = append(widths, utils.ConstArray(n, 0)...)
	mods = append(mods, make([]bool, n)...)
	enables = append(enables, make([]bool, n)...)
	return NewGaussianPrior(locs, widths, mods, enables)
}

// primGaussPrior centers a prior on the current parameter values with
// generous widths; only the location parameter is periodic.  Entries
// are disabled until a caller opts in.
func primGaussPrior(p Primitive) (locs, widths []float64, mods, enables []bool) {
	locs = p.GetParameters(false)
	widths = make([]float64, len(locs))
	mods = make([]bool, len(locs))
	enables = make([]bool, len(locs))
	for i := range widths {
		widths[i] = 0.1
	}
	mods[len(mods)-1] = true // location parameter, stored last
	return
}
