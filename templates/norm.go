package templates

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NormMap maps a vector of unconstrained internal parameters to the
// physical component weights of the mixture.  Implementations must
// guarantee every weight is nonnegative and the weights sum to at most
// one at every energy, so the background term 1 - sum is well defined.
type NormMap interface {
	// Weights returns one weight per component slot.
	Weights(log10En float64) []float64
	// Gradient returns d(weight_i)/d(param_j) with one row per
	// weight and one column per (free) internal parameter.
	Gradient(log10En float64, free bool) *mat.Dense
	// Hessian returns d2(weight_i)/d(param_j)d(param_k) as [i][j][k].
	Hessian(log10En float64) [][][]float64
	// GetTotal returns the summed weight (the pulsed fraction).
	GetTotal() float64
	NumComponents() int

	// AddComponent returns a new map with one more slot holding
	// weight norm; existing weights are scaled by 1-norm.
	AddComponent(norm float64) NormMap
	// DeleteComponent returns a new map without the indexed slot,
	// rescaling the remainder to preserve the total pulsed fraction.
	DeleteComponent(index int) (NormMap, error)
	// ReorderComponents permutes the weight slots in place.
	ReorderComponents(perm []int) error

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
	Clone() NormMap
}

// NormAngles parameterizes n weights with n angles through the
// stick-breaking map
//
//	w_i = sin^2(a_i) * prod_{j<i} cos^2(a_j)
//
// so each weight is nonnegative and the total 1 - prod cos^2(a_j)
// never exceeds one.  The map is invertible for any weight vector
// with sum <= 1.
type NormAngles struct {
	primBase
}

// NewNormAngles builds the angle set reproducing the given weights.
func NewNormAngles(norms []float64) (*NormAngles, error) {
	n := len(norms)
	total := 0.
	for _, w := range norms {
		if w < 0 {
			return nil, fmt.Errorf("negative component weight %g", w)
		}
		total += w
	}
	if total > 1 {
		return nil, fmt.Errorf("component weights sum to %g > 1", total)
	}
	p := make([]float64, n)
	rem := 1.
	for i, w := range norms {
		if rem <= 0 {
			p[i] = 0
			continue
		}
		s := w / rem
		if s > 1 {
			s = 1
		}
		p[i] = math.Asin(math.Sqrt(s))
		rem -= w
	}
	na := &NormAngles{
		primBase{
			p:      p,
			free:   make([]bool, n),
			errors: make([]float64, n),
			bounds: make([][2]float64, n),
			pnames: make([]string, n),
		},
	}
	for i := range na.free {
		na.free[i] = true
		na.bounds[i] = [2]float64{0, math.Pi / 2}
		na.pnames[i] = fmt.Sprintf("Ang%d", i+1)
	}
	return na, nil
}

func (na *NormAngles) Name() string { return "NormAngles" }

func (na *NormAngles) Clone() NormMap {
	r := &NormAngles{}
	na.cloneInto(&r.primBase)
	return r
}

func (na *NormAngles) NumComponents() int { return len(na.p) }

func (na *NormAngles) Weights(log10En float64) (w []float64) {
	w = make([]float64, len(na.p))
	prod := 1.
	for i, a := range na.p {
		s := math.Sin(a)
		w[i] = s * s * prod
		c := math.Cos(a)
		prod *= c * c
	}
	return
}

func (na *NormAngles) GetTotal() (t float64) {
	prod := 1.
	for _, a := range na.p {
		c := math.Cos(a)
		prod *= c * c
	}
	return 1 - prod
}

// factor returns the j-th factor of w_i, or 1 when j does not enter.
func (na *NormAngles) factor(i, j int) float64 {
	switch {
	case j == i:
		s := math.Sin(na.p[j])
		return s * s
	case j < i:
		c := math.Cos(na.p[j])
		return c * c
	}
	return 1
}

// dfactor is the derivative of factor(i, j) with respect to angle j.
func (na *NormAngles) dfactor(i, j int) float64 {
	switch {
	case j == i:
		return math.Sin(2 * na.p[j])
	case j < i:
		return -math.Sin(2 * na.p[j])
	}
	return 0
}

// ddfactor is the second derivative of factor(i, j).
func (na *NormAngles) ddfactor(i, j int) float64 {
	switch {
	case j == i:
		return 2 * math.Cos(2*na.p[j])
	case j < i:
		return -2 * math.Cos(2*na.p[j])
	}
	return 0
}

// prodExcl is the product of the factors of w_i excluding angles e1
// and e2 (pass -1 to exclude nothing).
func (na *NormAngles) prodExcl(i, e1, e2 int) (prod float64) {
	prod = 1
	for j := 0; j <= i; j++ {
		if j == e1 || j == e2 {
			continue
		}
		prod *= na.factor(i, j)
	}
	return
}

func (na *NormAngles) Gradient(log10En float64, free bool) *mat.Dense {
	var (
		n    = len(na.p)
		full = mat.NewDense(n, n, nil)
	)
	for i := 0; i < n; i++ {
		for k := 0; k <= i; k++ {
			full.Set(i, k, na.dfactor(i, k)*na.prodExcl(i, k, -1))
		}
	}
	if !free {
		return full
	}
	var cols []int
	for j, f := range na.free {
		if f {
			cols = append(cols, j)
		}
	}
	r := mat.NewDense(n, len(cols), nil)
	for i := 0; i < n; i++ {
		for j, cj := range cols {
			r.Set(i, j, full.At(i, cj))
		}
	}
	return r
}

func (na *NormAngles) Hessian(log10En float64) [][][]float64 {
	var (
		n = len(na.p)
		h = make([][][]float64, n)
	)
	for i := 0; i < n; i++ {
		h[i] = make([][]float64, n)
		for j := range h[i] {
			h[i][j] = make([]float64, n)
		}
		for j := 0; j <= i; j++ {
			h[i][j][j] = na.ddfactor(i, j) * na.prodExcl(i, j, -1)
			for k := 0; k < j; k++ {
				v := na.dfactor(i, j) * na.dfactor(i, k) * na.prodExcl(i, j, k)
				h[i][j][k] = v
				h[i][k][j] = v
			}
		}
	}
	return h
}

func (na *NormAngles) AddComponent(norm float64) NormMap {
	old := na.Weights(DefaultLog10E)
	w := make([]float64, len(old)+1)
	for i, v := range old {
		w[i] = v * (1 - norm)
	}
	w[len(old)] = norm
	r, err := NewNormAngles(w)
	if err != nil {
		panic(err) // cannot happen: rescaled weights still sum below 1
	}
	r.SetFreeMask(append(na.GetFreeMask(), true))
	return r
}

func (na *NormAngles) DeleteComponent(index int) (NormMap, error) {
	n := len(na.p)
	if index < 0 || index >= n {
		return nil, fmt.Errorf("component index %d out of range [0,%d)", index, n)
	}
	old := na.Weights(DefaultLog10E)
	total := 0.
	for _, v := range old {
		total += v
	}
	rem := total - old[index]
	w := make([]float64, 0, n-1)
	for i, v := range old {
		if i == index {
			continue
		}
		if rem > 0 {
			w = append(w, v*total/rem)
		} else {
			// deleted component carried all the weight
			w = append(w, total/float64(n-1))
		}
	}
	r, err := NewNormAngles(w)
	if err != nil {
		return nil, err
	}
	mask := na.GetFreeMask()
	r.SetFreeMask(append(mask[:index], mask[index+1:]...))
	return r, nil
}

func (na *NormAngles) ReorderComponents(perm []int) error {
	n := len(na.p)
	if len(perm) != n {
		return fmt.Errorf("permutation length %d, expected %d", len(perm), n)
	}
	old := na.Weights(DefaultLog10E)
	mask := na.GetFreeMask()
	w := make([]float64, n)
	f := make([]bool, n)
	for i, pi := range perm {
		if pi < 0 || pi >= n {
			return fmt.Errorf("permutation entry %d out of range", pi)
		}
		w[i] = old[pi]
		f[i] = mask[pi]
	}
	r, err := NewNormAngles(w)
	if err != nil {
		return err
	}
	na.p = r.p
	copy(na.free, f)
	return nil
}
