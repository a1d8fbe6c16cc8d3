package templates

import (
	"fmt"
	"log/slog"
)

// NewLCBridgeTemplate builds a bridge template: the last two
// primitives are linked by a pedestal spanning the phase interval
// between their locations, with the scale factors chosen so the three
// pieces meet with matching value at both boundaries.  The NormMap
// carries one extra leading slot holding the pedestal weight.
func NewLCBridgeTemplate(primitives []Primitive, norms NormMap) (*LCTemplate, error) {
	if len(primitives) < 2 {
		return nil, fmt.Errorf("bridge template requires at least two primitives")
	}
	if norms == nil {
		w := make([]float64, len(primitives)+1)
		for i := range w {
			w[i] = 1 / float64(len(primitives)+1)
		}
		var err error
		norms, err = NewNormAngles(w)
		if err != nil {
			return nil, err
		}
	}
	if norms.NumComponents() != len(primitives)+1 {
		return nil, fmt.Errorf("%d primitives require %d normalization components (pedestal first), have %d",
			len(primitives), len(primitives)+1, norms.NumComponents())
	}
	t := &LCTemplate{
		primitives: primitives,
		norms:      norms,
		scale:      bridgeScales{},
		log:        slog.Default(),
	}
	t.cache.init()
	return t, nil
}

type bridgeScales struct{}

// scales solves the bridge geometry.  With boundary values
// f11 = p1(l1), f12 = p1(l2), f21 = p2(l1), f22 = p2(l2), determinant
// d = f11*f22 - f12*f21 and component integrals i1, i2 over the
// (possibly wrapped) interval, the pedestal scale is
//
//	k = nped * (1 - (i1*(f22-f21) + i2*(f11-f12)) / (d*delta))^-1
//
// and the two peaks are rescaled by dn1, dn2 inside the interval so
// the curve is continuous at both boundaries.
func (bridgeScales) scales(t *LCTemplate, phases []float64, log10En float64) (ped []float64, w [][]float64, total float64) {
	var (
		n      = len(t.primitives)
		all    = t.norms.Weights(log10En)
		nped   = all[0]
		norms  = all[1:]
		n1, n2 = norms[n-2], norms[n-1]
		p1, p2 = t.primitives[n-2], t.primitives[n-1]
		l1, l2 = p1.GetLocation(), p2.GetLocation()
	)
	total = sumF64(all)
	delta := l2 - l1
	if l2 < l1 {
		delta += 1
	}
	f11 := evalAt(p1, l1, log10En)
	f12 := evalAt(p1, l2, log10En)
	f21 := evalAt(p2, l1, log10En)
	f22 := evalAt(p2, l2, log10En)
	d := f11*f22 - f12*f21
	var i1, i2 float64
	if l2 > l1 {
		i1 = p1.Integrate(l1, l2, log10En)
		i2 = p2.Integrate(l1, l2, log10En)
	} else {
		i1 = 1 - p1.Integrate(l2, l1, log10En)
		i2 = 1 - p2.Integrate(l2, l1, log10En)
	}
	k := nped / (1 - (i1*(f22-f21)+i2*(f11-f12))/(d*delta))
	dn1 := k / (delta * d) * (f21 - f22)
	dn2 := k / (delta * d) * (f12 - f11)

	// the interval mask is inclusive at both edges
	inMask := func(ph float64) bool {
		if l2 > l1 {
			return ph >= l1 && ph <= l2
		}
		return ph >= l1 || ph <= l2
	}
	ped = make([]float64, len(phases))
	s1 := make([]float64, len(phases))
	s2 := make([]float64, len(phases))
	for i, ph := range phases {
		s1[i], s2[i] = n1, n2
		if inMask(ph) {
			ped[i] = k / delta
			s1[i] += dn1
			s2[i] += dn2
		}
	}
	w = make([][]float64, n)
	for i := 0; i < n-2; i++ {
		w[i] = []float64{norms[i]}
	}
	w[n-2] = s1
	w[n-1] = s2
	return
}
