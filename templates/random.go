package templates

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pulsekit/golc/utils"
)

// Random draws n phase variates from the template distribution along
// with the component index that generated each one (the background
// bucket is index len(primitives)).
//
// Per-photon weights give the probability that a photon originates
// from the source (pulsed plus unpulsed) rather than pure background;
// nil weights are taken as all ones.  Per-photon energies select the
// component weights when the template is energy dependent; nil uses
// the default energy.  A nil source falls back to the process-wide
// RNG; pass a seeded source for reproducibility.
//
// Bridge templates are not supported: the coupled pedestal geometry
// has no closed-form inverse CDF in this design.
func (t *LCTemplate) Random(n int, weights, log10Ens []float64, src rand.Source) (phases []float64, comps []int, err error) {
	if t.HasBridge() {
		return nil, nil, fmt.Errorf("random sampling of bridge template: %w", ErrNotImplemented)
	}
	var (
		nprim = len(t.primitives)
		s     = sourceOrGlobal(src)
		uni   = distuv.Uniform{Min: 0, Max: 1, Src: s}
	)
	if weights == nil {
		weights = utils.ConstArray(n, 1)
	} else if len(weights) != n {
		return nil, nil, fmt.Errorf("weight vector length %d does not match requested n %d", len(weights), n)
	}
	if log10Ens == nil {
		log10Ens = utils.ConstArray(n, DefaultLog10E)
	} else if len(log10Ens) != n {
		return nil, nil, fmt.Errorf("energy vector length %d does not match requested n %d", len(log10Ens), n)
	}

	phases = make([]float64, n)
	comps = make([]int, n)

	// partition each photon among the components and the background
	cpp := make([]float64, nprim+1)
	for j := 0; j < n; j++ {
		var (
			norms = t.norms.Weights(log10Ens[j])
			N     = sumF64(norms)
			nDC   = weights[j] * N
			acc   = 0.
		)
		for i, w := range norms {
			acc += w / N * nDC
			cpp[i] = acc
		}
		cpp[nprim] = acc + (1 - nDC)
		if math.Abs(cpp[nprim]-1) > 1.e-9 {
			panic(fmt.Sprintf("partition probabilities sum to %.12f", cpp[nprim]))
		}
		// scan from the highest component down; on degenerate
		// (zero-width) bands the lowest index wins
		comps[j] = nprim
		q := uni.Rand()
		for i := nprim - 1; i >= 0; i-- {
			if q < cpp[i] {
				comps[j] = i
			}
		}
	}

	// draw phases per component bucket
	for i, prim := range t.primitives {
		var idx []int
		for j, cj := range comps {
			if cj == i {
				idx = append(idx, j)
			}
		}
		if len(idx) == 0 {
			continue
		}
		ens := make([]float64, len(idx))
		for k, j := range idx {
			ens[k] = log10Ens[j]
		}
		draws := prim.Random(len(idx), ens, s)
		for k, j := range idx {
			phases[j] = draws[k]
		}
	}
	for j, cj := range comps {
		if cj == nprim {
			phases[j] = uni.Rand()
		}
	}
	return phases, comps, nil
}
