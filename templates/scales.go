package templates

// scaleStrategy abstracts how component weights are realized at a set
// of phases.  The standard strategy applies the NormMap weights
// directly; the bridge strategy couples the last two components to a
// pedestal (see bridge.go).
//
// The returned pedestal slice may be nil (no pedestal).  Each weight
// row is either length 1 (constant over phase) or one entry per
// phase.  total is the summed weight of every NormMap slot.
type scaleStrategy interface {
	scales(t *LCTemplate, phases []float64, log10En float64) (ped []float64, w [][]float64, total float64)
}

type standardScales struct{}

func (standardScales) scales(t *LCTemplate, phases []float64, log10En float64) (ped []float64, w [][]float64, total float64) {
	norms := t.norms.Weights(log10En)
	w = make([][]float64, len(norms))
	for i, n := range norms {
		w[i] = []float64{n}
		total += n
	}
	return nil, w, total
}
