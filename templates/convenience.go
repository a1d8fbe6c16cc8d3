package templates

// GetGauss1 returns a one-component Gaussian template.
func GetGauss1(pulseFrac, x1, width1 float64) *LCTemplate {
	t, err := NewLCTemplateFromWeights(
		[]Primitive{NewLCGaussian(width1, x1)},
		[]float64{pulseFrac},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// GetGauss2 returns a two-peak template.  ratio is the amplitude
// ratio of the first peak to the second; bridgeFrac diverts that
// fraction of the pulsed flux into a broad component between the
// peaks; lorentzian switches the peak shape.
func GetGauss2(pulseFrac, x1, x2, ratio, width1, width2 float64, lorentzian bool, bridgeFrac float64) *LCTemplate {
	var p1, p2 Primitive
	if lorentzian {
		p1 = NewLCLorentzian(width1*TwoPI, x1)
		p2 = NewLCLorentzian(width2*TwoPI, x2)
	} else {
		p1 = NewLCGaussian(width1, x1)
		p2 = NewLCGaussian(width2, x2)
	}
	n1 := ratio * (1 - bridgeFrac) * pulseFrac / (1 + ratio)
	n2 := (1 - bridgeFrac) * pulseFrac / (1 + ratio)
	if bridgeFrac > 0 {
		b := NewLCGaussian(0.1, (x1+x2)/2)
		t, err := NewLCTemplateFromWeights(
			[]Primitive{p1, b, p2},
			[]float64{n1, bridgeFrac * pulseFrac, n2},
		)
		if err != nil {
			panic(err)
		}
		return t
	}
	t, err := NewLCTemplateFromWeights([]Primitive{p1, p2}, []float64{n1, n2})
	if err != nil {
		panic(err)
	}
	return t
}

// Get2PB returns the canonical two-peak-plus-bridge bridge template.
func Get2PB(pulseFrac float64, lorentzian bool) *LCTemplate {
	var p1, p2 Primitive
	if lorentzian {
		p1 = NewLCLorentzian(0.03*TwoPI, 0.1)
		p2 = NewLCLorentzian(0.03*TwoPI, 0.55)
	} else {
		p1 = NewLCGaussian(0.03, 0.1)
		p2 = NewLCGaussian(0.03, 0.55)
	}
	norms, err := NewNormAngles([]float64{
		0.4 * pulseFrac, // pedestal
		0.3 * pulseFrac,
		0.3 * pulseFrac,
	})
	if err != nil {
		panic(err)
	}
	t, err := NewLCBridgeTemplate([]Primitive{p1, p2}, norms)
	if err != nil {
		panic(err)
	}
	return t
}

// MakeTwosideGaussian returns a two-sided Gaussian with the same
// initial shape as the given one-sided Gaussian.
func MakeTwosideGaussian(g *LCGaussian) *LCGaussian2 {
	return NewLCGaussian2(g.GetWidth(false), g.GetWidth(false), g.GetLocation())
}
