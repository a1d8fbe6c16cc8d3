package templates

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulsekit/golc/utils"
)

func TestTemplateEvaluate(t *testing.T) {
	lct := GetGauss1(0.5, 0.5, 0.01)
	v, err := lct.Evaluate([]float64{0.0, 0.5}, DefaultLog10E, false, false)
	assert.NoError(t, err)
	// far from the peak only the background remains
	assert.True(t, near(v[0], 0.5, 1.e-6), "background %g", v[0])
	// at the peak the pulsed term dominates
	assert.True(t, v[1] > 1, "peak value %g", v[1])
	assert.True(t, near(v[1], 0.5+0.5/(0.01*math.Sqrt(TwoPI)), 1.e-6))

	// suppressing the background removes the constant term
	v, err = lct.Evaluate([]float64{0.0}, DefaultLog10E, true, false)
	assert.NoError(t, err)
	assert.True(t, near(v[0], 0, 1.e-6))
}

func TestTemplateNormalization(t *testing.T) {
	for _, lct := range []*LCTemplate{
		GetGauss1(0.6, 0.3, 0.04),
		GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0),
		GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, true, 0),
	} {
		assert.True(t, near(lct.Integrate(0, 1, DefaultLog10E, false), 1, 1.e-9))

		const n = 8001
		phases := utils.Linspace(0, 1, n)
		v, err := lct.Evaluate(phases, DefaultLog10E, false, false)
		assert.NoError(t, err)
		assert.True(t, near(simpson(v, 1./float64(n-1)), 1, 1.e-5))
	}
}

func TestTemplateCDF(t *testing.T) {
	lct := GetGauss2(0.7, 0.2, 0.6, 1.2, 0.03, 0.05, false, 0)
	assert.True(t, near(lct.CDF(0, DefaultLog10E), 0, 1.e-9))
	assert.True(t, near(lct.CDF(1, DefaultLog10E), 1, 1.e-9))
	// monotone in phase
	prev := -1.0
	for _, x := range utils.Linspace(0, 1, 101) {
		c := lct.CDF(x, DefaultLog10E)
		assert.True(t, c >= prev)
		prev = c
	}
}

func TestTemplateParameterRoundTrip(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	phases := utils.Linspace(0, 1, 101)[:100]
	before, err := lct.Evaluate(phases, DefaultLog10E, false, false)
	assert.NoError(t, err)

	p := lct.GetParameters(true)
	ok, err := lct.SetParameters(p, true)
	assert.NoError(t, err)
	assert.True(t, ok)

	after, err := lct.Evaluate(phases, DefaultLog10E, false, false)
	assert.NoError(t, err)
	for i := range before {
		assert.Equal(t, before[i], after[i])
	}

	// length mismatch is an error, parameters untouched
	_, err = lct.SetParameters(p[:len(p)-1], true)
	assert.Error(t, err)
	assert.Equal(t, p, lct.GetParameters(true))
}

func TestTemplateSetParametersAdvisory(t *testing.T) {
	lct := GetGauss1(0.5, 0.5, 0.02)
	p := lct.GetParameters(true)
	p[0] = 0.9 // width above its bound
	ok, err := lct.SetParameters(p, true)
	assert.NoError(t, err)
	assert.False(t, ok)
	// the out-of-bounds value is still applied
	assert.Equal(t, 0.9, lct.Primitives()[0].GetWidth(false))
}

func TestTemplateParameterNames(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	names := lct.GetParameterNames(false)
	assert.Equal(t, lct.NumParameters(false), len(names))
	assert.Equal(t, "P1_Gau_Wid", names[0])
	assert.Equal(t, "P1_Gau_Loc", names[1])
	assert.Equal(t, "P2_Gau_Wid", names[2])
	for _, n := range names[4:] {
		assert.True(t, strings.HasPrefix(n, "Norm_"), n)
	}
}

func TestTemplateSingleComponent(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	phases := utils.Linspace(0, 1, 201)
	full, err := lct.Evaluate(phases, DefaultLog10E, false, false)
	assert.NoError(t, err)
	sum := make([]float64, len(phases))
	for i := 0; i < 2; i++ {
		c, err := lct.SingleComponent(i, phases, DefaultLog10E, false)
		assert.NoError(t, err)
		for j := range sum {
			sum[j] += c[j]
		}
	}
	// the components sum to the pulsed part of the template
	for j := range sum {
		assert.True(t, near(sum[j]+(1-lct.Norm()), full[j], 1.e-9))
	}

	// addBG folds the background in once
	c, err := lct.SingleComponent(0, []float64{0.9}, DefaultLog10E, true)
	assert.NoError(t, err)
	c0, err := lct.SingleComponent(0, []float64{0.9}, DefaultLog10E, false)
	assert.NoError(t, err)
	assert.True(t, near(c[0]-c0[0], 1-lct.Norm(), 1.e-12))
}

func TestTemplateLocationHelpers(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	assert.Equal(t, 0.1, lct.GetLocation())

	mx := lct.Max(1.e-4)
	v, err := lct.Evaluate([]float64{0.1}, DefaultLog10E, false, false)
	assert.NoError(t, err)
	// the stronger component peaks at 0.1
	assert.True(t, mx > 5)
	assert.True(t, near(mx, v[0], 1.e-2*v[0]))

	sep, _ := lct.Delta()
	assert.True(t, near(sep, 0.45, 1.e-9))

	lct.SetOverallPhase(0.3)
	assert.True(t, near(lct.GetLocation(), 0.3, 1.e-9))
	assert.True(t, near(utils.WrapPhase(lct.Primitives()[1].GetLocation()), 0.75, 1.e-9))
}

func TestTemplateAlignPeak(t *testing.T) {
	lct := GetGauss2(0.8, 0.37, 0.82, 1.5, 0.03, 0.05, false, 0)
	lct.AlignPeak()
	assert.True(t, near(lct.GetLocation(), 0, 1.e-12))
	assert.True(t, near(lct.Primitives()[1].GetLocation(), 0.45, 1.e-9))
}

func TestTemplateOrderPrimitives(t *testing.T) {
	var (
		g1 = NewLCGaussian(0.03, 0.7)
		g2 = NewLCGaussian(0.05, 0.2)
	)
	lct, err := NewLCTemplateFromWeights([]Primitive{g1, g2}, []float64{0.3, 0.5})
	assert.NoError(t, err)
	assert.NoError(t, lct.OrderPrimitives(0))
	assert.Equal(t, 0.2, lct.Primitives()[0].GetLocation())
	assert.Equal(t, 0.7, lct.Primitives()[1].GetLocation())
	// the weights follow their primitives
	w := lct.Norms().Weights(DefaultLog10E)
	assert.True(t, near(w[0], 0.5, 1.e-12))
	assert.True(t, near(w[1], 0.3, 1.e-12))
}

func TestTemplateDeletePrimitive(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	total := lct.Norm()

	out, err := lct.DeletePrimitive(0, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Primitives()))
	assert.True(t, near(out.Norm(), total, 1.e-9), "total pulsed fraction preserved: %g vs %g", out.Norm(), total)
	// the source template is untouched
	assert.Equal(t, 2, len(lct.Primitives()))

	// cannot go below one component
	_, err = out.DeletePrimitive(0, false)
	assert.Error(t, err)
}

func TestTemplateAddPrimitive(t *testing.T) {
	lct := GetGauss1(0.5, 0.3, 0.03)
	out, err := lct.AddPrimitive(NewLCGaussian(0.05, 0.7), 0.2, false)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(out.Primitives()))
	// existing weights are rescaled by 1-norm before the append
	assert.True(t, near(out.Norm(), 0.5*0.8+0.2, 1.e-9))
	w := out.Norms().Weights(DefaultLog10E)
	assert.True(t, near(w[len(w)-1], 0.2, 1.e-9))
}

func TestTemplateStrings(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	s := lct.ProfString()
	assert.True(t, strings.Contains(s, "phas1"))
	assert.True(t, strings.Contains(s, "fwhm2"))
	assert.True(t, strings.Contains(s, "ampl1"))
	assert.Equal(t, "G/G", lct.GetCode())
}

func TestTemplateWriteProfile(t *testing.T) {
	var (
		dir   = t.TempDir()
		fname = filepath.Join(dir, "profile.txt")
		lct   = GetGauss1(0.5, 0.5, 0.05)
	)
	for _, integral := range []bool{false, true} {
		assert.NoError(t, lct.WriteProfile(fname, 64, integral, false))
		b, err := os.ReadFile(fname)
		assert.NoError(t, err)
		var (
			lines = strings.Split(strings.TrimSpace(string(b)), "\n")
			sum   float64
		)
		assert.Equal(t, 64, len(lines))
		for _, ln := range lines {
			fields := strings.Fields(ln)
			assert.Equal(t, 2, len(fields))
			v, err := strconv.ParseFloat(fields[1], 64)
			assert.NoError(t, err)
			sum += v
		}
		// exported values are mean normalized
		assert.True(t, near(sum/64, 1, 1.e-4), "integral=%v mean %g", integral, sum/64)
	}
}

func TestTemplateConstructorValidation(t *testing.T) {
	_, err := NewLCTemplate(nil, nil)
	assert.Error(t, err)

	n, err := NewNormAngles([]float64{0.4, 0.3})
	assert.NoError(t, err)
	_, err = NewLCTemplate([]Primitive{NewLCGaussian(0.03, 0.5)}, n)
	assert.Error(t, err)

	_, err = NewNormAngles([]float64{0.8, 0.3})
	assert.Error(t, err)
}
