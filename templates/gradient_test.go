package templates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulsekit/golc/utils"
)

func gradientCases() []*LCTemplate {
	return []*LCTemplate{
		GetGauss1(0.6, 0.3, 0.05),
		GetGauss2(0.8, 0.1, 0.55, 1.5, 0.04, 0.06, false, 0),
		GetGauss2(0.8, 0.1, 0.55, 1.5, 0.04, 0.06, true, 0),
		GetGauss2(0.85, 0.12, 0.61, 1.2, 0.05, 0.07, false, 0.15),
	}
}

func TestTemplateGradient(t *testing.T) {
	phases := utils.Linspace(0.02, 0.98, 25)
	for _, lct := range gradientCases() {
		ok, maxDiff, err := CheckGradient(lct, phases, DefaultLog10E, 1.e-4, 1.e-4)
		assert.NoError(t, err)
		assert.True(t, ok, "%s: max gradient discrepancy %g", lct.GetCode(), maxDiff)
	}
}

func TestTemplateGradientShape(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.04, 0.06, false, 0)
	phases := utils.Linspace(0.1, 0.9, 5)

	g, err := lct.Gradient(phases, DefaultLog10E, true)
	assert.NoError(t, err)
	nr, nc := g.Dims()
	assert.Equal(t, lct.NumParameters(true), nr)
	assert.Equal(t, len(phases), nc)

	// freezing parameters shrinks the free gradient
	lct.Primitives()[0].SetFreeMask([]bool{false, true})
	g, err = lct.Gradient(phases, DefaultLog10E, true)
	assert.NoError(t, err)
	nr, _ = g.Dims()
	assert.Equal(t, lct.NumParameters(true), nr)
}

func TestTemplateGradientFrozenPrimitive(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.04, 0.06, false, 0)
	lct.Primitives()[0].SetFreeMask([]bool{false, false})
	phases := utils.Linspace(0.02, 0.98, 25)

	g, err := lct.Gradient(phases, DefaultLog10E, true)
	assert.NoError(t, err)
	nr, _ := g.Dims()
	assert.Equal(t, lct.NumParameters(true), nr)
	ok, maxDiff, err := CheckGradient(lct, phases, DefaultLog10E, 1.e-4, 1.e-4)
	assert.NoError(t, err)
	assert.True(t, ok, "max discrepancy %g", maxDiff)

	h, err := lct.Hessian(phases, DefaultLog10E, true)
	assert.NoError(t, err)
	assert.Equal(t, lct.NumParameters(true), len(h))

	// nothing free at all yields no gradient rows
	lct.FreezeParameters()
	g, err = lct.Gradient(phases, DefaultLog10E, true)
	assert.NoError(t, err)
	assert.Nil(t, g)
}

func TestTemplateGradientFrozenNorms(t *testing.T) {
	lct := GetGauss1(0.6, 0.3, 0.05)
	mask := lct.Norms().GetFreeMask()
	for i := range mask {
		mask[i] = false
	}
	lct.Norms().SetFreeMask(mask)
	phases := utils.Linspace(0.02, 0.98, 25)
	ok, maxDiff, err := CheckGradient(lct, phases, DefaultLog10E, 1.e-4, 1.e-4)
	assert.NoError(t, err)
	assert.True(t, ok, "max discrepancy %g", maxDiff)
}

func TestTemplateDerivativeNumeric(t *testing.T) {
	phases := utils.Linspace(0.02, 0.98, 25)
	for _, lct := range gradientCases() {
		for order := 1; order <= 2; order++ {
			ok, maxDiff, err := CheckDerivative(lct, phases, DefaultLog10E, order, 1.e-2, 1.e-3)
			assert.NoError(t, err)
			assert.True(t, ok, "%s order %d: max discrepancy %g", lct.GetCode(), order, maxDiff)
		}
	}
}

func TestTemplateHessian(t *testing.T) {
	phases := utils.Linspace(0.05, 0.95, 7)
	for _, lct := range gradientCases() {
		h, err := lct.Hessian(phases, DefaultLog10E, true)
		assert.NoError(t, err)
		a, err := ApproxHessian(lct, phases, DefaultLog10E, 1.e-5)
		assert.NoError(t, err)

		np := lct.NumParameters(true)
		assert.Equal(t, np, len(h))
		for i := 0; i < np; i++ {
			for j := 0; j < np; j++ {
				for k := range phases {
					assert.True(t, near(h[i][j][k], a[i][j][k], 1.e-2+1.e-3*math.Abs(a[i][j][k])),
						"%s hessian[%d][%d] phase %.3f: %g vs %g",
						lct.GetCode(), i, j, phases[k], h[i][j][k], a[i][j][k])
				}
			}
		}

		// symmetry of the analytic blocks
		for i := 0; i < np; i++ {
			for j := 0; j < i; j++ {
				for k := range phases {
					assert.Equal(t, h[i][j][k], h[j][i][k])
				}
			}
		}
	}
}

func TestBridgeGradientUnsupported(t *testing.T) {
	lct := Get2PB(0.9, false)
	phases := []float64{0.2, 0.5}
	_, err := lct.Gradient(phases, DefaultLog10E, true)
	assert.ErrorIs(t, err, ErrNotImplemented)
	_, err = lct.Hessian(phases, DefaultLog10E, true)
	assert.ErrorIs(t, err, ErrNotImplemented)
}
