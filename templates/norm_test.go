package templates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormAnglesRoundTrip(t *testing.T) {
	for _, w := range [][]float64{
		{0.5},
		{0.48, 0.32},
		{0.25, 0.25, 0.25, 0.25},
		{0.9, 0.05, 0.0},
	} {
		na, err := NewNormAngles(w)
		assert.NoError(t, err)
		back := na.Weights(DefaultLog10E)
		total := 0.
		for i := range w {
			assert.True(t, near(back[i], w[i], 1.e-12), "weight %d: %g vs %g", i, back[i], w[i])
			total += w[i]
		}
		assert.True(t, near(na.GetTotal(), total, 1.e-12))
	}
}

func TestNormAnglesValidation(t *testing.T) {
	_, err := NewNormAngles([]float64{0.7, 0.5})
	assert.Error(t, err)
	_, err = NewNormAngles([]float64{-0.1, 0.5})
	assert.Error(t, err)

	// a full stick is representable
	na, err := NewNormAngles([]float64{1.0})
	assert.NoError(t, err)
	assert.True(t, near(na.GetTotal(), 1, 1.e-12))
}

func TestNormAnglesGradient(t *testing.T) {
	const eps = 1.e-7
	na, err := NewNormAngles([]float64{0.4, 0.3, 0.2})
	assert.NoError(t, err)
	var (
		n  = na.NumComponents()
		g  = na.Gradient(DefaultLog10E, false)
		p0 = na.GetParameters(false)
	)
	for j := 0; j < n; j++ {
		work := append([]float64(nil), p0...)
		work[j] = p0[j] + eps
		na.SetParameters(work, false)
		hi := na.Weights(DefaultLog10E)
		work[j] = p0[j] - eps
		na.SetParameters(work, false)
		lo := na.Weights(DefaultLog10E)
		na.SetParameters(p0, false)
		for i := 0; i < n; i++ {
			fd := (hi[i] - lo[i]) / (2 * eps)
			assert.True(t, near(g.At(i, j), fd, 1.e-6),
				"dw%d/da%d: %g vs %g", i, j, g.At(i, j), fd)
		}
	}
}

func TestNormAnglesHessian(t *testing.T) {
	const eps = 1.e-6
	na, err := NewNormAngles([]float64{0.4, 0.3, 0.2})
	assert.NoError(t, err)
	var (
		n  = na.NumComponents()
		h  = na.Hessian(DefaultLog10E)
		p0 = na.GetParameters(false)
	)
	for k := 0; k < n; k++ {
		work := append([]float64(nil), p0...)
		work[k] = p0[k] + eps
		na.SetParameters(work, false)
		hi := na.Gradient(DefaultLog10E, false)
		work[k] = p0[k] - eps
		na.SetParameters(work, false)
		lo := na.Gradient(DefaultLog10E, false)
		na.SetParameters(p0, false)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				fd := (hi.At(i, j) - lo.At(i, j)) / (2 * eps)
				assert.True(t, near(h[i][j][k], fd, 1.e-5),
					"d2w%d/da%d da%d: %g vs %g", i, j, k, h[i][j][k], fd)
			}
		}
	}
	// symmetry in the angle indices
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				assert.Equal(t, h[i][j][k], h[i][k][j])
			}
		}
	}
}

func TestNormAnglesFreeSelection(t *testing.T) {
	na, err := NewNormAngles([]float64{0.4, 0.3, 0.2})
	assert.NoError(t, err)
	na.SetFreeMask([]bool{true, false, true})

	assert.Equal(t, 2, na.NumParameters(true))
	g := na.Gradient(DefaultLog10E, true)
	_, nc := g.Dims()
	assert.Equal(t, 2, nc)

	full := na.Gradient(DefaultLog10E, false)
	for i := 0; i < na.NumComponents(); i++ {
		assert.Equal(t, full.At(i, 0), g.At(i, 0))
		assert.Equal(t, full.At(i, 2), g.At(i, 1))
	}
}

func TestNormAnglesAddDelete(t *testing.T) {
	na, err := NewNormAngles([]float64{0.4, 0.3})
	assert.NoError(t, err)

	grown := na.AddComponent(0.2)
	assert.Equal(t, 3, grown.NumComponents())
	w := grown.Weights(DefaultLog10E)
	assert.True(t, near(w[0], 0.4*0.8, 1.e-12))
	assert.True(t, near(w[1], 0.3*0.8, 1.e-12))
	assert.True(t, near(w[2], 0.2, 1.e-12))

	shrunk, err := grown.DeleteComponent(2)
	assert.NoError(t, err)
	assert.Equal(t, 2, shrunk.NumComponents())
	// the total is preserved through the delete
	assert.True(t, near(shrunk.GetTotal(), grown.GetTotal(), 1.e-12))
	w = shrunk.Weights(DefaultLog10E)
	assert.True(t, near(w[0]/w[1], 4./3., 1.e-9))

	_, err = grown.DeleteComponent(5)
	assert.Error(t, err)
}

func TestNormAnglesReorder(t *testing.T) {
	na, err := NewNormAngles([]float64{0.5, 0.3, 0.1})
	assert.NoError(t, err)
	na.SetFreeMask([]bool{true, false, true})

	assert.NoError(t, na.ReorderComponents([]int{2, 0, 1}))
	w := na.Weights(DefaultLog10E)
	assert.True(t, near(w[0], 0.1, 1.e-12))
	assert.True(t, near(w[1], 0.5, 1.e-12))
	assert.True(t, near(w[2], 0.3, 1.e-12))
	assert.Equal(t, []bool{true, true, false}, na.GetFreeMask())

	assert.Error(t, na.ReorderComponents([]int{0, 1}))
}

func TestNormAnglesBounds(t *testing.T) {
	na, err := NewNormAngles([]float64{0.4, 0.3})
	assert.NoError(t, err)
	for _, b := range na.GetBounds(false) {
		assert.Equal(t, 0., b[0])
		assert.Equal(t, math.Pi/2, b[1])
	}
	assert.Equal(t, []string{"Ang1", "Ang2"}, na.GetParameterNames(false))
}
