package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulsekit/golc/utils"
)

const twoPeakProfile = `# gauss
-------------------------
const = 0.20000 +/- 0.00000
phas1 = 0.10000 +/- 0.00100
fwhm1 = 0.07064 +/- 0.00200
ampl1 = 0.48000 +/- 0.00000
phas2 = 0.55000 +/- 0.00100
fwhm2 = 0.11774 +/- 0.00200
ampl2 = 0.32000 +/- 0.00000
-------------------------
`

func TestParseProfile(t *testing.T) {
	prims, norms, err := ParseProfile([]byte(twoPeakProfile))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(prims))
	assert.Equal(t, []float64{0.48, 0.32}, norms)

	assert.True(t, near(prims[0].GetLocation(), 0.1, 1.e-9))
	assert.True(t, near(prims[0].GetWidth(false), 0.07064/Fwhm2Sigma, 1.e-9))
	assert.True(t, near(prims[0].GetLocationError(), 0.001, 1.e-9))
	assert.True(t, near(prims[1].GetLocation(), 0.55, 1.e-9))
}

func TestParseProfileRejectsEncodings(t *testing.T) {
	for _, hdr := range []string{"# kernel", "# fourier"} {
		_, _, err := ParseProfile([]byte(hdr + "\nphas1 = 0.1 +/- 0.0\n"))
		assert.ErrorIs(t, err, ErrNotImplemented)
	}
	_, _, err := ParseProfile([]byte("# something\n"))
	assert.Error(t, err)
	_, _, err = ParseProfile([]byte(""))
	assert.Error(t, err)
	_, _, err = ParseProfile([]byte("# gauss\nfwhm1 = 0.1 +/- 0.0\n"))
	assert.Error(t, err)
}

func TestProfileRoundTrip(t *testing.T) {
	lct := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, false, 0)
	prims, norms, err := ParseProfile([]byte("# gauss\n" + lct.ProfString()))
	assert.NoError(t, err)
	back, err := NewLCTemplateFromWeights(prims, norms)
	assert.NoError(t, err)

	phases := utils.Linspace(0, 1, 101)[:100]
	a, err := lct.Evaluate(phases, DefaultLog10E, false, false)
	assert.NoError(t, err)
	b, err := back.Evaluate(phases, DefaultLog10E, false, false)
	assert.NoError(t, err)
	// the text format carries 5 decimals
	assert.True(t, maxAbsDiff(a, b) < 1.e-2)
}

func TestReadProfile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "two_peaks.txt")
	assert.NoError(t, os.WriteFile(fname, []byte(twoPeakProfile), 0644))
	lct, err := ReadProfile(fname)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(lct.Primitives()))
	assert.True(t, near(lct.Norm(), 0.8, 1.e-9))
}

func TestTemplateSpecRoundTrip(t *testing.T) {
	src := GetGauss2(0.8, 0.1, 0.55, 1.5, 0.03, 0.05, true, 0)
	src.Primitives()[0].SetFreeMask([]bool{false, true})
	src.SetErrors(make([]float64, src.NumParameters(false)))

	data, err := SpecFromTemplate(src).Marshal()
	assert.NoError(t, err)

	s := &TemplateSpec{}
	assert.NoError(t, s.Parse(data))
	back, err := NewTemplateFromSpec(s)
	assert.NoError(t, err)

	assert.Equal(t, src.GetFreeMask(), back.GetFreeMask())
	phases := utils.Linspace(0, 1, 101)[:100]
	a, _ := src.Evaluate(phases, DefaultLog10E, false, false)
	b, _ := back.Evaluate(phases, DefaultLog10E, false, false)
	assert.True(t, maxAbsDiff(a, b) < 1.e-9)
}

func TestTemplateSpecBridge(t *testing.T) {
	src := Get2PB(0.9, false)
	fname := filepath.Join(t.TempDir(), "bridge.yaml")
	assert.NoError(t, WriteTemplateSpec(src, fname))
	back, err := ReadTemplateSpec(fname)
	assert.NoError(t, err)
	assert.True(t, back.HasBridge())
	assert.True(t, near(back.Norm(), 0.9, 1.e-9))
}

func TestTemplateSpecValidation(t *testing.T) {
	_, err := NewTemplateFromSpec(&TemplateSpec{
		Primitives: []PrimitiveSpec{{Type: "Voigt", Parameters: []float64{0.1, 0.5}}},
		Norms:      []float64{0.5},
	})
	assert.Error(t, err)

	_, err = NewTemplateFromSpec(&TemplateSpec{
		Primitives: []PrimitiveSpec{{Type: "Gaussian", Parameters: []float64{0.1}}},
		Norms:      []float64{0.5},
	})
	assert.Error(t, err)
}
