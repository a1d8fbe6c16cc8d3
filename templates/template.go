package templates

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/pulsekit/golc/utils"
)

// ErrNotImplemented marks permanent capability gaps (unsupported
// interpolation modes, sampling from bridge templates) rather than
// transient failures.
var ErrNotImplemented = errors.New("not implemented")

func errUnsupportedOrder(order int) error {
	return fmt.Errorf("derivative order %d: %w", order, ErrNotImplemented)
}

// LCTemplate is a normalized, periodic light-curve model: a weighted
// mixture of Primitives over a constant background pedestal equal to
// 1 - sum(weights).  The template owns its primitives and exactly one
// NormMap; the zero value is not usable, construct with NewLCTemplate
// or NewLCBridgeTemplate.
//
// A template is not safe for concurrent mutation; clone per worker
// when fitting in parallel.
type LCTemplate struct {
	primitives []Primitive
	norms      NormMap
	scale      scaleStrategy
	cache      evalCache
	log        *slog.Logger
}

// NewLCTemplate builds a standard template.  A nil norms uses uniform
// weights 1/n.  The NormMap must carry exactly one weight slot per
// primitive.
func NewLCTemplate(primitives []Primitive, norms NormMap) (*LCTemplate, error) {
	if len(primitives) == 0 {
		return nil, fmt.Errorf("template requires at least one primitive")
	}
	if norms == nil {
		var err error
		norms, err = NewNormAngles(utils.ConstArray(len(primitives), 1/float64(len(primitives))))
		if err != nil {
			return nil, err
		}
	}
	if norms.NumComponents() != len(primitives) {
		return nil, fmt.Errorf("%d primitives require %d normalization components, have %d",
			len(primitives), len(primitives), norms.NumComponents())
	}
	t := &LCTemplate{
		primitives: primitives,
		norms:      norms,
		scale:      standardScales{},
		log:        slog.Default(),
	}
	t.cache.init()
	return t, nil
}

// NewLCTemplateFromWeights is a convenience wrapper taking plain
// component weights.
func NewLCTemplateFromWeights(primitives []Primitive, weights []float64) (*LCTemplate, error) {
	norms, err := NewNormAngles(weights)
	if err != nil {
		return nil, err
	}
	return NewLCTemplate(primitives, norms)
}

// SetLogger injects the structured logger used for diagnostics.
func (t *LCTemplate) SetLogger(l *slog.Logger) {
	if l != nil {
		t.log = l
	}
}

func (t *LCTemplate) Primitives() []Primitive { return t.primitives }
func (t *LCTemplate) Norms() NormMap          { return t.norms }

func (t *LCTemplate) HasBridge() bool {
	_, ok := t.scale.(bridgeScales)
	return ok
}

func (t *LCTemplate) IsEnergyDependent() bool {
	for _, p := range t.primitives {
		if p.IsEnergyDependent() {
			return true
		}
	}
	return t.norms.IsEnergyDependent()
}

// Copy deep-copies the template, its primitives and its NormMap.
func (t *LCTemplate) Copy() *LCTemplate {
	prims := make([]Primitive, len(t.primitives))
	for i, p := range t.primitives {
		prims[i] = p.Clone()
	}
	r := &LCTemplate{
		primitives: prims,
		norms:      t.norms.Clone(),
		scale:      t.scale,
		log:        t.log,
	}
	r.cache.init()
	r.cache.ncache = t.cache.ncache
	r.cache.interp = t.cache.interp
	return r
}

// Evaluate returns the mixture value at each phase.  Phases must
// already be wrapped to [0,1).  With suppressBG the background term is
// omitted and the result normalized by the total pulsed fraction; with
// useCache evaluation is served from the interpolation cache.
func (t *LCTemplate) Evaluate(phases []float64, log10En float64, suppressBG, useCache bool) ([]float64, error) {
	if useCache {
		return t.evalCachedValues(phases, 0)
	}
	ped, w, total := t.scale.scales(t, phases, log10En)
	r := ped
	if r == nil {
		r = make([]float64, len(phases))
	}
	for i, prim := range t.primitives {
		pv := prim.Evaluate(phases, log10En)
		accumulateScaled(r, w[i], pv)
	}
	if suppressBG {
		for i := range r {
			r[i] /= total
		}
		return r, nil
	}
	for i := range r {
		r[i] += 1 - total
	}
	return r, nil
}

// accumulateScaled adds scale*v into dst; a scale row of length 1 is
// constant over phase.
func accumulateScaled(dst, scale, v []float64) {
	if len(scale) == 1 {
		s := scale[0]
		for i := range dst {
			dst[i] += s * v[i]
		}
		return
	}
	for i := range dst {
		dst[i] += scale[i] * v[i]
	}
}

// Derivative returns the order-th derivative of the mixture with
// respect to phase.  The background is constant so it contributes
// nothing.
func (t *LCTemplate) Derivative(phases []float64, log10En float64, order int, useCache bool) ([]float64, error) {
	if useCache {
		return t.evalCachedValues(phases, order)
	}
	ped, w, _ := t.scale.scales(t, phases, log10En)
	_ = ped // piecewise constant; zero derivative almost everywhere
	r := make([]float64, len(phases))
	for i, prim := range t.primitives {
		pd, err := prim.Derivative(phases, log10En, order)
		if err != nil {
			return nil, err
		}
		accumulateScaled(r, w[i], pd)
	}
	return r, nil
}

// SingleComponent evaluates one weighted component alone.  For a
// bridge template the pedestal piece is always included, since the
// coupled geometry has no standalone rendering; addBG is ignored
// there.
func (t *LCTemplate) SingleComponent(index int, phases []float64, log10En float64, addBG bool) ([]float64, error) {
	if index < 0 || index >= len(t.primitives) {
		return nil, fmt.Errorf("component index %d out of range [0,%d)", index, len(t.primitives))
	}
	ped, w, total := t.scale.scales(t, phases, log10En)
	r := ped
	if r == nil {
		r = make([]float64, len(phases))
	}
	accumulateScaled(r, w[index], t.primitives[index].Evaluate(phases, log10En))
	if addBG && !t.HasBridge() {
		for i := range r {
			r[i] += 1 - total
		}
	}
	return r, nil
}

// Integrate returns the definite integral of the template over
// [phi1, phi2].
func (t *LCTemplate) Integrate(phi1, phi2, log10En float64, suppressBG bool) float64 {
	if t.HasBridge() {
		// pedestal mask geometry has no per-component closed form
		return t.integrateNumeric(phi1, phi2, log10En, suppressBG)
	}
	w := t.norms.Weights(log10En)
	total := sumF64(w)
	rvals := 0.
	for i, prim := range t.primitives {
		rvals += w[i] * prim.Integrate(phi1, phi2, log10En)
	}
	if suppressBG {
		return rvals / total
	}
	return (1-total)*(phi2-phi1) + rvals
}

// integrateNumeric applies composite Simpson over a fine grid.
func (t *LCTemplate) integrateNumeric(phi1, phi2, log10En float64, suppressBG bool) float64 {
	const nseg = 1000
	phases := utils.Linspace(phi1, phi2, 2*nseg+1)
	v, _ := t.Evaluate(phases, log10En, suppressBG, false)
	h := (phi2 - phi1) / float64(2*nseg)
	sum := v[0] + v[len(v)-1]
	for i := 1; i < len(v)-1; i++ {
		if i%2 == 1 {
			sum += 4 * v[i]
		} else {
			sum += 2 * v[i]
		}
	}
	return sum * h / 3
}

// CDF returns the cumulative distribution at x.
func (t *LCTemplate) CDF(x, log10En float64) float64 {
	return t.Integrate(0, x, log10En, false)
}

// Max scans the profile at the given resolution for its peak value.
func (t *LCTemplate) Max(resolution float64) float64 {
	n := int(1/resolution) + 1
	phases := utils.Linspace(0, 1, n+1)[:n]
	v, _ := t.Evaluate(phases, DefaultLog10E, false, false)
	return utils.VecMax(v)
}

// Norm returns the total pulsed fraction.
func (t *LCTemplate) Norm() float64 { return t.norms.GetTotal() }

func (t *LCTemplate) NormOK() bool { return t.Norm() <= 1 }

// GetAmplitudes returns the peak amplitude of each weighted component.
func (t *LCTemplate) GetAmplitudes(log10En float64) (r []float64) {
	w := t.norms.Weights(log10En)
	off := 0
	if t.HasBridge() {
		off = 1
	}
	r = make([]float64, len(t.primitives))
	for i, p := range t.primitives {
		r[i] = w[i+off] * evalAt(p, p.GetLocation(), log10En)
	}
	return
}

// GetCode returns a short string encoding the component types.
func (t *LCTemplate) GetCode() string {
	parts := make([]string, len(t.primitives))
	for i, p := range t.primitives {
		parts[i] = p.ShortName()
	}
	return strings.Join(parts, "/")
}

func (t *LCTemplate) GetLocation() float64 {
	return t.primitives[0].GetLocation()
}

// SetOverallPhase shifts all components so the first component peaks
// at phase ph.
func (t *LCTemplate) SetOverallPhase(ph float64) {
	t.MarkCacheDirty()
	shift := ph - t.primitives[0].GetLocation()
	for _, prim := range t.primitives {
		prim.SetLocation(utils.WrapPhase(prim.GetLocation() + shift))
	}
}

// AlignPeak shifts the template so the first component peaks at phase
// zero.
func (t *LCTemplate) AlignPeak() {
	t.MarkCacheDirty()
	shift := -t.primitives[0].GetLocation()
	t.log.Info("shifting profile peak", "shift", shift)
	for _, prim := range t.primitives {
		prim.SetLocation(utils.WrapPhase(prim.GetLocation() + shift))
	}
}

// ClosestToPeak returns the smallest distance from any phase to any
// component location.
func (t *LCTemplate) ClosestToPeak(phases []float64) (min float64) {
	min = 1.
	for _, p := range t.primitives {
		loc := p.GetLocation()
		for _, ph := range phases {
			d := utils.WrapPhase(ph - loc)
			if d > 0.5 {
				d = 1 - d
			}
			if d < min {
				min = d
			}
		}
	}
	return
}

// Delta reports the peak separation between the lowest- and
// highest-phase components, with propagated error.
func (t *LCTemplate) Delta() (sep, err float64) {
	if len(t.primitives) == 1 {
		return -1, 0
	}
	lo, hi := t.primitives[0], t.primitives[0]
	for _, p := range t.primitives {
		if p.GetLocation() < lo.GetLocation() {
			lo = p
		}
		if p.GetLocation() > hi.GetLocation() {
			hi = p
		}
	}
	e1, e2 := lo.GetLocationError(), hi.GetLocationError()
	return hi.GetLocation() - lo.GetLocation(), sqrtSumSq(e1, e2)
}

// Delta0 reports the position of the lowest-phase peak ("radio lag")
// with its error.
func (t *LCTemplate) Delta0() (pos, err float64) {
	lo := t.primitives[0]
	for _, p := range t.primitives {
		if p.GetLocation() < lo.GetLocation() {
			lo = p
		}
	}
	return lo.GetLocation(), lo.GetLocationError()
}

// MeanValue evaluates the profile; for energy-dependent templates it
// would average over the energy distribution, but the shipped
// components are energy-independent so a single evaluation serves.
func (t *LCTemplate) MeanValue(phases []float64) ([]float64, error) {
	return t.Evaluate(phases, DefaultLog10E, false, false)
}

// OrderPrimitives reorders components in place.  order 0: ascending
// location; 1: descending peak amplitude; 2: descending weight.
func (t *LCTemplate) OrderPrimitives(order int) error {
	n := len(t.primitives)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	switch order {
	case 0:
		sort.SliceStable(idx, func(a, b int) bool {
			return t.primitives[idx[a]].GetLocation() < t.primitives[idx[b]].GetLocation()
		})
	case 1:
		amps := t.GetAmplitudes(DefaultLog10E)
		sort.SliceStable(idx, func(a, b int) bool { return amps[idx[a]] > amps[idx[b]] })
	case 2:
		w := t.norms.Weights(DefaultLog10E)
		sort.SliceStable(idx, func(a, b int) bool { return w[idx[a]] > w[idx[b]] })
	default:
		return fmt.Errorf("primitive order %d: %w", order, ErrNotImplemented)
	}
	prims := make([]Primitive, n)
	for i, p := range idx {
		prims[i] = t.primitives[p]
	}
	t.primitives = prims
	if err := t.norms.ReorderComponents(idx); err != nil {
		return err
	}
	t.MarkCacheDirty()
	return nil
}

func (t *LCTemplate) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: total norm %.4f\n", t.GetCode(), t.Norm())
	for i, p := range t.primitives {
		fmt.Fprintf(&sb, "P%d -- %s loc %.4f width %.4f\n",
			i+1, p.Name(), p.GetLocation(), p.GetWidth(false))
	}
	if len(t.primitives) > 1 {
		sep, err := t.Delta()
		fmt.Fprintf(&sb, "Delta   : %.4f +/- %.4f\n", sep, err)
	}
	return sb.String()
}

// ProfString renders the template in the gauss text profile format.
// All primitives are treated as Gaussians; widths are exported as
// FWHM.
func (t *LCTemplate) ProfString() string {
	var (
		dashes = strings.Repeat("-", 25)
		lines  []string
		norm   float64
	)
	w := t.norms.Weights(DefaultLog10E)
	off := 0
	if t.HasBridge() {
		off = 1
	}
	for i, prim := range t.primitives {
		phas, phasErr := prim.GetLocation(), prim.GetLocationError()
		fwhm := 2 * prim.GetWidth(true)
		ampl := w[i+off]
		norm += ampl
		lines = append(lines,
			fmt.Sprintf("phas%d = %.5f +/- %.5f", i+1, phas, phasErr),
			fmt.Sprintf("fwhm%d = %.5f +/- %.5f", i+1, fwhm, 0.),
			fmt.Sprintf("ampl%d = %.5f +/- %.5f", i+1, ampl, 0.),
		)
	}
	out := []string{dashes, fmt.Sprintf("const = %.5f +/- %.5f", 1-norm, 0.)}
	out = append(out, lines...)
	out = append(out, dashes)
	return strings.Join(out, "\n")
}

// WriteProfile writes a two-column mean-normalized profile: left bin
// edge and profile value.  With integral set, values are
// Simpson-integrated over each bin.
func (t *LCTemplate) WriteProfile(fname string, nbin int, integral, suppressBG bool) error {
	var (
		binPhases []float64
		binValues []float64
	)
	if !integral {
		binPhases = utils.Linspace(0, 1, nbin+1)[:nbin]
		v, err := t.Evaluate(binPhases, DefaultLog10E, suppressBG, false)
		if err != nil {
			return err
		}
		binValues = v
	} else {
		phases := utils.Linspace(0, 1, 2*nbin+1)
		values, err := t.Evaluate(phases, DefaultLog10E, suppressBG, false)
		if err != nil {
			return err
		}
		binPhases = make([]float64, nbin)
		binValues = make([]float64, nbin)
		for i := 0; i < nbin; i++ {
			binPhases[i] = phases[2*i]
			lo, mid, hi := values[2*i], values[2*i+1], values[2*i+2]
			binValues[i] = (lo + 4*mid + hi) / (6 * float64(nbin))
		}
	}
	mean := sumF64(binValues) / float64(len(binValues))
	norm := utils.VecScalarMult(binValues, 1/mean)
	var sb strings.Builder
	for i := range binPhases {
		fmt.Fprintf(&sb, "%.6f %.6f\n", binPhases[i], norm[i])
	}
	return os.WriteFile(fname, []byte(sb.String()), 0644)
}

func sumF64(v []float64) (s float64) {
	for _, val := range v {
		s += val
	}
	return
}

func sqrtSumSq(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

func evalAt(p Primitive, phase, log10En float64) float64 {
	return p.Evaluate([]float64{phase}, log10En)[0]
}
