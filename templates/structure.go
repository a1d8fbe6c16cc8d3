package templates

import (
	"fmt"
)

// DeletePrimitive returns a new template with the indexed component
// removed and the remaining weights rescaled to preserve the total
// pulsed fraction.  With inplace set, the receiver is rebuilt instead.
// A template must retain at least one primitive.
func (t *LCTemplate) DeletePrimitive(index int, inplace bool) (*LCTemplate, error) {
	if len(t.primitives) == 1 {
		return nil, fmt.Errorf("template only has a single primitive")
	}
	if t.HasBridge() && len(t.primitives) == 2 {
		return nil, fmt.Errorf("bridge template requires at least two primitives")
	}
	if index < 0 {
		index += len(t.primitives)
	}
	if index < 0 || index >= len(t.primitives) {
		return nil, fmt.Errorf("component index %d out of range [0,%d)", index, len(t.primitives))
	}
	newPrims := make([]Primitive, 0, len(t.primitives)-1)
	for i, p := range t.primitives {
		if i == index {
			continue
		}
		newPrims = append(newPrims, p.Clone())
	}
	slot := index
	if t.HasBridge() {
		slot++ // pedestal occupies slot 0
	}
	newNorms, err := t.norms.DeleteComponent(slot)
	if err != nil {
		return nil, err
	}
	if inplace {
		t.primitives = newPrims
		t.norms = newNorms
		t.MarkCacheDirty()
		return t, nil
	}
	if t.HasBridge() {
		return NewLCBridgeTemplate(newPrims, newNorms)
	}
	return NewLCTemplate(newPrims, newNorms)
}

// AddPrimitive returns a new template with prim appended carrying the
// given weight; existing weights are rescaled by 1-norm.
func (t *LCTemplate) AddPrimitive(prim Primitive, norm float64, inplace bool) (*LCTemplate, error) {
	newPrims := make([]Primitive, 0, len(t.primitives)+1)
	for _, p := range t.primitives {
		newPrims = append(newPrims, p.Clone())
	}
	newPrims = append(newPrims, prim)
	newNorms := t.norms.AddComponent(norm)
	if inplace {
		t.primitives = newPrims
		t.norms = newNorms
		t.MarkCacheDirty()
		return t, nil
	}
	if t.HasBridge() {
		return NewLCBridgeTemplate(newPrims, newNorms)
	}
	return NewLCTemplate(newPrims, newNorms)
}

// SwapPrimitive replaces the indexed component in place with a new one
// of the named type whose shape matches the old one as closely as
// possible.
func (t *LCTemplate) SwapPrimitive(index int, kind string) error {
	if index < 0 || index >= len(t.primitives) {
		return fmt.Errorf("component index %d out of range [0,%d)", index, len(t.primitives))
	}
	p, err := ConvertPrimitive(t.primitives[index], kind)
	if err != nil {
		return err
	}
	t.primitives[index] = p
	t.MarkCacheDirty()
	return nil
}

// ConvertPrimitive builds a primitive of the named type matching the
// location and width of the source.
func ConvertPrimitive(p Primitive, kind string) (Primitive, error) {
	var (
		loc   = p.GetLocation()
		width = p.GetWidth(false)
	)
	switch kind {
	case "Gaussian":
		return NewLCGaussian(width, loc), nil
	case "Lorentzian":
		return NewLCLorentzian(width*TwoPI, loc), nil
	case "Gaussian2":
		return NewLCGaussian2(width, width, loc), nil
	}
	return nil, fmt.Errorf("unknown primitive type %q", kind)
}
