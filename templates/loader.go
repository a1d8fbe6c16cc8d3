package templates

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
)

// ParseProfile parses the gauss text profile format: a header line
// naming the encoding, then lines of the form
//
//	phasN = <value> +/- <error>
//	fwhmN = <value> +/- <error>
//	amplN = <value> +/- <error>
//
// FWHM values are converted to the Gaussian width parameter.  The
// kernel and fourier encodings are produced by external tooling and
// are rejected here.
func ParseProfile(data []byte) ([]Primitive, []float64, error) {
	var toks [][]string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			toks = append(toks, fields)
		}
	}
	if len(toks) == 0 {
		return nil, nil, fmt.Errorf("empty template description")
	}
	header := strings.Join(toks[0], " ")
	switch {
	case strings.Contains(header, "gauss"):
		return parseGaussProfile(toks[1:])
	case strings.Contains(header, "kernel"), strings.Contains(header, "fourier"):
		return nil, nil, fmt.Errorf("%s template encoding: %w", toks[0][len(toks[0])-1], ErrNotImplemented)
	}
	return nil, nil, fmt.Errorf("template format not recognized")
}

func parseGaussProfile(toks [][]string) (prims []Primitive, norms []float64, err error) {
	val := func(tok []string, i int) (float64, error) {
		if len(tok) <= i {
			return 0, fmt.Errorf("malformed profile line %q", strings.Join(tok, " "))
		}
		return strconv.ParseFloat(tok[i], 64)
	}
	for _, tok := range toks {
		key := tok[0]
		switch {
		case strings.HasPrefix(key, "phas"):
			v, err := val(tok, 2)
			if err != nil {
				return nil, nil, err
			}
			e, err := val(tok, 4)
			if err != nil {
				return nil, nil, err
			}
			g := NewLCGaussian(0.02, v)
			g.errors[1] = e
			prims = append(prims, g)
		case strings.HasPrefix(key, "fwhm"):
			if len(prims) == 0 {
				return nil, nil, fmt.Errorf("fwhm line before any phas line")
			}
			v, err := val(tok, 2)
			if err != nil {
				return nil, nil, err
			}
			e, err := val(tok, 4)
			if err != nil {
				return nil, nil, err
			}
			g := prims[len(prims)-1].(*LCGaussian)
			g.p[0] = v / Fwhm2Sigma
			g.errors[0] = e / Fwhm2Sigma
		case strings.HasPrefix(key, "ampl"):
			v, err := val(tok, 2)
			if err != nil {
				return nil, nil, err
			}
			norms = append(norms, v)
		}
	}
	if len(prims) == 0 {
		return nil, nil, fmt.Errorf("no components in template description")
	}
	return
}

// ReadProfile loads a gauss text profile into a template.
func ReadProfile(fname string) (*LCTemplate, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	prims, norms, err := ParseProfile(data)
	if err != nil {
		return nil, err
	}
	if norms == nil {
		return NewLCTemplate(prims, nil)
	}
	return NewLCTemplateFromWeights(prims, norms)
}

// PrimitiveSpec is the serialized form of one component.
type PrimitiveSpec struct {
	Type       string    `yaml:"Type"`
	Parameters []float64 `yaml:"Parameters"`
	Free       []bool    `yaml:"Free,omitempty"`
	Errors     []float64 `yaml:"Errors,omitempty"`
}

// TemplateSpec is a structured template serialization that a loader
// reconstructs without executing anything.
type TemplateSpec struct {
	Primitives []PrimitiveSpec `yaml:"Primitives"`
	Norms      []float64       `yaml:"Norms"`
	NormFree   []bool          `yaml:"NormFree,omitempty"`
	Bridge     bool            `yaml:"Bridge,omitempty"`
}

func (s *TemplateSpec) Parse(data []byte) error {
	return yaml.Unmarshal(data, s)
}

func (s *TemplateSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func newPrimitiveFromSpec(ps PrimitiveSpec) (Primitive, error) {
	var p Primitive
	switch ps.Type {
	case "Gaussian":
		if len(ps.Parameters) != 2 {
			return nil, fmt.Errorf("Gaussian takes 2 parameters, spec has %d", len(ps.Parameters))
		}
		p = NewLCGaussian(ps.Parameters[0], ps.Parameters[1])
	case "Lorentzian":
		if len(ps.Parameters) != 2 {
			return nil, fmt.Errorf("Lorentzian takes 2 parameters, spec has %d", len(ps.Parameters))
		}
		p = NewLCLorentzian(ps.Parameters[0], ps.Parameters[1])
	case "Gaussian2":
		if len(ps.Parameters) != 3 {
			return nil, fmt.Errorf("Gaussian2 takes 3 parameters, spec has %d", len(ps.Parameters))
		}
		p = NewLCGaussian2(ps.Parameters[0], ps.Parameters[1], ps.Parameters[2])
	default:
		return nil, fmt.Errorf("unknown primitive type %q", ps.Type)
	}
	if ps.Free != nil {
		if len(ps.Free) != p.NumParameters(false) {
			return nil, fmt.Errorf("free mask length %d for %s", len(ps.Free), ps.Type)
		}
		p.SetFreeMask(ps.Free)
	}
	if ps.Errors != nil {
		if len(ps.Errors) != p.NumParameters(false) {
			return nil, fmt.Errorf("error vector length %d for %s", len(ps.Errors), ps.Type)
		}
		p.SetErrors(ps.Errors)
	}
	return p, nil
}

// NewTemplateFromSpec reconstructs a template from its serialized
// form.
func NewTemplateFromSpec(s *TemplateSpec) (*LCTemplate, error) {
	prims := make([]Primitive, len(s.Primitives))
	for i, ps := range s.Primitives {
		p, err := newPrimitiveFromSpec(ps)
		if err != nil {
			return nil, err
		}
		prims[i] = p
	}
	norms, err := NewNormAngles(s.Norms)
	if err != nil {
		return nil, err
	}
	if s.NormFree != nil {
		norms.SetFreeMask(s.NormFree)
	}
	if s.Bridge {
		return NewLCBridgeTemplate(prims, norms)
	}
	return NewLCTemplate(prims, norms)
}

// SpecFromTemplate serializes a template for later reconstruction.
func SpecFromTemplate(t *LCTemplate) *TemplateSpec {
	s := &TemplateSpec{
		Norms:    t.norms.Weights(DefaultLog10E),
		NormFree: t.norms.GetFreeMask(),
		Bridge:   t.HasBridge(),
	}
	for _, p := range t.primitives {
		s.Primitives = append(s.Primitives, PrimitiveSpec{
			Type:       p.Name(),
			Parameters: p.GetParameters(false),
			Free:       p.GetFreeMask(),
			Errors:     p.GetErrors(false),
		})
	}
	return s
}

// ReadTemplateSpec loads a yaml template file.
func ReadTemplateSpec(fname string) (*LCTemplate, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	s := &TemplateSpec{}
	if err := s.Parse(data); err != nil {
		return nil, err
	}
	return NewTemplateFromSpec(s)
}

// WriteTemplateSpec serializes a template to a yaml file.
func WriteTemplateSpec(t *LCTemplate, fname string) error {
	data, err := SpecFromTemplate(t).Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(fname, data, 0644)
}
