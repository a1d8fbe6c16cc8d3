package ProfileParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type ProfileParameters struct {
	Title         string             `yaml:"Title"`
	TemplateFile  string             `yaml:"TemplateFile"`
	NBin          int                `yaml:"NBin"`
	Integral      bool               `yaml:"Integral"`
	SuppressBG    bool               `yaml:"SuppressBG"`
	NCache        int                `yaml:"NCache"`
	Interpolation string             `yaml:"Interpolation"` // nearest or linear
	Overrides     map[string]float64 `yaml:"Overrides"`     // parameter name -> value
}

func (pp *ProfileParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, pp)
}

func (pp *ProfileParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", pp.Title)
	fmt.Printf("[%s]\t\t= TemplateFile\n", pp.TemplateFile)
	fmt.Printf("[%d]\t\t\t= NBin\n", pp.NBin)
	fmt.Printf("[%v]\t\t\t= Integral\n", pp.Integral)
	fmt.Printf("[%v]\t\t\t= SuppressBG\n", pp.SuppressBG)
	fmt.Printf("[%d]\t\t\t= NCache\n", pp.NCache)
	fmt.Printf("[%s]\t\t= Interpolation\n", pp.Interpolation)
	keys := make([]string, 0, len(pp.Overrides))
	for k := range pp.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Overrides[%s] = %v\n", key, pp.Overrides[key])
	}
}
