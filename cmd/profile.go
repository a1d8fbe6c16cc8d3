/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pulsekit/golc/ProfileParameters"
	"github.com/pulsekit/golc/templates"
	"github.com/spf13/cobra"
)

// ProfileCmd represents the profile command
var ProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Export a binned pulse profile from a template",
	Long: `
Loads a light-curve template (yaml spec or gauss text profile) and
writes a two-column mean-normalized profile: left bin edge, value.

golc profile -i input.yaml -o profile.txt`,
	Run: func(cmd *cobra.Command, args []string) {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		pp := &ProfileParameters.ProfileParameters{NBin: 100}
		if input != "" {
			data, err := os.ReadFile(input)
			if err != nil {
				fmt.Printf("unable to read input parameters: %v\n", err)
				os.Exit(1)
			}
			if err := pp.Parse(data); err != nil {
				fmt.Printf("unable to parse input parameters: %v\n", err)
				os.Exit(1)
			}
			pp.Print()
		}
		if tf, _ := cmd.Flags().GetString("template"); tf != "" {
			pp.TemplateFile = tf
		}
		if nbin, _ := cmd.Flags().GetInt("nbin"); nbin != 0 {
			pp.NBin = nbin
		}
		t, err := loadTemplate(pp.TemplateFile)
		if err != nil {
			fmt.Printf("unable to load template: %v\n", err)
			os.Exit(1)
		}
		if err := applyParameters(t, pp); err != nil {
			fmt.Printf("unable to apply parameters: %v\n", err)
			os.Exit(1)
		}
		if err := t.WriteProfile(output, pp.NBin, pp.Integral, pp.SuppressBG); err != nil {
			fmt.Printf("unable to write profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d-bin profile for %s to %s\n", pp.NBin, t.GetCode(), output)
	},
}

func init() {
	rootCmd.AddCommand(ProfileCmd)
	ProfileCmd.Flags().StringP("input", "i", "", "yaml input parameter file")
	ProfileCmd.Flags().StringP("template", "t", "", "template file (yaml spec or gauss text)")
	ProfileCmd.Flags().StringP("output", "o", "profile.txt", "output profile file")
	ProfileCmd.Flags().Int("nbin", 0, "number of phase bins (overrides input file)")
}

func loadTemplate(fname string) (*templates.LCTemplate, error) {
	if fname == "" {
		return nil, fmt.Errorf("no template file given")
	}
	if strings.HasSuffix(fname, ".yaml") || strings.HasSuffix(fname, ".yml") {
		return templates.ReadTemplateSpec(fname)
	}
	return templates.ReadProfile(fname)
}

// applyParameters pushes cache settings and named parameter overrides
// from the input file onto the template.
func applyParameters(t *templates.LCTemplate, pp *ProfileParameters.ProfileParameters) error {
	if pp.NCache > 0 {
		mode := templates.InterpLinear
		if pp.Interpolation == "nearest" {
			mode = templates.InterpNearest
		}
		t.SetCacheProperties(pp.NCache, mode)
	}
	if len(pp.Overrides) == 0 {
		return nil
	}
	names := t.GetParameterNames(false)
	params := t.GetParameters(false)
	for name, val := range pp.Overrides {
		found := false
		for i, n := range names {
			if n == name {
				params[i] = val
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no parameter named %q (have %v)", name, names)
		}
	}
	ok, err := t.SetParameters(params, false)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("warning: some overridden parameters violate their bounds")
	}
	return nil
}
