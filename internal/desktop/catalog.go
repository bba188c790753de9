// Package desktop holds the closed catalog of supported desktop
// environments. The catalog is the authority both for validating the DE
// configuration key and for the package set and display manager installed
// during phase two.
package desktop

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Environment describes one installable desktop environment.
type Environment struct {
	Name           string   `yaml:"name"`
	Label          string   `yaml:"label"`
	Packages       []string `yaml:"packages"`
	DisplayManager string   `yaml:"display_manager"`
}

type catalog struct {
	Environments []Environment `yaml:"environments"`
}

var environments = mustLoad()

func mustLoad() map[string]Environment {
	var c catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		panic(fmt.Sprintf("desktop: embedded catalog is invalid: %v", err))
	}
	m := make(map[string]Environment, len(c.Environments))
	for _, e := range c.Environments {
		m[e.Name] = e
	}
	return m
}

// Lookup returns the environment for name.
func Lookup(name string) (Environment, bool) {
	e, ok := environments[name]
	return e, ok
}

// Names returns the supported environment names, sorted.
func Names() []string {
	names := make([]string, 0, len(environments))
	for n := range environments {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
