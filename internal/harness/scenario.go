package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/loomkit/weft/internal/output"
)

// Scenario defines one conformance test case: a template rendered with
// the given data and serialization method.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Template is the template file path, relative to the scenario file.
	Template string `yaml:"template"`

	// Data holds the context data passed to the render.
	Data map[string]any `yaml:"data,omitempty"`

	// Method is the serialization method; defaults to xml.
	Method string `yaml:"method,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly, and the template path is resolved
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	if !filepath.IsAbs(scenario.Template) {
		scenario.Template = filepath.Join(filepath.Dir(path), scenario.Template)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in a directory, sorted by
// file name for deterministic test ordering.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Template == "" {
		return fmt.Errorf("template is required")
	}
	if s.Method == "" {
		s.Method = string(output.XML)
	}
	if _, err := output.ParseMethod(s.Method); err != nil {
		return err
	}
	return nil
}
