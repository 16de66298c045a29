package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vqb/internal/pipeline"
)

// Scenario defines a translation conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pipeline is the path of the pipeline file. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Pipeline string `yaml:"pipeline"`

	// Backends lists the translators to run. Empty means every
	// registered backend.
	Backends []string `yaml:"backends,omitempty"`

	// Assertions validate the translations and query results.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Backend is the translator checked (translates, fails,
	// output_contains, supports).
	Backend string `yaml:"backend,omitempty"`

	// Code is the expected error code (fails).
	Code string `yaml:"code,omitempty"`

	// Contains is the expected output fragment (output_contains).
	Contains string `yaml:"contains,omitempty"`

	// Steps are the step kinds the backend must handle (supports).
	Steps []string `yaml:"steps,omitempty"`
}

// Assertion type constants.
const (
	AssertTranslates     = "translates"
	AssertFails          = "fails"
	AssertOutputContains = "output_contains"
	AssertSupports       = "supports"
	AssertValid          = "valid"
	AssertRoundTrip      = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Pipeline != "" && !filepath.IsAbs(scenario.Pipeline) {
		scenario.Pipeline = filepath.Join(filepath.Dir(path), scenario.Pipeline)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Pipeline == "" {
		return fmt.Errorf("pipeline is required")
	}
	if _, err := os.Stat(s.Pipeline); os.IsNotExist(err) {
		return fmt.Errorf("pipeline file not found: %s", s.Pipeline)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)

	case AssertTranslates:
		if a.Backend == "" {
			return fmt.Errorf("assertions[%d]: %s requires backend", index, a.Type)
		}

	case AssertFails:
		if a.Backend == "" || a.Code == "" {
			return fmt.Errorf("assertions[%d]: %s requires backend and code", index, a.Type)
		}

	case AssertOutputContains:
		if a.Backend == "" || a.Contains == "" {
			return fmt.Errorf("assertions[%d]: %s requires backend and contains", index, a.Type)
		}

	case AssertSupports:
		if a.Backend == "" || len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires backend and steps", index, a.Type)
		}
		for _, step := range a.Steps {
			if _, err := pipeline.ParseKind(step); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}

	case AssertValid, AssertRoundTrip:

	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
