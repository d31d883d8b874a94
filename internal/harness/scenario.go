package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/filtersql/internal/queryir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rows are inserted before any case runs.
	Rows []Row `yaml:"rows"`

	// Cases are evaluated in order against the same rows.
	Cases []Case `yaml:"cases"`
}

// Row is one fixture document.
type Row struct {
	ID  string    `yaml:"id"`
	Doc yaml.Node `yaml:"doc"`
}

// Case is one filter and its expected outcome.
type Case struct {
	Name   string    `yaml:"name"`
	Filter yaml.Node `yaml:"filter"`
	Expect Expect    `yaml:"expect"`
}

// Expect describes a case outcome. Exactly one of IDs, Count, or Error
// is checked; IDs may be an empty list to assert no match.
type Expect struct {
	// IDs are the matching row ids in result order.
	IDs []string `yaml:"ids,omitempty"`

	// Count is the expected number of matches.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected queryir.ErrorCode, e.g. INVALID_FIELD_PATH.
	Error string `yaml:"error,omitempty"`

	// hasIDs records whether ids was present, so "ids: []" is distinguishable
	// from an omitted key.
	hasIDs bool
}

// UnmarshalYAML records whether the ids key was present.
func (e *Expect) UnmarshalYAML(node *yaml.Node) error {
	type plain Expect
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Expect(p)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "ids" {
			e.hasIDs = true
		}
	}
	return nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, row := range s.Rows {
		if row.ID == "" {
			return fmt.Errorf("rows[%d]: id is required", i)
		}
		if seen[row.ID] {
			return fmt.Errorf("rows[%d]: duplicate id %q", i, row.ID)
		}
		seen[row.ID] = true
		if row.Doc.Kind != yaml.MappingNode {
			return fmt.Errorf("rows[%d]: doc must be a mapping", i)
		}
	}

	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if c.Filter.Kind != yaml.MappingNode {
			return fmt.Errorf("cases[%d]: filter must be a mapping", i)
		}
		set := 0
		if c.Expect.hasIDs {
			set++
		}
		if c.Expect.Count != nil {
			set++
		}
		if c.Expect.Error != "" {
			set++
			if !knownErrorCode(queryir.ErrorCode(c.Expect.Error)) {
				return fmt.Errorf("cases[%d]: unknown error code %q", i, c.Expect.Error)
			}
		}
		if set != 1 {
			return fmt.Errorf("cases[%d]: expect needs exactly one of ids, count, error", i)
		}
	}

	return nil
}

func knownErrorCode(code queryir.ErrorCode) bool {
	switch code {
	case queryir.ErrCodeInvalidFieldPath,
		queryir.ErrCodeUnsupportedOperator,
		queryir.ErrCodeEmptyNegation,
		queryir.ErrCodeTypeMismatch,
		queryir.ErrCodeDepthExceeded:
		return true
	}
	return false
}
