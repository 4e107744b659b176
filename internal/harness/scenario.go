// Package harness runs end-to-end YAML scenarios: inline source tables are
// pushed through the full normalize/merge/materialize path on an in-memory
// database, then shorthand queries are executed and checked against the
// scenario's expectations.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: the five source tables inline,
// plus the queries to run against the flattened result.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sources holds the raw input tables, keyed by source name:
	// contacts, places, techstacks, sfdc, hubspot. Missing sources are
	// treated as empty, same as a missing CSV in a real run.
	Sources map[string]SourceTable `yaml:"sources"`

	// Queries lists the shorthand queries to run and their expectations.
	Queries []QueryStep `yaml:"queries"`
}

// SourceTable is one raw input table, mirroring a CSV file.
type SourceTable struct {
	Columns []string   `yaml:"columns"`
	Rows    [][]string `yaml:"rows"`
}

// QueryStep runs one shorthand query against the flattened set.
type QueryStep struct {
	// Input is the shorthand query text.
	Input string `yaml:"input"`

	// ExpectError, when set, is the translation error code the input must
	// produce. The query is not executed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Expect validates the execution result. Required unless ExpectError
	// is set.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected query outcome.
type ExpectClause struct {
	// Total is the expected full match count (not the preview size).
	Total int `yaml:"total"`

	// ContactIDs are the expected preview contact IDs in order.
	// If nil, only Total is validated.
	ContactIDs []int64 `yaml:"contact_ids,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

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

// Source names accepted in the sources map.
var sourceNames = map[string]struct{}{
	"contacts":   {},
	"places":     {},
	"techstacks": {},
	"sfdc":       {},
	"hubspot":    {},
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for name, tbl := range s.Sources {
		if _, ok := sourceNames[name]; !ok {
			return fmt.Errorf("unknown source %q", name)
		}
		for i, row := range tbl.Rows {
			if len(row) != len(tbl.Columns) {
				return fmt.Errorf("source %q row %d: %d cells for %d columns",
					name, i, len(row), len(tbl.Columns))
			}
		}
	}

	for i, q := range s.Queries {
		if q.Input == "" {
			return fmt.Errorf("queries[%d]: input is required", i)
		}
		if q.ExpectError == "" && q.Expect == nil {
			return fmt.Errorf("queries[%d]: expect or expect_error is required", i)
		}
		if q.ExpectError != "" && q.Expect != nil {
			return fmt.Errorf("queries[%d]: expect and expect_error are mutually exclusive", i)
		}
	}
	return nil
}
