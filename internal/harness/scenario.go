package harness

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance case: the catalogue and documents to
// set up, the resolution to request, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalogue is optional inline CUE catalogue source. Empty means the
	// embedded current-law catalogue.
	Catalogue string `yaml:"catalogue,omitempty"`

	// Documents maps document names to reform bodies in the wire format
	// (JSON with // comment headers). Baseline references inside a body
	// resolve against these names.
	Documents map[string]string `yaml:"documents"`

	// Request names the document to resolve. May be omitted when the
	// scenario has exactly one document.
	Request string `yaml:"request,omitempty"`

	// Years is the resolution horizon, "START-END" or a single year.
	Years string `yaml:"years"`

	// Expect describes the outcome the scenario asserts.
	Expect Expectations `yaml:"expect"`
}

// Expectations is the assertion block of a scenario. At least one field
// must be set.
type Expectations struct {
	// Values lists resolved cells the schedule must contain.
	Values []ValueExpectation `yaml:"values,omitempty"`

	// Violations lists defects the validation report must contain.
	// Containment check: extra violations do not fail the scenario
	// unless ViolationCount is also set.
	Violations []ViolationExpectation `yaml:"violations,omitempty"`

	// ViolationCount, when non-nil, is the exact number of violations
	// (errors and warnings) across the whole chain.
	ViolationCount *int `yaml:"violation_count,omitempty"`

	// Valid, when non-nil, asserts whether the chain as a whole may be
	// used for resolution (warnings alone leave it usable).
	Valid *bool `yaml:"valid,omitempty"`

	// ChainError expects baseline chain construction to fail:
	// "cyclic" or "unresolved". Mutually exclusive with the other
	// expectations.
	ChainError string `yaml:"chain_error,omitempty"`
}

// ValueExpectation is one resolved cell the schedule must contain.
// The value is compared after coercion to the parameter's declared
// type, so "250000" matches a real-typed 250000.0.
type ValueExpectation struct {
	Param string `yaml:"param"`
	Year  int    `yaml:"year"`
	Value any    `yaml:"value"`
}

// ViolationExpectation is one defect the validation report must
// contain, matched on parameter and code, and on year when given.
type ViolationExpectation struct {
	Param string `yaml:"param"`
	Year  int    `yaml:"year,omitempty"`
	Code  string `yaml:"code"`
}

// Chain error kinds accepted in Expectations.ChainError.
const (
	ChainErrorCyclic     = "cyclic"
	ChainErrorUnresolved = "unresolved"
)

// LoadScenario reads and parses a scenario YAML file. Decoding is
// strict: unknown fields (typos like "expects:" for "expect:") are
// errors, as are missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario from YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks required fields and expectation consistency.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Documents) == 0 {
		return fmt.Errorf("documents map is required and must be non-empty")
	}
	for _, name := range documentNames(s) {
		if s.Documents[name] == "" {
			return fmt.Errorf("documents[%s]: body is empty", name)
		}
	}

	if s.Request == "" {
		if len(s.Documents) > 1 {
			return fmt.Errorf("request is required when a scenario has more than one document")
		}
		s.Request = documentNames(s)[0]
	}
	if _, ok := s.Documents[s.Request]; !ok {
		return fmt.Errorf("request %q is not a key of documents", s.Request)
	}

	if s.Years == "" {
		return fmt.Errorf("years is required")
	}

	return validateExpectations(&s.Expect)
}

func validateExpectations(e *Expectations) error {
	if len(e.Values) == 0 && len(e.Violations) == 0 &&
		e.ViolationCount == nil && e.Valid == nil && e.ChainError == "" {
		return fmt.Errorf("expect block must assert something")
	}

	switch e.ChainError {
	case "", ChainErrorCyclic, ChainErrorUnresolved:
	default:
		return fmt.Errorf("expect.chain_error: unknown kind %q (want %q or %q)",
			e.ChainError, ChainErrorCyclic, ChainErrorUnresolved)
	}
	if e.ChainError != "" &&
		(len(e.Values) > 0 || len(e.Violations) > 0 || e.ViolationCount != nil || e.Valid != nil) {
		return fmt.Errorf("expect.chain_error excludes all other expectations: validation never runs on a broken chain")
	}

	for i, v := range e.Values {
		if v.Param == "" {
			return fmt.Errorf("expect.values[%d]: param is required", i)
		}
		if v.Year == 0 {
			return fmt.Errorf("expect.values[%d]: year is required", i)
		}
		if v.Value == nil {
			return fmt.Errorf("expect.values[%d]: value is required", i)
		}
	}
	for i, v := range e.Violations {
		if v.Param == "" {
			return fmt.Errorf("expect.violations[%d]: param is required", i)
		}
		if v.Code == "" {
			return fmt.Errorf("expect.violations[%d]: code is required", i)
		}
	}
	if e.ViolationCount != nil && *e.ViolationCount < 0 {
		return fmt.Errorf("expect.violation_count must be non-negative")
	}
	return nil
}

// documentNames returns the scenario's document names in sorted order.
func documentNames(s *Scenario) []string {
	names := make([]string, 0, len(s.Documents))
	for name := range s.Documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
