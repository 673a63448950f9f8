package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/resolve"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// CatalogueVersion identifies the catalogue the scenario ran against.
	CatalogueVersion string `json:"catalogue_version"`

	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Findings lists each expectation that did not hold. Empty when
	// Pass is true.
	Findings []string `json:"findings,omitempty"`

	// ChainSources lists the baseline chain in layering order. Empty
	// when chain construction failed.
	ChainSources []string `json:"chain,omitempty"`

	// ChainError is the chain construction failure, when one occurred.
	ChainError string `json:"chain_error,omitempty"`

	// Reports holds the per-document validation reports, in chain order.
	Reports []reform.DocumentReport `json:"reports,omitempty"`

	// Schedule is the resolved schedule. Nil when the chain broke or a
	// document failed validation.
	Schedule *resolve.Schedule `json:"-"`

	// snapshot names the parameters the rendered snapshot covers.
	snapshot []string
}

func newResult(name, version string) *Result {
	return &Result{
		Name:             name,
		CatalogueVersion: version,
		Pass:             true,
	}
}

// fail records one missed expectation and marks the result failed.
func (r *Result) fail(format string, args ...any) {
	r.Findings = append(r.Findings, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Snapshot renders the scenario outcome as deterministic text: the
// chain, every violation, and the resolved series of each parameter the
// scenario touches. Golden files hold exactly these bytes.
func (r *Result) Snapshot() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.Name)
	fmt.Fprintf(&b, "catalogue: %s\n", r.CatalogueVersion)

	if r.ChainError != "" {
		fmt.Fprintf(&b, "chain error: %s\n", r.ChainError)
		return []byte(b.String())
	}
	fmt.Fprintf(&b, "chain: %s\n", strings.Join(r.ChainSources, " -> "))

	total := 0
	for _, rep := range r.Reports {
		total += len(rep.Violations)
	}
	if total == 0 {
		b.WriteString("violations: (none)\n")
	} else {
		b.WriteString("violations:\n")
		for _, rep := range r.Reports {
			for _, v := range rep.Violations {
				fmt.Fprintf(&b, "  %s: %s\n", rep.Source, v.Error())
			}
		}
	}

	if r.Schedule == nil {
		b.WriteString("schedule: (not resolved)\n")
		return []byte(b.String())
	}
	b.WriteString("schedule:\n")
	for _, name := range r.snapshot {
		fmt.Fprintf(&b, "  %s\n", name)
		for _, year := range r.Schedule.YearsFor(name) {
			v, _ := r.Schedule.Value(name, year)
			fmt.Fprintf(&b, "    %d  %s\n", year, param.Format(v))
		}
	}
	return []byte(b.String())
}
