package harness

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/registry"
	"github.com/roach88/lawstack/internal/resolve"
)

// Run executes one scenario end to end: registry, documents, chain,
// validation, resolution, expectation checks.
//
// The returned error covers scenario defects the expectations cannot
// express (a catalogue that does not compile, a malformed document
// body, a bad horizon). Everything the scenario asserts lands in the
// Result as findings, so callers distinguish "the scenario is broken"
// from "the engine disagreed with the scenario".
func Run(sc *Scenario) (*Result, error) {
	reg, err := buildRegistry(sc)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: catalogue: %w", sc.Name, err)
	}

	horizon, err := resolve.ParseHorizon(sc.Years)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	docs := make(reform.MapLoader, len(sc.Documents))
	for _, name := range documentNames(sc) {
		doc, err := reform.Parse(name, []byte(sc.Documents[name]))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: document %s: %w", sc.Name, name, err)
		}
		docs[name] = doc
	}

	res := newResult(sc.Name, reg.Version())

	chain, err := reform.BuildChain(docs[sc.Request], docs)
	if err != nil {
		res.ChainError = err.Error()
		checkChainError(res, sc, err)
		return res, nil
	}
	if sc.Expect.ChainError != "" {
		res.fail("expected a %s baseline chain error, but the chain built with %d documents",
			sc.Expect.ChainError, len(chain))
		return res, nil
	}

	for _, doc := range chain {
		res.ChainSources = append(res.ChainSources, doc.Source)
	}

	res.Reports = reform.ValidateChain(reg, chain)
	checkViolations(res, sc)

	if reform.ChainValid(res.Reports) {
		sched, err := resolve.New(reg).Resolve(chain, horizon)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: resolve: %w", sc.Name, err)
		}
		res.Schedule = sched
	}

	checkValues(res, sc, reg)
	res.snapshot = snapshotParams(sc, chain, res.Schedule)
	return res, nil
}

// buildRegistry compiles the scenario's inline catalogue, or falls back
// to the embedded current-law catalogue.
func buildRegistry(sc *Scenario) (*registry.Registry, error) {
	if sc.Catalogue == "" {
		return registry.Load()
	}
	return registry.LoadSource(sc.Name+".cue", sc.Catalogue)
}

// checkChainError matches a chain construction failure against the
// scenario's chain_error expectation.
func checkChainError(res *Result, sc *Scenario, err error) {
	var (
		cyclic     *reform.CyclicBaselineError
		unresolved *reform.UnresolvedBaselineError
	)
	kind := ""
	switch {
	case errors.As(err, &cyclic):
		kind = ChainErrorCyclic
	case errors.As(err, &unresolved):
		kind = ChainErrorUnresolved
	}

	switch {
	case sc.Expect.ChainError == "":
		res.fail("baseline chain construction failed: %v", err)
	case sc.Expect.ChainError != kind:
		res.fail("expected a %s baseline chain error, got: %v", sc.Expect.ChainError, err)
	}
}

// checkViolations matches the validation reports against the
// scenario's violation expectations.
func checkViolations(res *Result, sc *Scenario) {
	for _, want := range sc.Expect.Violations {
		if !violationPresent(res.Reports, want) {
			if want.Year > 0 {
				res.fail("missing violation: %s for %s year %d", want.Code, want.Param, want.Year)
			} else {
				res.fail("missing violation: %s for %s", want.Code, want.Param)
			}
		}
	}

	if sc.Expect.ViolationCount != nil {
		total := 0
		for _, rep := range res.Reports {
			total += len(rep.Violations)
		}
		if total != *sc.Expect.ViolationCount {
			res.fail("expected %d violations, got %d", *sc.Expect.ViolationCount, total)
		}
	}

	if sc.Expect.Valid != nil {
		if got := reform.ChainValid(res.Reports); got != *sc.Expect.Valid {
			res.fail("expected chain valid=%t, got valid=%t", *sc.Expect.Valid, got)
		}
	}
}

func violationPresent(reports []reform.DocumentReport, want ViolationExpectation) bool {
	for _, rep := range reports {
		for _, v := range rep.Violations {
			if v.Param != want.Param || v.Code != want.Code {
				continue
			}
			if want.Year > 0 && v.Year != want.Year {
				continue
			}
			return true
		}
	}
	return false
}

// checkValues matches resolved cells against the scenario's value
// expectations. Expected values are coerced to the parameter's
// declared type before comparison, so integer literals match
// real-typed parameters.
func checkValues(res *Result, sc *Scenario, reg *registry.Registry) {
	if len(sc.Expect.Values) == 0 {
		return
	}
	if res.Schedule == nil {
		res.fail("cannot check %d expected values: no schedule was resolved", len(sc.Expect.Values))
		return
	}

	for _, want := range sc.Expect.Values {
		p, err := reg.Lookup(want.Param)
		if err != nil {
			res.fail("expected value for %s, which the catalogue does not define", want.Param)
			continue
		}

		expected, err := param.ConvertValue(want.Value)
		if err != nil {
			res.fail("expected value for %s year %d is not a parameter value: %v", want.Param, want.Year, err)
			continue
		}
		expected = param.Coerce(expected, p.Type)

		got, ok := res.Schedule.Value(want.Param, want.Year)
		if !ok {
			res.fail("schedule has no value for %s year %d", want.Param, want.Year)
			continue
		}
		if !param.Equal(got, expected) {
			res.fail("%s year %d: resolved %s, expected %s",
				want.Param, want.Year, param.Format(got), param.Format(expected))
		}
	}
}

// snapshotParams selects the parameters the rendered snapshot covers:
// everything the chain overrides plus everything the expectations
// name, restricted to what the schedule actually holds. Rendering the
// whole catalogue would drown the interesting rows.
func snapshotParams(sc *Scenario, chain []*reform.Document, sched *resolve.Schedule) []string {
	if sched == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, doc := range chain {
		for _, name := range doc.ParamNames() {
			seen[name] = true
		}
	}
	for _, want := range sc.Expect.Values {
		seen[want.Param] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		if sched.Has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
