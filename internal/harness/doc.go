// Package harness runs conformance scenarios against the resolution
// engine.
//
// A scenario is a YAML document bundling everything one end-to-end case
// needs: an optional inline catalogue (CUE source, standing in for the
// embedded current-law catalogue), named reform documents in their wire
// format, the requested document, a year horizon, and expectations.
// The runner builds the registry, parses the documents, constructs the
// baseline chain, validates it, resolves the schedule, and diffs the
// outcome against the expectations.
//
// Expectations cover the three ways a scenario can end:
//
//   - values: resolved (parameter, year, value) cells
//   - violations / violation_count / valid: the validation report
//   - chain_error: baseline chain construction failure (cyclic or
//     unresolved)
//
// Scenario files live in testdata/scenarios. Each scenario also has a
// golden snapshot of its rendered outcome under testdata/golden,
// compared with goldie; regenerate with
//
//	go test ./internal/harness -update
package harness
