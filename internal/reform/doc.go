// Package reform parses, chains, and validates reform documents: sparse
// year-indexed overrides to named policy parameters.
//
// The wire format is JSON with // comment lines. The body holds exactly one
// top-level key, "policy", mapping parameter names to objects whose keys
// are 4-digit year strings and whose values are non-empty JSON arrays. The
// list form is mandatory even for scalars:
//
//	// Title: Payroll surtax expansion
//	// Reform_Baseline: 2017_law.json
//	{"policy": {
//	    "SS_Earnings_thd": {"2020": [250000]},
//	    "STD": {"2020": [[12400, 24800, 12400, 18650, 24800]]}
//	}}
//
// A multi-element list spans consecutive years starting at the year key, so
// {"2019": [a, b]} sets 2019 and 2020. Vector parameters nest one level:
// each list element is itself the full vector for one year.
//
// Leading comment lines may carry Title, Author, Reference, Description,
// and Baseline headers. Only the baseline reference affects behavior: it
// names the document to resolve first, defaulting to current law. Chains
// are built by an iterative cycle-checked walk of baseline references.
//
// Validation is exhaustive per document. Every defect is reported as a
// coded Violation; a document with any error-severity violation must not
// contribute overrides to resolution.
package reform
