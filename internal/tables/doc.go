// Package tables renders resolved schedules and catalogue listings,
// either as fixed-width text for terminals or as deterministic JSON for
// machine consumers.
package tables
