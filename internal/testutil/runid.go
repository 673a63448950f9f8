package testutil

// FixedRunID generates the same run ID every time.
//
// This enables deterministic golden snapshot comparison: the same
// scenario with the same FixedRunID produces byte-identical records.
//
// Unlike store.FixedGenerator, which returns IDs in sequence and panics
// when exhausted, this generator always returns the same ID. This is
// useful for scenarios that save exactly one run.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator that always returns id.
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
//
// Implements the store.RunIDGenerator interface.
func (g *FixedRunID) Generate() string {
	return g.id
}
