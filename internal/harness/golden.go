package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares its rendered snapshot
// against testdata/golden/{scenario.Name}.golden. Regenerate with
//
//	go test ./internal/harness -update
//
// The returned error covers scenario defects, as in Run; expectation
// and snapshot mismatches fail t.
func RunWithGolden(t *testing.T, sc *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, res.Snapshot())
	return res, nil
}
