package tables

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/resolve"
)

// scheduleJSON is the machine-readable schedule shape. encoding/json
// sorts map keys, and four-digit year keys sort numerically, so the
// output is deterministic for a given schedule.
type scheduleJSON struct {
	Horizon          horizonJSON                           `json:"horizon"`
	CatalogueVersion string                                `json:"catalogue_version"`
	Parameters       map[string]map[string]json.RawMessage `json:"parameters"`
}

type horizonJSON struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MarshalSchedule encodes a schedule as indented JSON with parameters
// sorted and years ascending.
func MarshalSchedule(sched *resolve.Schedule) ([]byte, error) {
	params := make(map[string]map[string]json.RawMessage, sched.Len())
	for _, name := range sched.ParamNames() {
		row := make(map[string]json.RawMessage)
		for _, year := range sched.YearsFor(name) {
			v, _ := sched.Value(name, year)
			b, err := param.MarshalValue(v)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", name, year, err)
			}
			row[strconv.Itoa(year)] = b
		}
		params[name] = row
	}

	out := scheduleJSON{
		Horizon: horizonJSON{
			Start: sched.Horizon().Start,
			End:   sched.Horizon().End,
		},
		CatalogueVersion: sched.CatalogueVersion(),
		Parameters:       params,
	}
	return json.MarshalIndent(out, "", "  ")
}
