package resolve

import (
	"sort"

	"github.com/roach88/lawstack/internal/param"
)

// Schedule is a fully resolved parameter schedule: one value per
// (parameter, year) over the horizon. Schedules are immutable after
// construction; accessors return copies.
type Schedule struct {
	horizon Horizon
	version string
	names   []string
	values  map[string]map[int]param.Value
}

func newSchedule(h Horizon, version string, values map[string]map[int]param.Value) *Schedule {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Schedule{
		horizon: h,
		version: version,
		names:   names,
		values:  values,
	}
}

// Horizon returns the year range the schedule covers.
func (s *Schedule) Horizon() Horizon {
	return s.horizon
}

// CatalogueVersion returns the catalogue version the schedule was
// resolved against.
func (s *Schedule) CatalogueVersion() string {
	return s.version
}

// Len returns the number of parameters in the schedule.
func (s *Schedule) Len() int {
	return len(s.names)
}

// ParamNames returns the scheduled parameter names in sorted order.
func (s *Schedule) ParamNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Has reports whether the schedule covers the named parameter.
func (s *Schedule) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// YearsFor returns the years the named parameter is scheduled for, in
// ascending order. A parameter entering mid-horizon starts at its
// inception year.
func (s *Schedule) YearsFor(name string) []int {
	row, ok := s.values[name]
	if !ok {
		return nil
	}
	years := make([]int, 0, len(row))
	for y := range row {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Value returns the resolved value for one (parameter, year) cell.
func (s *Schedule) Value(name string, year int) (param.Value, bool) {
	row, ok := s.values[name]
	if !ok {
		return nil, false
	}
	v, ok := row[year]
	if !ok {
		return nil, false
	}
	return param.Copy(v), true
}
