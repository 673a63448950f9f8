package param

import (
	"fmt"
	"sort"
)

// Series is a sparse, immutable year-indexed value series with forward-fill
// lookup: the value at a year is the value at the latest specified year at
// or before it. Years are held sorted so iteration order is never
// incidental map order.
type Series struct {
	years  []int
	values map[int]Value
}

// NewSeries builds a Series from a sparse year map. The input is copied;
// the Series never aliases caller storage. At least one year is required.
func NewSeries(points map[int]Value) (*Series, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("series requires at least one year")
	}
	years := make([]int, 0, len(points))
	values := make(map[int]Value, len(points))
	for y, v := range points {
		if v == nil {
			return nil, fmt.Errorf("series year %d has nil value", y)
		}
		years = append(years, y)
		values[y] = Copy(v)
	}
	sort.Ints(years)
	return &Series{years: years, values: values}, nil
}

// MustSeries is NewSeries for static construction in tests and fixtures.
// Panics on error.
func MustSeries(points map[int]Value) *Series {
	s, err := NewSeries(points)
	if err != nil {
		panic(fmt.Sprintf("MustSeries: %v", err))
	}
	return s
}

// FirstYear returns the earliest specified year.
func (s *Series) FirstYear() int {
	return s.years[0]
}

// Years returns the specified years in ascending order. The slice is a
// copy.
func (s *Series) Years() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// At resolves the series at a year under forward-fill. Returns false when
// the year precedes the first specified year.
func (s *Series) At(year int) (Value, bool) {
	// Find the latest specified year <= year.
	idx := sort.SearchInts(s.years, year+1) - 1
	if idx < 0 {
		return nil, false
	}
	return Copy(s.values[s.years[idx]]), true
}

// Explicit returns the value specified exactly at year, if any.
func (s *Series) Explicit(year int) (Value, bool) {
	v, ok := s.values[year]
	if !ok {
		return nil, false
	}
	return Copy(v), true
}
