package resolve

import (
	"fmt"
	"strconv"
	"strings"
)

// Horizon is the inclusive year range a schedule is resolved over.
type Horizon struct {
	Start int
	End   int
}

// String renders the horizon as "START-END".
func (h Horizon) String() string {
	return fmt.Sprintf("%d-%d", h.Start, h.End)
}

// Span returns the number of years in the horizon.
func (h Horizon) Span() int {
	return h.End - h.Start + 1
}

// Contains reports whether year falls inside the horizon.
func (h Horizon) Contains(year int) bool {
	return year >= h.Start && year <= h.End
}

// Years returns every year of the horizon in ascending order.
func (h Horizon) Years() []int {
	years := make([]int, 0, h.Span())
	for y := h.Start; y <= h.End; y++ {
		years = append(years, y)
	}
	return years
}

// ParseHorizon parses "START-END" or a single year, e.g. "2018-2021"
// or "2020".
func ParseHorizon(s string) (Horizon, error) {
	first, second, ranged := strings.Cut(s, "-")

	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return Horizon{}, fmt.Errorf("invalid year range %q: want START-END", s)
	}
	if !ranged {
		return Horizon{Start: start, End: start}, nil
	}

	end, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return Horizon{}, fmt.Errorf("invalid year range %q: want START-END", s)
	}
	return Horizon{Start: start, End: end}, nil
}

// HorizonError reports a resolution request whose year range cannot be
// satisfied.
type HorizonError struct {
	Horizon Horizon
	Reason  string
}

// Error implements the error interface.
func (e *HorizonError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %s", e.Horizon, e.Reason)
}
