// Package registry holds the immutable catalogue of known policy
// parameters: name, shape, type, year range, plausibility bounds, and the
// default time series under current law. The catalogue is compiled from an
// embedded CUE source at process start and is read-only afterward, so a
// single Registry is safe to share across concurrent resolutions.
package registry

import (
	"fmt"
	"sort"

	"github.com/roach88/lawstack/internal/param"
)

// BoundsAction selects how a bounds violation is reported.
type BoundsAction string

const (
	// BoundsWarn reports values outside the bounds as warnings; the
	// document remains usable.
	BoundsWarn BoundsAction = "warn"
	// BoundsStop reports values outside the bounds as errors.
	BoundsStop BoundsAction = "stop"
)

// Bounds is an optional plausibility range on a parameter's values.
// Ratio-typed parameters additionally carry an intrinsic hard [0, 1] bound
// that does not appear here.
type Bounds struct {
	Min    *float64
	Max    *float64
	Action BoundsAction
}

// Parameter describes one catalogue entry. Immutable after registry
// construction.
type Parameter struct {
	Name        string
	Description string
	Shape       param.Shape
	Type        param.Type
	MinYear     int

	// VectorLen is the required element count for vector parameters,
	// already resolved when the catalogue declared it via length_from.
	// Zero for scalars.
	VectorLen int
	// LengthFrom names the parameter VectorLen was derived from, when it
	// was. Informational.
	LengthFrom string

	Bounds   *Bounds
	Defaults *param.Series
}

// UnknownParameterError reports a name with no catalogue entry.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %q", e.Name)
}

// Registry is the read-only parameter catalogue.
type Registry struct {
	version   string
	params    map[string]*Parameter
	names     []string
	removed   map[string]string
	redefined map[string]string
	minYear   int
}

func newRegistry(version string, params map[string]*Parameter, removed, redefined map[string]string) *Registry {
	names := make([]string, 0, len(params))
	minYear := 0
	for name, p := range params {
		names = append(names, name)
		if minYear == 0 || p.MinYear < minYear {
			minYear = p.MinYear
		}
	}
	sort.Strings(names)
	return &Registry{
		version:   version,
		params:    params,
		names:     names,
		removed:   removed,
		redefined: redefined,
		minYear:   minYear,
	}
}

// Version returns the catalogue release identifier.
func (r *Registry) Version() string {
	return r.version
}

// Len returns the number of catalogue entries.
func (r *Registry) Len() int {
	return len(r.params)
}

// Names returns all parameter names in sorted order. The slice is a copy.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Has reports whether a parameter exists in the catalogue.
func (r *Registry) Has(name string) bool {
	_, ok := r.params[name]
	return ok
}

// Lookup returns the catalogue entry for name, or UnknownParameterError.
func (r *Registry) Lookup(name string) (*Parameter, error) {
	p, ok := r.params[name]
	if !ok {
		return nil, &UnknownParameterError{Name: name}
	}
	return p, nil
}

// DefaultValue resolves a parameter's current-law value at year by
// forward-fill over its default series. Defined for any year at or after
// the parameter's inception.
func (r *Registry) DefaultValue(name string, year int) (param.Value, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	v, ok := p.Defaults.At(year)
	if !ok {
		return nil, fmt.Errorf("parameter %q is not defined before %d", name, p.MinYear)
	}
	return v, nil
}

// EarliestYear returns the earliest inception year across the catalogue.
func (r *Registry) EarliestYear() int {
	return r.minYear
}

// RemovedNote returns the changelog note for a parameter deleted in an
// earlier catalogue release.
func (r *Registry) RemovedNote(name string) (string, bool) {
	note, ok := r.removed[name]
	return note, ok
}

// RedefinedNote returns the changelog note for a parameter whose meaning
// changed in an earlier catalogue release. The parameter itself is still
// live.
func (r *Registry) RedefinedNote(name string) (string, bool) {
	note, ok := r.redefined[name]
	return note, ok
}

// RemovedNames returns the names of parameters deleted in earlier
// releases, sorted.
func (r *Registry) RemovedNames() []string {
	return sortedKeys(r.removed)
}

// RedefinedNames returns the names of parameters redefined in earlier
// releases, sorted.
func (r *Registry) RedefinedNames() []string {
	return sortedKeys(r.redefined)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
