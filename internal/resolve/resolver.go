package resolve

import (
	"fmt"
	"log/slog"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/registry"
)

// DefaultMaxSpan caps how many years one resolution may cover. Policy
// analysis rarely looks more than a few decades out; the cap keeps a
// mistyped horizon from allocating a schedule for millennia.
const DefaultMaxSpan = 200

// Resolver resolves parameter schedules against one catalogue.
type Resolver struct {
	reg     *registry.Registry
	maxSpan int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxSpan overrides the horizon span cap.
func WithMaxSpan(years int) Option {
	return func(r *Resolver) {
		r.maxSpan = years
	}
}

// New creates a Resolver over the given catalogue.
func New(reg *registry.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		reg:     reg,
		maxSpan: DefaultMaxSpan,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the parameter schedule for the horizon under the
// given baseline chain. An empty chain yields current law.
//
// Parameters whose inception year falls after the horizon end are left
// out of the schedule; parameters entering mid-horizon carry values
// from their inception year only.
//
// The chain must already have passed validation. A document naming an
// unknown parameter fails resolution with the catalogue's lookup error.
func (r *Resolver) Resolve(chain []*reform.Document, h Horizon) (*Schedule, error) {
	if err := r.checkHorizon(h); err != nil {
		return nil, err
	}

	slog.Debug("resolving schedule",
		"horizon", h.String(),
		"documents", len(chain),
		"catalogue", r.reg.Version(),
	)

	values := make(map[string]map[int]param.Value)
	for _, name := range r.reg.Names() {
		p, err := r.reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		if p.MinYear > h.End {
			continue
		}
		row := make(map[int]param.Value)
		for y := max(h.Start, p.MinYear); y <= h.End; y++ {
			// Defaults start at the inception year, so the lookup
			// cannot miss.
			v, _ := p.Defaults.At(y)
			row[y] = v
		}
		values[name] = row
	}

	for _, doc := range chain {
		if err := r.apply(values, doc, h); err != nil {
			return nil, err
		}
	}

	sched := newSchedule(h, r.reg.Version(), values)

	slog.Info("schedule resolved",
		"horizon", h.String(),
		"params", sched.Len(),
		"documents", len(chain),
	)
	return sched, nil
}

// apply layers one document's overrides onto the evolving schedule.
func (r *Resolver) apply(values map[string]map[int]param.Value, doc *reform.Document, h Horizon) error {
	slog.Debug("applying document",
		"source", doc.Source,
		"overrides", doc.Len(),
	)

	for _, name := range doc.ParamNames() {
		p, err := r.reg.Lookup(name)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.Source, err)
		}
		row := values[name]
		if row == nil {
			// Inception after the horizon end; nothing to change.
			continue
		}
		for _, year := range doc.OverrideYears(name) {
			if year > h.End {
				continue
			}
			ov, _ := doc.Override(name, year)
			ov = param.Coerce(ov, p.Type)
			for y := max(year, max(h.Start, p.MinYear)); y <= h.End; y++ {
				row[y] = param.Copy(ov)
			}
		}
	}
	return nil
}

func (r *Resolver) checkHorizon(h Horizon) error {
	switch {
	case h.Start <= 0 || h.End <= 0:
		return &HorizonError{Horizon: h, Reason: "years must be positive"}
	case h.Start > h.End:
		return &HorizonError{Horizon: h,
			Reason: fmt.Sprintf("start year %d is after end year %d", h.Start, h.End)}
	case h.End < r.reg.EarliestYear():
		return &HorizonError{Horizon: h,
			Reason: fmt.Sprintf("ends before the catalogue begins in %d", r.reg.EarliestYear())}
	case h.Span() > r.maxSpan:
		return &HorizonError{Horizon: h,
			Reason: fmt.Sprintf("span of %d years exceeds the %d-year limit", h.Span(), r.maxSpan)}
	}
	return nil
}
