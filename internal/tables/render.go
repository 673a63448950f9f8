package tables

import (
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/registry"
	"github.com/roach88/lawstack/internal/resolve"
)

// Renderer formats schedules for people. Whole-dollar amounts get digit
// grouping ("132,900"); rates stay compact decimals.
type Renderer struct {
	printer *message.Printer
}

// NewRenderer creates a Renderer with en-US digit grouping.
func NewRenderer() *Renderer {
	return &Renderer{printer: message.NewPrinter(language.AmericanEnglish)}
}

// Schedule writes every parameter of the schedule as a year/value block.
func (r *Renderer) Schedule(w io.Writer, reg *registry.Registry, sched *resolve.Schedule) error {
	fmt.Fprintf(w, "Resolved schedule %s (catalogue %s)\n\n",
		sched.Horizon(), sched.CatalogueVersion())
	for _, name := range sched.ParamNames() {
		if err := r.Param(w, reg, sched, name); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// Param writes one parameter's resolved series.
func (r *Renderer) Param(w io.Writer, reg *registry.Registry, sched *resolve.Schedule, name string) error {
	p, err := reg.Lookup(name)
	if err != nil {
		return err
	}
	if !sched.Has(name) {
		return fmt.Errorf("parameter %q enters in %d, after the schedule's horizon %s",
			name, p.MinYear, sched.Horizon())
	}

	fmt.Fprintf(w, "%s  (%s, %s)\n", p.Name, p.Shape, p.Type.Name())
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	for _, year := range sched.YearsFor(name) {
		v, _ := sched.Value(name, year)
		fmt.Fprintf(w, "  %d  %s\n", year, r.FormatValue(v))
	}
	return nil
}

// Catalogue writes the parameter listing, then the removed and redefined
// changelog notes.
func (r *Renderer) Catalogue(w io.Writer, reg *registry.Registry) {
	nameW := len("NAME")
	typeW := len("TYPE")
	for _, name := range reg.Names() {
		p, _ := reg.Lookup(name)
		nameW = max(nameW, len(p.Name))
		typeW = max(typeW, len(p.Type.Name()))
	}

	fmt.Fprintf(w, "%-*s  %-6s  %-*s  SINCE  DESCRIPTION\n", nameW, "NAME", "SHAPE", typeW, "TYPE")
	for _, name := range reg.Names() {
		p, _ := reg.Lookup(name)
		fmt.Fprintf(w, "%-*s  %-6s  %-*s  %5d  %s\n",
			nameW, p.Name, string(p.Shape), typeW, p.Type.Name(), p.MinYear, p.Description)
	}

	if removed := reg.RemovedNames(); len(removed) > 0 {
		fmt.Fprintf(w, "\nRemoved parameters:\n")
		for _, name := range removed {
			note, _ := reg.RemovedNote(name)
			fmt.Fprintf(w, "  %s: %s\n", name, note)
		}
	}
	if redefined := reg.RedefinedNames(); len(redefined) > 0 {
		fmt.Fprintf(w, "\nRedefined parameters:\n")
		for _, name := range redefined {
			note, _ := reg.RedefinedNote(name)
			fmt.Fprintf(w, "  %s: %s\n", name, note)
		}
	}
}

// FormatValue renders one value: booleans bare, whole numbers with digit
// grouping, fractional numbers as compact decimals, vectors bracketed.
func (r *Renderer) FormatValue(v param.Value) string {
	switch val := v.(type) {
	case param.Bool:
		return param.Format(val)
	case param.Int:
		return r.printer.Sprintf("%d", int64(val))
	case param.Real:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return r.printer.Sprintf("%d", int64(f))
		}
		return param.Format(val)
	case param.Vector:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = r.FormatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return param.Format(v)
	}
}
