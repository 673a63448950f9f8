package registry

import (
	_ "embed"
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/lawstack/internal/param"
)

//go:embed schema.cue
var schemaCUE string

//go:embed current_law.cue
var currentLawCUE string

// CatalogueError reports a defect in a catalogue source with its CUE
// position when one is available.
type CatalogueError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CatalogueError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load compiles the embedded current-law catalogue.
func Load() (*Registry, error) {
	return LoadSource("current_law.cue", currentLawCUE)
}

// LoadSource compiles a catalogue from caller-provided CUE source against
// the embedded schema. Used for scenario catalogues in conformance tests.
func LoadSource(filename, src string) (*Registry, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	data := ctx.CompileString(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.Unify(data)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, formatCUEError(err)
	}

	return decodeCatalogue(v)
}

// decodeCatalogue walks the validated CUE value into a Registry.
func decodeCatalogue(v cue.Value) (*Registry, error) {
	version, err := v.LookupPath(cue.ParsePath("version")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	paramsVal := v.LookupPath(cue.ParsePath("parameter"))
	if !paramsVal.Exists() {
		return nil, &CatalogueError{
			Field:   "parameter",
			Message: "catalogue defines no parameters",
			Pos:     v.Pos(),
		}
	}

	iter, err := paramsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	params := make(map[string]*Parameter)
	for iter.Next() {
		name := iter.Label()
		p, err := decodeParameter(name, iter.Value())
		if err != nil {
			return nil, err
		}
		params[name] = p
	}
	if len(params) == 0 {
		return nil, &CatalogueError{
			Field:   "parameter",
			Message: "catalogue defines no parameters",
			Pos:     paramsVal.Pos(),
		}
	}

	removed, err := decodeNotes(v, "removed")
	if err != nil {
		return nil, err
	}
	redefined, err := decodeNotes(v, "redefined")
	if err != nil {
		return nil, err
	}

	reg := newRegistry(version, params, removed, redefined)
	if err := checkConsistency(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func decodeParameter(name string, v cue.Value) (*Parameter, error) {
	p := &Parameter{Name: name}

	desc, err := v.LookupPath(cue.ParsePath("description")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.Description = desc

	shapeStr, err := v.LookupPath(cue.ParsePath("shape")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.Shape, err = param.ParseShape(shapeStr)
	if err != nil {
		return nil, &CatalogueError{Field: name + ".shape", Message: err.Error(), Pos: v.Pos()}
	}

	typeStr, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.Type, err = param.ParseType(typeStr)
	if err != nil {
		return nil, &CatalogueError{Field: name + ".type", Message: err.Error(), Pos: v.Pos()}
	}

	minYear, err := v.LookupPath(cue.ParsePath("min_year")).Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.MinYear = int(minYear)

	if lengthVal := v.LookupPath(cue.ParsePath("length")); lengthVal.Exists() {
		n, err := lengthVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.VectorLen = int(n)
	}
	if fromVal := v.LookupPath(cue.ParsePath("length_from")); fromVal.Exists() {
		from, err := fromVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.LengthFrom = from
	}

	if boundsVal := v.LookupPath(cue.ParsePath("bounds")); boundsVal.Exists() {
		b, err := decodeBounds(name, boundsVal)
		if err != nil {
			return nil, err
		}
		p.Bounds = b
	}

	defaults, err := decodeDefaults(name, p.Type, v.LookupPath(cue.ParsePath("defaults")))
	if err != nil {
		return nil, err
	}
	p.Defaults = defaults

	return p, nil
}

func decodeBounds(name string, v cue.Value) (*Bounds, error) {
	b := &Bounds{}

	if minVal := v.LookupPath(cue.ParsePath("min")); minVal.Exists() {
		f, err := minVal.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		b.Min = &f
	}
	if maxVal := v.LookupPath(cue.ParsePath("max")); maxVal.Exists() {
		f, err := maxVal.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		b.Max = &f
	}

	action, err := v.LookupPath(cue.ParsePath("action")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	b.Action = BoundsAction(action)

	if b.Min == nil && b.Max == nil {
		return nil, &CatalogueError{
			Field:   name + ".bounds",
			Message: "bounds require at least one of min, max",
			Pos:     v.Pos(),
		}
	}
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return nil, &CatalogueError{
			Field:   name + ".bounds",
			Message: fmt.Sprintf("min %v exceeds max %v", *b.Min, *b.Max),
			Pos:     v.Pos(),
		}
	}
	return b, nil
}

// decodeDefaults decodes the sparse default series, normalizing integer
// literals to the parameter's declared type so lookups always yield the
// declared kind.
func decodeDefaults(name string, typ param.Type, v cue.Value) (*param.Series, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	points := make(map[int]param.Value)
	for iter.Next() {
		label := iter.Label()
		year, err := strconv.Atoi(label)
		if err != nil {
			return nil, &CatalogueError{
				Field:   name + ".defaults",
				Message: fmt.Sprintf("year key %q is not an integer", label),
				Pos:     iter.Value().Pos(),
			}
		}
		pv, err := decodeValue(iter.Value())
		if err != nil {
			return nil, &CatalogueError{
				Field:   fmt.Sprintf("%s.defaults[%d]", name, year),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		points[year] = param.Coerce(pv, typ)
	}

	series, err := param.NewSeries(points)
	if err != nil {
		return nil, &CatalogueError{
			Field:   name + ".defaults",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return series, nil
}

// decodeValue converts a concrete CUE value into the param value model,
// preserving the integer/real distinction of the literal.
func decodeValue(v cue.Value) (param.Value, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return param.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return param.Int(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return param.Real(f), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var vec param.Vector
		for iter.Next() {
			elem, err := decodeValue(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("vector[%d]: %w", len(vec), err)
			}
			vec = append(vec, elem)
		}
		return vec, nil
	default:
		return nil, fmt.Errorf("unsupported value kind: %v", v.Kind())
	}
}

func decodeNotes(v cue.Value, path string) (map[string]string, error) {
	notes := make(map[string]string)
	notesVal := v.LookupPath(cue.ParsePath(path))
	if !notesVal.Exists() {
		return notes, nil
	}

	iter, err := notesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		note, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		notes[iter.Label()] = note
	}
	return notes, nil
}

// checkConsistency enforces the catalogue invariants that the CUE schema
// cannot express: series start at inception, vector lengths line up,
// length_from references resolve, changelog names do not collide with live
// entries.
func checkConsistency(r *Registry) error {
	for _, name := range r.names {
		p := r.params[name]

		if p.Defaults.FirstYear() != p.MinYear {
			return &CatalogueError{
				Field: name + ".defaults",
				Message: fmt.Sprintf("series starts at %d, min_year is %d",
					p.Defaults.FirstYear(), p.MinYear),
			}
		}

		switch p.Shape {
		case param.ShapeScalar:
			if p.VectorLen != 0 || p.LengthFrom != "" {
				return &CatalogueError{
					Field:   name,
					Message: "scalar parameters cannot declare length or length_from",
				}
			}
		case param.ShapeVector:
			if err := resolveVectorLen(r, p); err != nil {
				return err
			}
		}

		for _, year := range p.Defaults.Years() {
			v, _ := p.Defaults.Explicit(year)
			if err := checkDefaultValue(p, year, v); err != nil {
				return err
			}
		}
	}

	for name := range r.removed {
		if r.Has(name) {
			return &CatalogueError{
				Field:   "removed",
				Message: fmt.Sprintf("%q is marked removed but still has a catalogue entry", name),
			}
		}
	}
	for name := range r.redefined {
		if !r.Has(name) {
			return &CatalogueError{
				Field:   "redefined",
				Message: fmt.Sprintf("%q is marked redefined but has no catalogue entry", name),
			}
		}
	}
	return nil
}

func resolveVectorLen(r *Registry, p *Parameter) error {
	if p.VectorLen != 0 && p.LengthFrom != "" {
		return &CatalogueError{
			Field:   p.Name,
			Message: "length and length_from are mutually exclusive",
		}
	}
	if p.VectorLen == 0 && p.LengthFrom == "" {
		return &CatalogueError{
			Field:   p.Name,
			Message: "vector parameters require length or length_from",
		}
	}
	if p.LengthFrom != "" {
		ref, ok := r.params[p.LengthFrom]
		if !ok {
			return &CatalogueError{
				Field:   p.Name + ".length_from",
				Message: fmt.Sprintf("references unknown parameter %q", p.LengthFrom),
			}
		}
		if ref.Shape != param.ShapeVector || ref.VectorLen == 0 {
			return &CatalogueError{
				Field:   p.Name + ".length_from",
				Message: fmt.Sprintf("%q does not declare a literal vector length", p.LengthFrom),
			}
		}
		p.VectorLen = ref.VectorLen
	}
	return nil
}

func checkDefaultValue(p *Parameter, year int, v param.Value) error {
	fail := func(msg string) error {
		return &CatalogueError{
			Field:   fmt.Sprintf("%s.defaults[%d]", p.Name, year),
			Message: msg,
		}
	}

	switch p.Shape {
	case param.ShapeScalar:
		if _, ok := v.(param.Vector); ok {
			return fail("scalar parameter has a vector default")
		}
		if !p.Type.Admits(v) {
			return fail(fmt.Sprintf("default is %s, want %s", param.KindName(v), p.Type.Name()))
		}
	case param.ShapeVector:
		vec, ok := v.(param.Vector)
		if !ok {
			return fail("vector parameter has a scalar default")
		}
		if len(vec) != p.VectorLen {
			return fail(fmt.Sprintf("default has %d elements, want %d", len(vec), p.VectorLen))
		}
		for i, elem := range vec {
			if !p.Type.Admits(elem) {
				return fail(fmt.Sprintf("element %d is %s, want %s", i, param.KindName(elem), p.Type.Name()))
			}
		}
	}

	if p.Type == param.TypeRatio {
		for _, s := range scalars(v) {
			f := asFloat(s)
			if f < 0 || f > 1 {
				return fail(fmt.Sprintf("ratio default %v outside [0, 1]", f))
			}
		}
	}
	return nil
}

func scalars(v param.Value) []param.Value {
	if vec, ok := v.(param.Vector); ok {
		return vec
	}
	return []param.Value{v}
}

func asFloat(v param.Value) float64 {
	switch s := v.(type) {
	case param.Real:
		return float64(s)
	case param.Int:
		return float64(s)
	default:
		return 0
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CatalogueError{
			Field:   "catalogue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
