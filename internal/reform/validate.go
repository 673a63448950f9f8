package reform

import (
	"fmt"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/registry"
)

// Validation codes (E200-E299)
const (
	// Per-parameter defects (reported once per parameter)
	ErrUnknownParameter    = "E201" // name has no catalogue entry
	ErrRemovedParameter    = "E202" // name was deleted in an earlier release
	WarnRedefinedParameter = "E208" // name's meaning changed in an earlier release

	// Per-(parameter, year) defects
	ErrYearOutOfRange    = "E203" // year before inception or not a positive calendar year
	ErrTypeMismatch      = "E204" // value kind does not match declared shape/type
	ErrVectorLength      = "E205" // vector override has the wrong element count
	ErrRangeViolation    = "E206" // value outside a hard bound
	WarnImplausibleValue = "E207" // value outside a plausibility bound
)

// Severity distinguishes defects that invalidate a document from
// advisories that do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one validation defect. Year is zero for defects that apply
// to the parameter as a whole.
type Violation struct {
	Param    string   `json:"param"`
	Year     int      `json:"year,omitempty"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	if v.Year > 0 {
		return fmt.Sprintf("[%s] %s year %d: %s", v.Code, v.Param, v.Year, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Param, v.Message)
}

// HasErrors reports whether any violation carries error severity.
// Warnings alone leave a document usable.
func HasErrors(viols []Violation) bool {
	for _, v := range viols {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks every override of a document against the catalogue.
// It collects all defects rather than failing fast, so a caller sees the
// complete picture in one pass. Violations come out in deterministic
// order: parameters sorted, years ascending.
func Validate(reg *registry.Registry, doc *Document) []Violation {
	var viols []Violation

	for _, name := range doc.ParamNames() {
		if note, ok := reg.RemovedNote(name); ok {
			viols = append(viols, Violation{
				Param:    name,
				Code:     ErrRemovedParameter,
				Severity: SeverityError,
				Message:  note,
			})
			continue
		}

		p, err := reg.Lookup(name)
		if err != nil {
			viols = append(viols, Violation{
				Param:    name,
				Code:     ErrUnknownParameter,
				Severity: SeverityError,
				Message:  "is not a known policy parameter",
			})
			continue
		}

		if note, ok := reg.RedefinedNote(name); ok {
			viols = append(viols, Violation{
				Param:    name,
				Code:     WarnRedefinedParameter,
				Severity: SeverityWarning,
				Message:  note,
			})
		}

		for _, year := range doc.OverrideYears(name) {
			v, _ := doc.Override(name, year)
			viols = append(viols, validateOverride(p, year, v)...)
		}
	}

	return viols
}

// DocumentReport pairs one document of a chain with its violations.
type DocumentReport struct {
	Source     string      `json:"source"`
	Violations []Violation `json:"violations"`
}

// Valid reports whether the document may contribute to resolution.
func (r DocumentReport) Valid() bool {
	return !HasErrors(r.Violations)
}

// ValidateChain validates every document of a chain in layering order.
func ValidateChain(reg *registry.Registry, chain []*Document) []DocumentReport {
	reports := make([]DocumentReport, len(chain))
	for i, doc := range chain {
		reports[i] = DocumentReport{
			Source:     doc.Source,
			Violations: Validate(reg, doc),
		}
	}
	return reports
}

// ChainValid reports whether every document in the chain is usable.
func ChainValid(reports []DocumentReport) bool {
	for _, r := range reports {
		if !r.Valid() {
			return false
		}
	}
	return true
}

// validateOverride checks one (parameter, year, value) triple.
func validateOverride(p *registry.Parameter, year int, v param.Value) []Violation {
	var viols []Violation

	fail := func(code string, sev Severity, msg string) {
		viols = append(viols, Violation{
			Param:    p.Name,
			Year:     year,
			Code:     code,
			Severity: sev,
			Message:  msg,
		})
	}

	if year <= 0 {
		fail(ErrYearOutOfRange, SeverityError,
			fmt.Sprintf("%d is not a positive calendar year", year))
		return viols
	}
	if year < p.MinYear {
		fail(ErrYearOutOfRange, SeverityError,
			fmt.Sprintf("before the parameter's inception year %d", p.MinYear))
	}

	switch p.Shape {
	case param.ShapeScalar:
		if _, isVec := v.(param.Vector); isVec {
			fail(ErrTypeMismatch, SeverityError,
				fmt.Sprintf("override is a vector, want %s", p.Type.Name()))
			return viols
		}
		if !p.Type.Admits(v) {
			fail(ErrTypeMismatch, SeverityError,
				fmt.Sprintf("override is %s, want %s", param.KindName(v), p.Type.Name()))
			return viols
		}
	case param.ShapeVector:
		vec, isVec := v.(param.Vector)
		if !isVec {
			fail(ErrTypeMismatch, SeverityError,
				fmt.Sprintf("override is %s, want a vector of %s", param.KindName(v), p.Type.Name()))
			return viols
		}
		if len(vec) != p.VectorLen {
			fail(ErrVectorLength, SeverityError,
				fmt.Sprintf("override has %d elements, want %d", len(vec), p.VectorLen))
			return viols
		}
		for i, elem := range vec {
			if !p.Type.Admits(elem) {
				fail(ErrTypeMismatch, SeverityError,
					fmt.Sprintf("element %d is %s, want %s", i, param.KindName(elem), p.Type.Name()))
				return viols
			}
		}
	}

	viols = append(viols, checkRanges(p, year, v)...)
	return viols
}

// checkRanges applies the intrinsic ratio bound and any catalogue bounds.
// Values are within-kind at this point.
func checkRanges(p *registry.Parameter, year int, v param.Value) []Violation {
	var viols []Violation

	fail := func(code string, sev Severity, msg string) {
		viols = append(viols, Violation{
			Param:    p.Name,
			Year:     year,
			Code:     code,
			Severity: sev,
			Message:  msg,
		})
	}

	for _, s := range scalarElements(v) {
		f, ok := scalarFloat(s)
		if !ok {
			continue
		}

		if p.Type == param.TypeRatio && (f < 0 || f > 1) {
			fail(ErrRangeViolation, SeverityError,
				fmt.Sprintf("ratio %s outside [0, 1]", param.Format(s)))
			continue
		}

		if p.Bounds == nil {
			continue
		}
		code, sev := ErrRangeViolation, SeverityError
		qualifier := ""
		if p.Bounds.Action == registry.BoundsWarn {
			code, sev = WarnImplausibleValue, SeverityWarning
			qualifier = "plausible "
		}
		if p.Bounds.Min != nil && f < *p.Bounds.Min {
			fail(code, sev, fmt.Sprintf("value %s below %sminimum %v",
				param.Format(s), qualifier, *p.Bounds.Min))
		}
		if p.Bounds.Max != nil && f > *p.Bounds.Max {
			fail(code, sev, fmt.Sprintf("value %s exceeds %smaximum %v",
				param.Format(s), qualifier, *p.Bounds.Max))
		}
	}

	return viols
}

func scalarElements(v param.Value) []param.Value {
	if vec, ok := v.(param.Vector); ok {
		return vec
	}
	return []param.Value{v}
}

func scalarFloat(v param.Value) (float64, bool) {
	switch s := v.(type) {
	case param.Real:
		return float64(s), true
	case param.Int:
		return float64(s), true
	default:
		return 0, false
	}
}
