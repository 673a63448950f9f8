package reform

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/roach88/lawstack/internal/param"
)

// Domain prefix for content-addressed document identity.
// Version suffix enables future algorithm migration.
const domainDocument = "lawstack/reform/v1"

// Metadata carries the informational comment headers of a reform file.
// Nothing here influences resolution.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
}

// Document is one parsed reform: a sparse mapping from parameter name to
// year to override value, plus an optional baseline reference. Immutable
// after construction; accessors return copies in deterministic order.
type Document struct {
	// Source identifies where the document came from, for error reporting
	// and provenance. A file path or a logical name.
	Source string

	// BaselineRef names the document to resolve before this one. Empty
	// means current law (the registry defaults).
	BaselineRef string

	Meta Metadata

	overrides map[string]map[int]param.Value
	names     []string
	id        string
}

// NewDocument builds a document from an already-normalized override
// mapping (one value per year, no multi-year lists). The mapping is
// copied.
func NewDocument(source string, overrides map[string]map[int]param.Value, baselineRef string) *Document {
	doc := &Document{
		Source:      source,
		BaselineRef: baselineRef,
		overrides:   make(map[string]map[int]param.Value, len(overrides)),
	}
	for name, years := range overrides {
		row := make(map[int]param.Value, len(years))
		for year, v := range years {
			row[year] = param.Copy(v)
		}
		doc.overrides[name] = row
		doc.names = append(doc.names, name)
	}
	sort.Strings(doc.names)
	doc.id = hashDocument(doc)
	return doc
}

// ID returns the content-addressed identity of the document: a
// domain-separated SHA-256 over the canonical wire encoding. Stable across
// re-parses of the same provisions regardless of key order or comments.
func (d *Document) ID() string {
	return d.id
}

// ParamNames returns the overridden parameter names in sorted order.
func (d *Document) ParamNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// OverrideYears returns the years overridden for a parameter, ascending.
func (d *Document) OverrideYears(name string) []int {
	row := d.overrides[name]
	years := make([]int, 0, len(row))
	for y := range row {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Override returns the override value for (name, year), if any.
func (d *Document) Override(name string, year int) (param.Value, bool) {
	v, ok := d.overrides[name][year]
	if !ok {
		return nil, false
	}
	return param.Copy(v), true
}

// Len returns the total number of (parameter, year) overrides.
func (d *Document) Len() int {
	n := 0
	for _, row := range d.overrides {
		n += len(row)
	}
	return n
}

// Encode renders the document back to the wire format: one "policy"
// object, parameters sorted, years ascending, every value list-wrapped.
// Comment headers are not reproduced.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"policy": {`)

	for i, name := range d.names {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%q: {", name)
		for j, year := range d.OverrideYears(name) {
			if j > 0 {
				buf.WriteString(", ")
			}
			v := d.overrides[name][year]
			vb, err := param.MarshalValue(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s[%d]: %w", name, year, err)
			}
			fmt.Fprintf(&buf, "%q: [%s]", strconv.Itoa(year), vb)
		}
		buf.WriteByte('}')
	}

	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// hashDocument computes SHA256(domain + 0x00 + canonical encoding).
// The null separator prevents domain/data boundary ambiguity.
func hashDocument(d *Document) string {
	encoded, err := d.Encode()
	if err != nil {
		// Encode only fails on values outside the sealed set, which the
		// parser and NewDocument never produce.
		panic(fmt.Sprintf("hashDocument: %v", err))
	}
	h := sha256.New()
	h.Write([]byte(domainDocument))
	h.Write([]byte{0x00})
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil))
}
