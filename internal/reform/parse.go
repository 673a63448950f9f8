package reform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/lawstack/internal/param"
)

// ParseError reports a malformed document body: not valid JSON once
// comments are stripped.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: malformed reform document: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: malformed reform document: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports a structurally valid JSON body that violates the
// required {"policy": {...}} / list-wrapped-value shape.
type SchemaError struct {
	Source string
	Msg    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

// Load reads and parses a reform document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load reform document: %w", err)
	}
	return Parse(path, data)
}

// Parse parses a reform document from its wire form. The source string
// identifies the origin in errors and provenance.
func Parse(source string, data []byte) (*Document, error) {
	body, comments := stripComments(data)
	meta, baselineRef := parseHeader(comments)

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var top map[string]json.RawMessage
	if err := dec.Decode(&top); err != nil {
		return nil, &ParseError{Source: source, Line: errorLine(body, err), Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Source: source, Err: errors.New("trailing data after document")}
	}

	policyRaw, ok := top["policy"]
	if !ok {
		return nil, &SchemaError{Source: source, Msg: `file must contain a "policy" key`}
	}
	if len(top) > 1 {
		var extras []string
		for k := range top {
			if k != "policy" {
				extras = append(extras, strconv.Quote(k))
			}
		}
		sort.Strings(extras)
		return nil, &SchemaError{
			Source: source,
			Msg:    fmt.Sprintf(`file cannot contain keys besides "policy": found %s`, strings.Join(extras, ", ")),
		}
	}

	var policy map[string]json.RawMessage
	if err := json.Unmarshal(policyRaw, &policy); err != nil {
		return nil, &SchemaError{Source: source, Msg: `"policy" must be an object of parameter overrides`}
	}

	overrides := make(map[string]map[int]param.Value, len(policy))
	for name, rawYears := range policy {
		row, err := parseOverrideRow(source, name, rawYears)
		if err != nil {
			return nil, err
		}
		overrides[name] = row
	}

	doc := NewDocument(source, overrides, baselineRef)
	doc.Meta = meta
	return doc, nil
}

// parseOverrideRow parses one parameter's {"year": [values]} object and
// expands multi-element lists onto consecutive years. Year keys are
// processed ascending so an expansion overlapping a later key yields the
// later key's value.
func parseOverrideRow(source, name string, raw json.RawMessage) (map[int]param.Value, error) {
	var byYear map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byYear); err != nil {
		return nil, &SchemaError{
			Source: source,
			Msg:    fmt.Sprintf("parameter %q: overrides must be an object of year keys", name),
		}
	}

	years := make([]int, 0, len(byYear))
	lists := make(map[int][]json.RawMessage, len(byYear))
	for key, rawList := range byYear {
		year, ok := parseYearKey(key)
		if !ok {
			return nil, &SchemaError{
				Source: source,
				Msg:    fmt.Sprintf("parameter %q: year key %q is not a 4-digit year", name, key),
			}
		}

		var list []json.RawMessage
		if err := json.Unmarshal(rawList, &list); err != nil {
			return nil, &SchemaError{
				Source: source,
				Msg: fmt.Sprintf(`%s[%d]: values must be list-wrapped, e.g. {"%d": [250000]}`,
					name, year, year),
			}
		}
		if len(list) == 0 {
			return nil, &SchemaError{
				Source: source,
				Msg:    fmt.Sprintf("%s[%d]: value list is empty", name, year),
			}
		}
		// Year keys are 4-digit; expansion must stay within 4 digits too,
		// or the document no longer round-trips through its wire form.
		if last := year + len(list) - 1; last > maxYear {
			return nil, &SchemaError{
				Source: source,
				Msg: fmt.Sprintf("%s[%d]: %d-element list expands to year %d, past %d",
					name, year, len(list), last, maxYear),
			}
		}
		years = append(years, year)
		lists[year] = list
	}
	sort.Ints(years)

	row := make(map[int]param.Value)
	for _, year := range years {
		for i, elem := range lists[year] {
			v, err := param.UnmarshalValue(elem)
			if err != nil {
				return nil, &SchemaError{
					Source: source,
					Msg:    fmt.Sprintf("%s[%d][%d]: %v", name, year, i, err),
				}
			}
			row[year+i] = v
		}
	}
	return row, nil
}

// maxYear is the largest year the 4-digit wire format can carry.
const maxYear = 9999

// parseYearKey accepts exactly four ASCII digits.
func parseYearKey(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return year, true
}

// stripComments blanks // comments outside JSON strings, keeping byte
// offsets stable so JSON error positions map back to the original file.
// Returns the cleaned body and the collected comment lines.
func stripComments(data []byte) ([]byte, []string) {
	body := make([]byte, len(data))
	copy(body, data)

	var comments []string
	inString := false
	escaped := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(body) && body[i+1] == '/':
			end := i
			for end < len(body) && body[end] != '\n' {
				end++
			}
			comments = append(comments, string(body[i+2:end]))
			for j := i; j < end; j++ {
				body[j] = ' '
			}
			i = end - 1
		}
	}
	return body, comments
}

// parseHeader extracts "Key: value" metadata from comment lines. The
// recognized keys follow the conventional reform-file headers; matching is
// case-insensitive and tolerates the Reform_ prefix. Only the baseline
// reference affects behavior.
func parseHeader(comments []string) (Metadata, string) {
	var meta Metadata
	baselineRef := ""

	for _, line := range comments {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch normalizeHeaderKey(key) {
		case "title":
			meta.Title = value
		case "author", "file_author":
			meta.Author = value
		case "reference":
			meta.Reference = value
		case "description":
			meta.Description = value
		case "baseline":
			baselineRef = cleanBaselineRef(value)
		}
	}
	return meta, baselineRef
}

func normalizeHeaderKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	return strings.TrimPrefix(k, "reform_")
}

// cleanBaselineRef maps the current-law sentinel spellings to the empty
// reference.
func cleanBaselineRef(value string) string {
	switch strings.ToLower(value) {
	case "current law", "current-law", "current law baseline":
		return ""
	}
	return value
}

// errorLine converts a JSON error offset to a 1-based line number.
func errorLine(body []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	if offset <= 0 || offset > int64(len(body)) {
		return 0
	}
	return 1 + bytes.Count(body[:offset], []byte("\n"))
}
