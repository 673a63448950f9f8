package reform

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// CyclicBaselineError reports a baseline chain that references itself,
// directly or transitively.
type CyclicBaselineError struct {
	// Path lists document sources from the requested document to the
	// repeated one, e.g. ["a.json", "b.json", "a.json"].
	Path []string
}

func (e *CyclicBaselineError) Error() string {
	return fmt.Sprintf("cyclic baseline reference: %s", strings.Join(e.Path, " → "))
}

// UnresolvedBaselineError reports a baseline reference that could not be
// loaded.
type UnresolvedBaselineError struct {
	Ref    string // the baseline reference that failed
	Source string // the document that declared it
	Err    error
}

func (e *UnresolvedBaselineError) Error() string {
	return fmt.Sprintf("%s: baseline %q cannot be resolved: %v", e.Source, e.Ref, e.Err)
}

func (e *UnresolvedBaselineError) Unwrap() error {
	return e.Err
}

// DocumentLoader resolves a baseline reference to a parsed document.
type DocumentLoader interface {
	LoadDocument(ref string) (*Document, error)
}

// FileLoader resolves baseline references against a directory on the
// local filesystem.
type FileLoader struct {
	// Dir anchors relative references. Empty means the working directory.
	Dir string
}

// LoadDocument implements DocumentLoader.
func (l FileLoader) LoadDocument(ref string) (*Document, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.Dir, path)
	}
	return Load(path)
}

// MapLoader resolves baseline references from an in-memory set of
// documents, keyed by reference name. Used by tests and the conformance
// harness.
type MapLoader map[string]*Document

// LoadDocument implements DocumentLoader.
func (l MapLoader) LoadDocument(ref string) (*Document, error) {
	doc, ok := l[ref]
	if !ok {
		return nil, fmt.Errorf("no document named %q", ref)
	}
	return doc, nil
}

// chainNodeKey identifies a document as a node of the baseline walk:
// content identity plus where the chain continues. Provisions alone
// cannot distinguish nodes — an overlay may legitimately carry the same
// overrides as its baseline. Two nodes share a key only when they repeat
// both provisions and baseline reference, which within one walk means
// the walk has come back around to the same document.
func chainNodeKey(d *Document) string {
	return d.ID() + "\x00" + d.BaselineRef
}

// BuildChain walks baseline references from the requested document to
// current law and returns the layering order for resolution:
// [closest to current law, ..., requested].
//
// The walk is iterative with a visited set, so pathological reference
// graphs fail with CyclicBaselineError instead of looping or recursing
// unboundedly. Only a document that transitively references itself
// trips the error; distinct documents with identical provisions chain
// normally.
func BuildChain(requested *Document, loader DocumentLoader) ([]*Document, error) {
	chain := []*Document{requested}
	visited := map[string]bool{chainNodeKey(requested): true}
	path := []string{requested.Source}

	cur := requested
	for cur.BaselineRef != "" {
		next, err := loader.LoadDocument(cur.BaselineRef)
		if err != nil {
			return nil, &UnresolvedBaselineError{
				Ref:    cur.BaselineRef,
				Source: cur.Source,
				Err:    err,
			}
		}
		path = append(path, next.Source)
		if visited[chainNodeKey(next)] {
			return nil, &CyclicBaselineError{Path: path}
		}
		visited[chainNodeKey(next)] = true
		chain = append(chain, next)
		cur = next
	}

	slices.Reverse(chain)
	return chain, nil
}

// LoadChain loads a document from a file and builds its full baseline
// chain, resolving references against the document's own directory.
func LoadChain(path string) ([]*Document, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return BuildChain(doc, FileLoader{Dir: filepath.Dir(path)})
}
