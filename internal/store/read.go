package store

import (
	"context"
	"fmt"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/resolve"
)

// ListRuns returns summaries of all stored runs, newest first. Ties on
// the timestamp break on ID, so the order is deterministic.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, start_year, end_year, catalogue_version
		FROM runs
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		summary, err := scanRunSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if runs == nil {
		runs = []RunSummary{}
	}

	// The single-connection pool means the chain lookups must wait for
	// the run rows to be fully consumed, so they happen in a second pass.
	for i := range runs {
		runs[i].Documents, err = s.readRunDocuments(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return runs, nil
}

// GetRun retrieves a single run with its resolved values.
// Returns sql.ErrNoRows (wrapped) if the run does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, start_year, end_year, catalogue_version
		FROM runs
		WHERE id = ?
	`, id)

	summary, err := scanRunSummary(row)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	summary.Documents, err = s.readRunDocuments(ctx, id)
	if err != nil {
		return nil, err
	}

	values, err := s.readRunValues(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RunRecord{RunSummary: summary, Values: values}, nil
}

// GetDocument retrieves a stored document by content hash.
// Returns sql.ErrNoRows (wrapped) if not found.
func (s *Store) GetDocument(ctx context.Context, hash string) (*DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, source, title, author, baseline_ref, body, created_at
		FROM documents
		WHERE hash = ?
	`, hash)

	var rec DocumentRecord
	var createdAt string
	err := row.Scan(&rec.Hash, &rec.Source, &rec.Title, &rec.Author,
		&rec.BaselineRef, &rec.Body, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", hash, err)
	}
	rec.CreatedAt, err = unmarshalTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", hash, err)
	}
	return &rec, nil
}

// readRunDocuments returns a run's chain hashes in layering order.
func (s *Store) readRunDocuments(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_hash
		FROM run_documents
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run documents: %w", err)
	}
	defer rows.Close()

	hashes := []string{}
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan run document: %w", err)
		}
		hashes = append(hashes, hash)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run documents: %w", err)
	}
	return hashes, nil
}

// readRunValues returns a run's resolved values keyed by parameter and
// year.
func (s *Store) readRunValues(ctx context.Context, id string) (map[string]map[int]param.Value, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT param, year, value
		FROM run_values
		WHERE run_id = ?
		ORDER BY param ASC, year ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]map[int]param.Value)
	for rows.Next() {
		var (
			name string
			year int
			text string
		)
		if err := rows.Scan(&name, &year, &text); err != nil {
			return nil, fmt.Errorf("scan run value: %w", err)
		}
		v, err := unmarshalValue(text)
		if err != nil {
			return nil, fmt.Errorf("run value %s[%d]: %w", name, year, err)
		}
		row := values[name]
		if row == nil {
			row = make(map[int]param.Value)
			values[name] = row
		}
		row[year] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run values: %w", err)
	}
	return values, nil
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanRunSummary(sc scanner) (RunSummary, error) {
	var (
		summary   RunSummary
		createdAt string
		start     int
		end       int
	)
	err := sc.Scan(&summary.ID, &createdAt, &start, &end, &summary.CatalogueVersion)
	if err != nil {
		return RunSummary{}, err
	}
	summary.CreatedAt, err = unmarshalTime(createdAt)
	if err != nil {
		return RunSummary{}, err
	}
	summary.Horizon = resolve.Horizon{Start: start, End: end}
	return summary, nil
}
