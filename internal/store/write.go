package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/resolve"
)

// SaveRun stores one resolution: the chain's documents, the run row,
// the chain order, and every resolved value. The write is a single
// transaction, so a run is either fully recorded or absent.
//
// Documents already in the store are left untouched; the content hash
// makes the insert idempotent via ON CONFLICT(hash) DO NOTHING.
func (s *Store) SaveRun(ctx context.Context, chain []*reform.Document, sched *resolve.Schedule) (*RunSummary, error) {
	id := s.runIDs.Generate()
	now := s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	hashes := make([]string, len(chain))
	for i, doc := range chain {
		hash, err := writeDocument(ctx, tx, doc, now)
		if err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		hashes[i] = hash
	}

	h := sched.Horizon()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, start_year, end_year, catalogue_version)
		VALUES (?, ?, ?, ?, ?)
	`,
		id,
		marshalTime(now),
		h.Start,
		h.End,
		sched.CatalogueVersion(),
	)
	if err != nil {
		return nil, fmt.Errorf("save run %s: %w", id, err)
	}

	for i, hash := range hashes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_documents (run_id, position, doc_hash)
			VALUES (?, ?, ?)
		`, id, i, hash)
		if err != nil {
			return nil, fmt.Errorf("save run %s: chain position %d: %w", id, i, err)
		}
	}

	for _, name := range sched.ParamNames() {
		for _, year := range sched.YearsFor(name) {
			v, _ := sched.Value(name, year)
			text, err := marshalValue(v)
			if err != nil {
				return nil, fmt.Errorf("save run %s: %s[%d]: %w", id, name, year, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO run_values (run_id, param, year, value)
				VALUES (?, ?, ?, ?)
			`, id, name, year, text)
			if err != nil {
				return nil, fmt.Errorf("save run %s: %s[%d]: %w", id, name, year, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save run %s: commit: %w", id, err)
	}

	return &RunSummary{
		ID:               id,
		CreatedAt:        now.UTC(),
		Horizon:          h,
		CatalogueVersion: sched.CatalogueVersion(),
		Documents:        hashes,
	}, nil
}

// writeDocument inserts one document row inside a transaction and
// returns its content hash.
func writeDocument(ctx context.Context, tx *sql.Tx, doc *reform.Document, now time.Time) (string, error) {
	body, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", doc.Source, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (hash, source, title, author, baseline_ref, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		doc.ID(),
		doc.Source,
		doc.Meta.Title,
		doc.Meta.Author,
		doc.BaselineRef,
		string(body),
		marshalTime(now),
	)
	if err != nil {
		return "", fmt.Errorf("write document %s: %w", doc.Source, err)
	}
	return doc.ID(), nil
}
