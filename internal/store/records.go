package store

import (
	"time"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/resolve"
)

// DocumentRecord is a stored reform document.
type DocumentRecord struct {
	Hash        string
	Source      string
	Title       string
	Author      string
	BaselineRef string
	// Body is the canonical wire encoding the hash was computed over.
	Body      string
	CreatedAt time.Time
}

// RunSummary describes one stored resolution run.
type RunSummary struct {
	ID               string
	CreatedAt        time.Time
	Horizon          resolve.Horizon
	CatalogueVersion string
	// Documents lists the chain's content hashes in layering order.
	Documents []string
}

// RunRecord is a full stored run: the summary plus every resolved value.
type RunRecord struct {
	RunSummary
	Values map[string]map[int]param.Value
}
