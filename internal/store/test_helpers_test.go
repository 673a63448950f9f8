package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/registry"
	"github.com/roach88/lawstack/internal/resolve"
)

// createTestStore creates a store backed by a temp file.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// fixedClock always returns testTime.
type fixedClock struct{}

func (fixedClock) Now() time.Time { return testTime }

// steppingClock returns testTime plus one minute per call.
type steppingClock struct {
	mu sync.Mutex
	n  int
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := testTime.Add(time.Duration(c.n) * time.Minute)
	c.n++
	return t
}

// resolveTestRun resolves a small reform chain for storage tests.
func resolveTestRun(t *testing.T) ([]*reform.Document, *resolve.Schedule) {
	t.Helper()

	reg, err := registry.Load()
	if err != nil {
		t.Fatalf("registry.Load() failed: %v", err)
	}

	doc := reform.NewDocument("reform.json", map[string]map[int]param.Value{
		"SS_Earnings_thd": {2020: param.Int(250000)},
		"NIIT_rt":         {2020: param.Real(0.1)},
	}, "")
	doc.Meta = reform.Metadata{
		Title:  "Payroll threshold reform",
		Author: "Test Author",
	}

	chain := []*reform.Document{doc}
	sched, err := resolve.New(reg).Resolve(chain, resolve.Horizon{Start: 2018, End: 2021})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	return chain, sched
}
