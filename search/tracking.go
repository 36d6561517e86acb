package search

import (
	"context"
	"sort"
	"sync"
)

// Checkpoint remembers the last note id a resync wrote, so an interrupted
// resync can resume after it.
type Checkpoint interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, lastID string) error
	Clear(ctx context.Context) error
}

// StaleTracker remembers notes whose index write failed.
type StaleTracker interface {
	MarkStale(ctx context.Context, ids ...string) error
	StaleIDs(ctx context.Context) ([]string, error)
	ClearStale(ctx context.Context, ids ...string) error
}

// MemoryCheckpoint is a process-local Checkpoint.
type MemoryCheckpoint struct {
	mu     sync.Mutex
	lastID string
}

func NewMemoryCheckpoint() *MemoryCheckpoint {
	return &MemoryCheckpoint{}
}

func (c *MemoryCheckpoint) Load(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID, nil
}

func (c *MemoryCheckpoint) Save(_ context.Context, lastID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastID = lastID
	return nil
}

func (c *MemoryCheckpoint) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastID = ""
	return nil
}

// MemoryStaleTracker is a process-local StaleTracker.
type MemoryStaleTracker struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryStaleTracker() *MemoryStaleTracker {
	return &MemoryStaleTracker{ids: make(map[string]struct{})}
}

func (t *MemoryStaleTracker) MarkStale(_ context.Context, ids ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		t.ids[id] = struct{}{}
	}
	return nil
}

// StaleIDs returns the tracked ids in ascending order.
func (t *MemoryStaleTracker) StaleIDs(context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.ids))
	for id := range t.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *MemoryStaleTracker) ClearStale(_ context.Context, ids ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.ids, id)
	}
	return nil
}
