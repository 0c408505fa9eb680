// Package cache holds the in-memory file status cache: the pending set of
// files whose terminal outcome is unknown, the completed set of finished
// files, and the listing cursor. It is the only owner of that state; the
// background loops and the HTTP handlers mutate and read it exclusively
// through this API.
package cache

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/file-tracker/backend/internal/models"
)

// Cache tracks upstream files from first listing until terminal resolution.
//
// pending and cursor are guarded by mu; both background loops touch them.
// completed is a concurrent map so endpoint lookups never contend with
// promotion. A file_id lives in at most one of the two collections, and a
// promoted record is never re-admitted to pending.
type Cache struct {
	mu      sync.Mutex
	pending []*models.FileRecord
	cursor  int

	completed *xsync.Map[string, *models.FileRecord]
}

// New creates an empty cache with the cursor at the start of the listing.
func New() *Cache {
	return &Cache{
		completed: xsync.NewMap[string, *models.FileRecord](),
	}
}

// Cursor returns the next unseen listing index.
func (c *Cache) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// AppendListing ingests one listing page, assigning contiguous indexes
// starting at the current cursor in response order, and advances the cursor
// by the page length. An entry whose file_id already completed still consumes
// its index but is not re-admitted to pending. Returns the number of records
// added to pending.
func (c *Cache) AppendListing(entries []models.ListEntry) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for i, e := range entries {
		if _, done := c.completed.Load(e.FileID); done {
			continue
		}
		c.pending = append(c.pending, &models.FileRecord{
			Index:  c.cursor + i,
			FileID: e.FileID,
			Status: e.ProcessingStatus,
		})
		added++
	}
	c.cursor += len(entries)
	return added
}

// PendingSnapshot returns the current pending records in index order. The
// slice is a copy; the records are the live instances, mutated only by the
// status checker.
func (c *Cache) PendingSnapshot() []*models.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.FileRecord, len(c.pending))
	copy(out, c.pending)
	return out
}

// SetStatus records an authoritative status read for a pending record.
func (c *Cache) SetStatus(r *models.FileRecord, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r.Status = status
}

// Resolve removes the given records from pending, moving finished ones into
// completed and dropping discarded ones. Returns the number promoted.
func (c *Cache) Resolve(finished, discarded []*models.FileRecord) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	remove := make(map[*models.FileRecord]struct{}, len(finished)+len(discarded))
	for _, r := range finished {
		remove[r] = struct{}{}
	}
	for _, r := range discarded {
		remove[r] = struct{}{}
	}

	kept := c.pending[:0]
	for _, r := range c.pending {
		if _, ok := remove[r]; !ok {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(c.pending); i++ {
		c.pending[i] = nil
	}
	c.pending = kept

	for _, r := range finished {
		c.completed.Store(r.FileID, r)
	}
	return len(finished)
}

// LookupCompleted returns the completed record for a file_id, if any.
func (c *Cache) LookupCompleted(fileID string) (models.FileRecord, bool) {
	r, ok := c.completed.Load(fileID)
	if !ok {
		return models.FileRecord{}, false
	}
	return *r, true
}

// Snapshot is a point-in-time view of the cache for the inspection endpoint.
type Snapshot struct {
	Cursor    int                 `json:"cursor" msgpack:"cursor"`
	Pending   []models.FileRecord `json:"pending" msgpack:"pending"`
	Completed []models.FileRecord `json:"completed" msgpack:"completed"`
}

// Snapshot copies the cache state. Both collections are returned in index
// order.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	pending := make([]models.FileRecord, len(c.pending))
	for i, r := range c.pending {
		pending[i] = *r
	}
	cursor := c.cursor
	c.mu.Unlock()

	completed := make([]models.FileRecord, 0, c.completed.Size())
	c.completed.Range(func(_ string, r *models.FileRecord) bool {
		completed = append(completed, *r)
		return true
	})
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Index < completed[j].Index
	})

	return Snapshot{Cursor: cursor, Pending: pending, Completed: completed}
}

// PendingCount returns the number of unresolved records.
func (c *Cache) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// CompletedCount returns the number of finished records.
func (c *Cache) CompletedCount() int {
	return c.completed.Size()
}
