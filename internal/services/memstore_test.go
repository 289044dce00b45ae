package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"financas/internal/core"
)

// memStore is an in-memory EntryStore for service tests. It enforces the
// same contract as the SQLite store: (parent, date) uniqueness, sentinel
// errors, date-ordered reads, all-or-nothing batches.
type memStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]core.LedgerEntry

	// failOccurrenceInsert makes occurrence inserts for these parents fail,
	// to exercise per-origin isolation.
	failOccurrenceInsert map[uuid.UUID]bool

	inserts int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{
		entries:              make(map[uuid.UUID]core.LedgerEntry),
		failOccurrenceInsert: make(map[uuid.UUID]bool),
	}
}

var errStoreDown = errors.New("store down")

func (m *memStore) Insert(_ context.Context, e core.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(e)
}

func (m *memStore) insertLocked(e core.LedgerEntry) error {
	if e.ParentID != nil {
		if m.failOccurrenceInsert[*e.ParentID] {
			return errStoreDown
		}
		for _, other := range m.entries {
			if other.ParentID != nil && *other.ParentID == *e.ParentID && other.Date.Equal(e.Date) {
				return core.ErrDuplicateOccurrence
			}
		}
	}
	m.entries[e.ID] = e
	m.inserts++
	return nil
}

func (m *memStore) InsertBatch(_ context.Context, batch []core.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// validate the whole batch first so a failure leaves nothing behind
	seen := make(map[string]bool)
	for _, e := range batch {
		if e.ParentID == nil {
			continue
		}
		if m.failOccurrenceInsert[*e.ParentID] {
			return errStoreDown
		}
		key := e.ParentID.String() + "|" + e.Date.String()
		if seen[key] {
			return core.ErrDuplicateOccurrence
		}
		seen[key] = true
		for _, other := range m.entries {
			if other.ParentID != nil && *other.ParentID == *e.ParentID && other.Date.Equal(e.Date) {
				return core.ErrDuplicateOccurrence
			}
		}
	}
	for _, e := range batch {
		m.entries[e.ID] = e
		m.inserts++
	}
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (core.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	return e, nil
}

func (m *memStore) Update(_ context.Context, e core.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return core.ErrNotFound
	}
	m.entries[e.ID] = e
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.entries, id)
	m.deletes++
	return nil
}

func (m *memStore) DeleteOccurrencesAfter(_ context.Context, parentID uuid.UUID, after core.Date) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.ParentID != nil && *e.ParentID == parentID && e.Date.After(after) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) OccurrenceExists(_ context.Context, parentID uuid.UUID, date core.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ParentID != nil && *e.ParentID == parentID && e.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) LatestOccurrenceDate(_ context.Context, parentID uuid.UUID) (core.Date, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest core.Date
	found := false
	for _, e := range m.entries {
		if e.ParentID != nil && *e.ParentID == parentID {
			if !found || e.Date.After(latest) {
				latest = e.Date
				found = true
			}
		}
	}
	return latest, found, nil
}

func (m *memStore) FindByOwnerAndDateRange(_ context.Context, owner uuid.UUID, from, to core.Date) ([]core.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range m.entries {
		if e.OwnerID == owner && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memStore) FindByOwner(_ context.Context, owner uuid.UUID) ([]core.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range m.entries {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memStore) FindActiveFixedOrigins(_ context.Context) ([]core.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range m.entries {
		if e.ParentID == nil && e.Recurrence.Kind == core.Fixed && e.Active {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memStore) FindOriginsByOwner(_ context.Context, owner uuid.UUID, kind core.RecurrenceKind, active bool) ([]core.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range m.entries {
		if e.OwnerID == owner && e.ParentID == nil && e.Recurrence.Kind == kind && e.Active == active {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return core.ErrNotFound
	}
	e.Active = active
	m.entries[id] = e
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memStore) occurrencesOf(parentID uuid.UUID) []core.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range m.entries {
		if e.ParentID != nil && *e.ParentID == parentID {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out
}

func sortByDate(entries []core.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}

// memCategories is an in-memory CategoryStore.
type memCategories struct {
	byID map[uuid.UUID]core.Category
}

func newMemCategories(cats ...core.Category) *memCategories {
	m := &memCategories{byID: make(map[uuid.UUID]core.Category)}
	for _, c := range cats {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCategories) GetByIDAndOwner(_ context.Context, id, owner uuid.UUID) (core.Category, error) {
	c, ok := m.byID[id]
	if !ok || c.OwnerID != owner {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *memCategories) ListByOwner(_ context.Context, owner uuid.UUID) ([]core.Category, error) {
	var out []core.Category
	for _, c := range m.byID {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

// capturePublisher records published ids.
type capturePublisher struct {
	mu      sync.Mutex
	synced  []uuid.UUID
	deleted []uuid.UUID
}

func (p *capturePublisher) PublishEntrySync(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synced = append(p.synced, id)
	return nil
}

func (p *capturePublisher) PublishEntryDelete(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	return nil
}
