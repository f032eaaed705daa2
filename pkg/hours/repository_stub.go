package hours

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	entries map[int]Entry
	nextId  int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		entries: make(map[int]Entry),
		nextId:  1,
	}
}

// WithTransaction restores the previous state when fn fails.
func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	original := make(map[int]Entry, len(r.entries))
	for k, v := range r.entries {
		original[k] = v
	}
	originalNextId := r.nextId
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.entries = original
		r.nextId = originalNextId
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0)
	for _, e := range r.entries {
		if filter.UserId != 0 && e.UserId != filter.UserId {
			continue
		}
		if filter.ProjectId != 0 && e.ProjectId() != filter.ProjectId {
			continue
		}
		if filter.AbsenceId != 0 && e.AbsenceId() != filter.AbsenceId {
			continue
		}
		if !filter.From.IsZero() && e.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.StartTime.Before(filter.To) {
			continue
		}
		result = append(result, e.WithCalculatedHours())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return result[i].Id > result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) GetEntry(ctx context.Context, id int) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e.WithCalculatedHours(), nil
}

func (r *RepositoryStub) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.Id = r.nextId
	r.nextId++
	entry.StartTime = entry.StartTime.UTC()
	entry.EndTime = entry.EndTime.UTC()
	entry.HoursWorked = 0
	r.entries[entry.Id] = entry
	return entry.WithCalculatedHours(), nil
}

func (r *RepositoryStub) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.Id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	entry.UserId = existing.UserId
	entry.StartTime = entry.StartTime.UTC()
	entry.EndTime = entry.EndTime.UTC()
	entry.HoursWorked = 0
	r.entries[entry.Id] = entry
	return entry.WithCalculatedHours(), nil
}

func (r *RepositoryStub) DeleteEntry(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

// Put stores entry as-is, bypassing validation. Tests use it to seed malformed rows.
func (r *RepositoryStub) Put(entry Entry) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.Id == 0 {
		entry.Id = r.nextId
	}
	if entry.Id >= r.nextId {
		r.nextId = entry.Id + 1
	}
	r.entries[entry.Id] = entry
	return entry
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[int]Entry)
	r.nextId = 1
}
