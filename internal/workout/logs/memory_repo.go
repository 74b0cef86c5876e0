package logs

import (
	"context"
	"fmt"
	"sync"

	"github.com/2beens/abtracker/internal/workout"
)

type MemoryRepo struct {
	mutex   sync.RWMutex
	entries []workout.LogEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		entries: make([]workout.LogEntry, 0),
	}
}

func (r *MemoryRepo) Add(_ context.Context, entry workout.LogEntry) (*workout.LogEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, e := range r.entries {
		if e.ID == entry.ID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateLogEntry, entry.ID)
		}
	}

	stored := copyEntry(entry)
	r.entries = append(r.entries, stored)

	added := copyEntry(stored)
	return &added, nil
}

func (r *MemoryRepo) Get(_ context.Context, id int64) (*workout.LogEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, e := range r.entries {
		if e.ID == id {
			found := copyEntry(e)
			return &found, nil
		}
	}
	return nil, ErrLogEntryNotFound
}

func (r *MemoryRepo) ListAll(_ context.Context) ([]workout.LogEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshot := make([]workout.LogEntry, 0, len(r.entries))
	for _, e := range r.entries {
		snapshot = append(snapshot, copyEntry(e))
	}
	return snapshot, nil
}

func (r *MemoryRepo) Count(_ context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.entries), nil
}

func (r *MemoryRepo) LastID(_ context.Context) (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	var last int64
	for _, e := range r.entries {
		if e.ID > last {
			last = e.ID
		}
	}
	return last, nil
}
