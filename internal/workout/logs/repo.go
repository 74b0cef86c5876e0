package logs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/abtracker/internal/workout"
)

var (
	ErrLogEntryNotFound  = errors.New("workout log entry not found")
	ErrDuplicateLogEntry = errors.New("workout log entry already exists")
)

// Repo is the append-only store of logged sessions. ListAll must return
// entries in append order, and a copy the caller may keep.
type Repo interface {
	Add(ctx context.Context, entry workout.LogEntry) (*workout.LogEntry, error)
	Get(ctx context.Context, id int64) (*workout.LogEntry, error)
	ListAll(ctx context.Context) ([]workout.LogEntry, error)
	Count(ctx context.Context) (int, error)
	LastID(ctx context.Context) (int64, error)
}

// IDGenerator hands out millisecond timestamps usable as log entry ids.
// Ids are strictly increasing, even within the same millisecond or when
// the wall clock goes back.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

func NewIDGenerator(last int64) *IDGenerator {
	return &IDGenerator{last: last}
}

func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe moves the generator past an id that already exists.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func copyEntry(entry workout.LogEntry) workout.LogEntry {
	entry.Sets = append([]workout.SetEntry(nil), entry.Sets...)
	return entry
}
