package relay

import (
	"context"
	"sync"
	"time"
)

// DefaultJournalCapacity bounds the in-memory journal.
const DefaultJournalCapacity = 10000

// Entry links a message in the operator chat to the user it concerns.
type Entry struct {
	OperatorMessageID int
	RequesterID       int64
	Kind              string
	LeadID            string
	CreatedAt         time.Time
}

// Journal remembers which requester each operator message belongs to, so
// replies can be routed even when the marker line was edited away.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Lookup(ctx context.Context, operatorMessageID int) (int64, bool, error)
}

// MemoryJournal keeps the most recent entries in process memory and evicts
// the oldest once full.
type MemoryJournal struct {
	mu       sync.Mutex
	capacity int
	entries  map[int]Entry
	order    []int
	next     int
	now      func() time.Time
}

// NewMemoryJournal builds a journal holding at most capacity entries.
func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = DefaultJournalCapacity
	}
	return &MemoryJournal{
		capacity: capacity,
		entries:  make(map[int]Entry, capacity),
		order:    make([]int, 0, capacity),
		now:      time.Now,
	}
}

// Record stores e; an existing entry for the same message is kept.
func (j *MemoryJournal) Record(_ context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.entries[e.OperatorMessageID]; ok {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	if len(j.order) < j.capacity {
		j.order = append(j.order, e.OperatorMessageID)
	} else {
		delete(j.entries, j.order[j.next])
		j.order[j.next] = e.OperatorMessageID
		j.next = (j.next + 1) % j.capacity
	}
	j.entries[e.OperatorMessageID] = e
	return nil
}

// Lookup returns the requester of operatorMessageID.
func (j *MemoryJournal) Lookup(_ context.Context, operatorMessageID int) (int64, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[operatorMessageID]
	return e.RequesterID, ok, nil
}

// Len returns the number of stored entries.
func (j *MemoryJournal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
