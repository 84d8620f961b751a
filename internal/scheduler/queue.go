// internal/scheduler/queue.go
package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/watchgrid/cortex/internal/events"
)

// Priority classes, higher value drains first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// PriorityFor maps an event urgency onto its queue class.
func PriorityFor(u events.Urgency) Priority {
	switch u {
	case events.UrgencyCritical:
		return PriorityCritical
	case events.UrgencyHigh:
		return PriorityHigh
	case events.UrgencyMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Item wraps an event plus the frame evidence needed for deep analysis.
// Attempts counts processing tries; LastError records the most recent
// failure so a dropped item is observable before removal.
type Item struct {
	Event      events.AutonomousEvent
	Evidence   []byte // zstd-compressed frame payload
	Priority   Priority
	EnqueuedAt time.Time
	Attempts   int
	LastError  string
}

// ErrQueueFull is returned when the queue is at capacity.
var ErrQueueFull = errors.New("scheduler: queue full")

// Queue is a bounded priority queue over the four classes. Dequeue order
// respects class precedence with FIFO inside each class: insertion places
// an item after every existing item of equal or higher priority.
type Queue struct {
	mu    sync.Mutex
	items []*Item
	max   int
}

// NewQueue creates a queue bounded at max items
func NewQueue(max int) *Queue {
	if max <= 0 {
		max = 256
	}
	return &Queue{max: max}
}

// Push adds an item in priority position.
func (q *Queue) Push(item *Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.max {
		return ErrQueueFull
	}

	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}

	pos := len(q.items)
	for i, existing := range q.items {
		if item.Priority > existing.Priority {
			pos = i
			break
		}
	}

	q.items = append(q.items, nil)
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = item
	return nil
}

// Pop removes and returns the highest-priority item.
func (q *Queue) Pop() (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Purge discards all queued items.
func (q *Queue) Purge() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
