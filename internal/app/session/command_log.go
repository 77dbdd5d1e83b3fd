package session

import (
	"sync"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

const DefaultCommandLogSize = 50

// commandLog is a thread-safe ring buffer keeping the most recent entries.
type commandLog struct {
	mu       sync.RWMutex
	entries  []domain.CommandEntry
	capacity int
	head     int
	count    int
}

func newCommandLog(capacity int) *commandLog {
	if capacity <= 0 {
		capacity = DefaultCommandLogSize
	}
	return &commandLog{
		entries:  make([]domain.CommandEntry, capacity),
		capacity: capacity,
	}
}

func (l *commandLog) Add(entry domain.CommandEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.head] = entry
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}
}

// All returns the entries oldest first.
func (l *commandLog) All() []domain.CommandEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.CommandEntry, l.count)
	start := 0
	if l.count == l.capacity {
		start = l.head
	}
	for i := 0; i < l.count; i++ {
		result[i] = l.entries[(start+i)%l.capacity]
	}
	return result
}

func (l *commandLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make([]domain.CommandEntry, l.capacity)
	l.head = 0
	l.count = 0
}
