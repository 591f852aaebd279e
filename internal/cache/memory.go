package cache

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iwvelando/mortgage-trust/pkg/loans"
)

type memoryEntry struct {
	key      string
	schedule loans.Schedule
	expires  time.Time
}

// Memory is a bounded in-process cache that evicts the least recently used
// entry. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

// NewMemory returns a cache holding at most max schedules for ttl each.
func NewMemory(max int, ttl time.Duration) *Memory {
	return &Memory{
		max:     max,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns the cached schedule for key.
func (m *Memory) Get(_ context.Context, key string) (loans.Schedule, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return loans.Schedule{}, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if m.ttl > 0 && !m.now().Before(entry.expires) {
		m.order.Remove(el)
		delete(m.entries, key)
		return loans.Schedule{}, false, nil
	}
	m.order.MoveToFront(el)
	return cloneSchedule(entry.schedule), true, nil
}

// Set stores schedule under key.
func (m *Memory) Set(_ context.Context, key string, schedule loans.Schedule) error {
	schedule = cloneSchedule(schedule)
	m.mu.Lock()
	defer m.mu.Unlock()

	expires := m.now().Add(m.ttl)
	if el, ok := m.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.schedule = schedule
		entry.expires = expires
		m.order.MoveToFront(el)
		return nil
	}

	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, schedule: schedule, expires: expires})
	for m.order.Len() > m.max {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// cloneSchedule copies the period slice so callers never share it with a
// stored entry.
func cloneSchedule(s loans.Schedule) loans.Schedule {
	s.Periods = slices.Clone(s.Periods)
	return s
}
