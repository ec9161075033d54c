package engine

import (
	"sync"

	"github.com/mockhive/mockhive/internal/id"
	"github.com/mockhive/mockhive/pkg/requestlog"
)

// memoryRequestLog is a capped request log with live subscribers. The
// oldest entries are evicted first. Subscriber sends never block: a slow
// subscriber misses entries rather than stalling request handling.
type memoryRequestLog struct {
	mu          sync.RWMutex
	entries     []*requestlog.Entry
	max         int
	subscribers map[requestlog.Subscriber]struct{}
}

var _ requestlog.SubscribableStore = (*memoryRequestLog)(nil)

func newMemoryRequestLog(max int) *memoryRequestLog {
	if max <= 0 {
		max = 1000
	}
	return &memoryRequestLog{
		max:         max,
		subscribers: make(map[requestlog.Subscriber]struct{}),
	}
}

// Log implements requestlog.Logger.
func (l *memoryRequestLog) Log(entry *requestlog.Entry) {
	if entry.ID == "" {
		entry.ID = id.Short()
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	subs := make([]requestlog.Subscriber, 0, len(l.subscribers))
	for sub := range l.subscribers {
		subs = append(subs, sub)
	}
	l.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- entry:
		default:
		}
	}
}

// Entries implements requestlog.Store, newest first.
func (l *memoryRequestLog) Entries(filter requestlog.Filter) []*requestlog.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*requestlog.Entry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if !filter.Matches(entry) {
			continue
		}
		out = append(out, entry)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// Clear implements requestlog.Store.
func (l *memoryRequestLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Subscribe implements requestlog.SubscribableStore.
func (l *memoryRequestLog) Subscribe() (requestlog.Subscriber, func()) {
	sub := make(requestlog.Subscriber, 64)

	l.mu.Lock()
	l.subscribers[sub] = struct{}{}
	l.mu.Unlock()

	unsubscribe := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[sub]; ok {
			delete(l.subscribers, sub)
			close(sub)
		}
		l.mu.Unlock()
	}
	return sub, unsubscribe
}
