package requestlog

// Logger records entries. Implementations must be safe for concurrent use.
type Logger interface {
	// Log records one entry. It must not block request handling.
	Log(entry *Entry)
}

// Subscriber receives entries as they are recorded.
type Subscriber chan *Entry

// Store is a queryable entry log.
type Store interface {
	Logger

	// Entries returns recorded entries, newest first, passing the filter.
	Entries(filter Filter) []*Entry

	// Clear removes all entries.
	Clear()
}

// SubscribableStore is a Store that supports live streaming.
type SubscribableStore interface {
	Store

	// Subscribe registers a listener for new entries. The returned function
	// unsubscribes. Slow subscribers miss entries rather than block logging.
	Subscribe() (Subscriber, func())
}
