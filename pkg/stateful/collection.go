package stateful

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/mockhive/mockhive/internal/id"
)

// IDKind describes how a collection generates and stores record ids.
type IDKind int

const (
	// IDKindString collections use UUID string ids.
	IDKindString IDKind = iota
	// IDKindNumber collections use incrementing numeric ids, stored as
	// float64 to round-trip through JSON unchanged.
	IDKindNumber
)

// Collection is a named set of records with CRUD semantics.
// Insertion order is preserved so listings are deterministic.
type Collection struct {
	mu      sync.RWMutex
	name    string
	idField string
	idKind  IDKind
	order   []string
	items   map[string]map[string]any
	seed    []map[string]any
	nextID  int64
}

// NewCollection creates an empty collection. idField defaults to "id".
func NewCollection(name, idField string) *Collection {
	if idField == "" {
		idField = "id"
	}
	return &Collection{
		name:    name,
		idField: idField,
		items:   make(map[string]map[string]any),
		nextID:  1,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// IDField returns the configured id field name.
func (c *Collection) IDField() string {
	return c.idField
}

// Seed loads the initial records and snapshots them for Reset.
// When every seeded id is numeric the collection switches to numeric ids.
func (c *Collection) Seed(records []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seed = make([]map[string]any, len(records))
	for i, rec := range records {
		c.seed[i] = copyRecord(rec)
	}
	c.idKind = detectIDKind(records, c.idField)
	c.load(c.seed)
}

// Reset discards all changes and restores the seed snapshot.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(c.seed)
}

// load replaces the live records with a copy of the given ones.
// Caller holds the write lock.
func (c *Collection) load(records []map[string]any) {
	c.items = make(map[string]map[string]any, len(records))
	c.order = c.order[:0]
	c.nextID = 1

	for _, rec := range records {
		stored := copyRecord(rec)
		recID, ok := stored[c.idField]
		if !ok || recID == nil {
			recID = c.generateID()
			stored[c.idField] = recID
		}
		key := canonicalID(recID)
		if _, exists := c.items[key]; !exists {
			c.order = append(c.order, key)
		}
		c.items[key] = stored
		c.bumpNextID(recID)
	}
}

// Count returns the number of live records.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// List returns records matching the filters, in insertion order, along with
// the total match count before pagination. Filters compare the stringified
// top-level field value for equality. limit <= 0 means no limit.
func (c *Collection) List(filters map[string]string, limit, offset int) ([]map[string]any, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]map[string]any, 0, len(c.order))
	for _, key := range c.order {
		rec := c.items[key]
		if matchesFilters(rec, filters) {
			matched = append(matched, copyRecord(rec))
		}
	}

	total := len(matched)
	if offset > 0 {
		if offset >= total {
			return []map[string]any{}, total
		}
		matched = matched[offset:]
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total
}

// Get returns the record with the given id from the request path.
func (c *Collection) Get(rawID string) (map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.items[c.keyFor(rawID)]
	if !ok {
		return nil, &NotFoundError{Collection: c.name, ID: rawID}
	}
	return copyRecord(rec), nil
}

// Create inserts a new record. A missing id is generated according to the
// collection's id kind. An explicit id that already exists is a conflict.
func (c *Collection) Create(data map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := copyRecord(data)
	recID, ok := stored[c.idField]
	if !ok || recID == nil {
		recID = c.generateID()
	} else {
		recID = c.coerceID(recID)
	}
	stored[c.idField] = recID

	key := canonicalID(recID)
	if _, exists := c.items[key]; exists {
		return nil, &ConflictError{Collection: c.name, ID: key}
	}

	c.items[key] = stored
	c.order = append(c.order, key)
	c.bumpNextID(recID)
	return copyRecord(stored), nil
}

// Replace swaps the whole record body for the given id. The stored id is
// preserved regardless of any id field in data, so replaying the same PUT
// is idempotent.
func (c *Collection) Replace(rawID string, data map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.keyFor(rawID)
	existing, ok := c.items[key]
	if !ok {
		return nil, &NotFoundError{Collection: c.name, ID: rawID}
	}

	stored := copyRecord(data)
	stored[c.idField] = existing[c.idField]
	c.items[key] = stored
	return copyRecord(stored), nil
}

// Patch shallow-merges data into the record. The id field cannot be changed.
func (c *Collection) Patch(rawID string, data map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.keyFor(rawID)
	existing, ok := c.items[key]
	if !ok {
		return nil, &NotFoundError{Collection: c.name, ID: rawID}
	}

	for field, value := range data {
		if field == c.idField {
			continue
		}
		existing[field] = copyValue(value)
	}
	return copyRecord(existing), nil
}

// Delete removes the record with the given id.
func (c *Collection) Delete(rawID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.keyFor(rawID)
	if _, ok := c.items[key]; !ok {
		return &NotFoundError{Collection: c.name, ID: rawID}
	}

	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// IDs returns the live record ids in insertion order, typed per the
// collection's id kind.
func (c *Collection) IDs() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]any, 0, len(c.order))
	for _, key := range c.order {
		ids = append(ids, c.items[key][c.idField])
	}
	return ids
}

// generateID produces the next id. Caller holds the write lock.
func (c *Collection) generateID() any {
	if c.idKind == IDKindNumber {
		next := float64(c.nextID)
		c.nextID++
		return next
	}
	return id.UUID()
}

// bumpNextID keeps the numeric sequence ahead of every known id.
// Caller holds the write lock.
func (c *Collection) bumpNextID(recID any) {
	if c.idKind != IDKindNumber {
		return
	}
	if n, ok := toNumber(recID); ok && int64(n) >= c.nextID {
		c.nextID = int64(n) + 1
	}
}

// coerceID aligns a supplied id with the collection's id kind, so a
// numeric collection never stores "7" where seeds used 7 and a string
// collection never stores a bare number. Ids that cannot be converted
// are kept as supplied.
func (c *Collection) coerceID(recID any) any {
	if c.idKind == IDKindNumber {
		if s, ok := recID.(string); ok {
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				return n
			}
		}
		if n, ok := toNumber(recID); ok {
			return n
		}
		return recID
	}
	if n, ok := toNumber(recID); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return recID
}

// keyFor canonicalizes a path id segment into a lookup key. Numeric
// collections normalize "7" and 7.0 to the same key.
func (c *Collection) keyFor(rawID string) string {
	if c.idKind == IDKindNumber {
		if n, err := strconv.ParseFloat(rawID, 64); err == nil {
			return canonicalID(n)
		}
	}
	return rawID
}

// detectIDKind reports numeric ids only when every seeded record carries a
// numeric id. An empty seed defaults to string ids.
func detectIDKind(records []map[string]any, idField string) IDKind {
	sawID := false
	for _, rec := range records {
		recID, ok := rec[idField]
		if !ok || recID == nil {
			continue
		}
		sawID = true
		if _, isNum := toNumber(recID); !isNum {
			return IDKindString
		}
	}
	if sawID {
		return IDKindNumber
	}
	return IDKindString
}

func canonicalID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(id)
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func matchesFilters(rec map[string]any, filters map[string]string) bool {
	for field, want := range filters {
		got, ok := rec[field]
		if !ok {
			return false
		}
		if stringify(got) != want {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}

// copyRecord deep-copies a record so callers can't mutate stored state.
func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyRecord(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
