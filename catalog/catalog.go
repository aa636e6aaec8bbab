package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultLimit is the page size used when List is called without a limit.
const DefaultLimit = 50

// Record is one catalog entry. Payload is never interpreted by the catalog,
// only stored and echoed back.
type Record struct {
	Key     string
	Version string
	Payload json.RawMessage
}

// Page is one slice of the catalog returned by List or ListAt. Offset is
// the position of the first record. NextCursor is empty when no records
// follow the page.
type Page struct {
	Records    []Record
	Offset     int
	NextCursor string
}

// Catalog is an immutable, ordered collection of records with a key index.
// It is safe for concurrent use; nothing mutates it after New returns.
type Catalog struct {
	records  []Record
	index    map[string]int
	loadedAt time.Time
}

// New builds a catalog from records in the given order. Keys must be
// non-empty and unique.
func New(records []Record) (*Catalog, error) {
	c := &Catalog{
		records:  make([]Record, len(records)),
		index:    make(map[string]int, len(records)),
		loadedAt: time.Now().UTC(),
	}

	for i, r := range records {
		if r.Key == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrEmptyKey)
		}
		if prev, exists := c.index[r.Key]; exists {
			return nil, fmt.Errorf("record %d: %w: %q (first seen at %d)", i, ErrDuplicateKey, r.Key, prev)
		}
		c.index[r.Key] = i
		c.records[i] = r
	}

	return c, nil
}

// List returns up to limit records, starting right after the record whose
// key equals cursor. An empty or unknown cursor starts at the beginning. A
// negative limit selects DefaultLimit.
func (c *Catalog) List(cursor string, limit int) Page {
	start := 0
	if cursor != "" {
		if i, ok := c.index[cursor]; ok {
			start = i + 1
		}
	}
	return c.slice(start, limit)
}

// ListAt returns up to limit records starting at position offset. A negative
// offset starts at the beginning and one past the end yields an empty page.
// A negative limit selects DefaultLimit.
func (c *Catalog) ListAt(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if offset > len(c.records) {
		offset = len(c.records)
	}
	return c.slice(offset, limit)
}

func (c *Catalog) slice(start, limit int) Page {
	if limit < 0 {
		limit = DefaultLimit
	}

	end := start + limit
	if end > len(c.records) || end < start {
		end = len(c.records)
	}

	page := Page{Records: make([]Record, end-start), Offset: start}
	copy(page.Records, c.records[start:end])

	if end > start && end < len(c.records) {
		page.NextCursor = c.records[end-1].Key
	}

	return page
}

// GetLatest returns the record stored under key.
func (c *Catalog) GetLatest(key string) (Record, error) {
	i, ok := c.index[key]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return c.records[i], nil
}

// GetVersion returns the record stored under key if its version matches
// exactly. A known key with another version yields ErrVersionNotFound,
// which also matches ErrNotFound.
func (c *Catalog) GetVersion(key, version string) (Record, error) {
	r, err := c.GetLatest(key)
	if err != nil {
		return Record{}, err
	}
	if r.Version != version {
		return Record{}, fmt.Errorf("%w: %s@%s", ErrVersionNotFound, key, version)
	}
	return r, nil
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns a copy of all records in canonical order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Keys returns all keys in canonical order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.records))
	for i, r := range c.records {
		keys[i] = r.Key
	}
	return keys
}

// LoadedAt reports when the catalog was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}
