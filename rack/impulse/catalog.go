package impulse

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned while building a catalog.
var (
	ErrInvalidEntry  = errors.New("impulse: invalid catalog entry")
	ErrDuplicateName = errors.New("impulse: duplicate catalog name")
)

// Entry names one impulse response and where to fetch it.
type Entry struct {
	Name    string
	Locator string
}

// Catalog is an ordered set of impulse entries. Order is declaration order
// and is what index-based selection refers to.
type Catalog struct {
	entries []Entry
}

// NewCatalog validates entries and returns them as a catalog.
func NewCatalog(entries ...Entry) (Catalog, error) {
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if e.Name == "" || e.Locator == "" {
			return Catalog{}, fmt.Errorf("%w: %+v", ErrInvalidEntry, e)
		}

		if _, dup := seen[e.Name]; dup {
			return Catalog{}, fmt.Errorf("%w: %s", ErrDuplicateName, e.Name)
		}

		seen[e.Name] = struct{}{}
	}

	return Catalog{entries: append([]Entry(nil), entries...)}, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(entries ...Entry) Catalog {
	c, err := NewCatalog(entries...)
	if err != nil {
		panic(err)
	}

	return c
}

// ParseEntry parses "name=locator".
func ParseEntry(s string) (Entry, error) {
	name, locator, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	locator = strings.TrimSpace(locator)

	if !ok || name == "" || locator == "" {
		return Entry{}, fmt.Errorf("%w: %q (want name=locator)", ErrInvalidEntry, s)
	}

	return Entry{Name: name, Locator: locator}, nil
}

// Len returns the number of entries.
func (c Catalog) Len() int {
	return len(c.entries)
}

// At returns the i-th entry in declaration order.
func (c Catalog) At(i int) Entry {
	return c.entries[i]
}

// Entries returns a copy of the entries.
func (c Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Names returns the entry names in declaration order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}

	return names
}

// Index returns the position of name, or -1.
func (c Catalog) Index(name string) int {
	for i, e := range c.entries {
		if e.Name == name {
			return i
		}
	}

	return -1
}
