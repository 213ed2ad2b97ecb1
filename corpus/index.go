// Package corpus holds the ordered, immutable index of page texts that
// ranking and navigation read from.
package corpus

import (
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/segmentio/ksuid"
)

// Entry is one indexed page.
type Entry struct {
	// ID is the opaque page identifier.
	ID string `json:"id"`
	// Text is the full indexed text of the page. It may be empty.
	Text string `json:"text"`
}

// Index is an ordered collection of entries. The order is fixed when the
// index is built and defines next/previous for navigation. An Index is never
// modified after construction and is safe for concurrent use.
type Index struct {
	entries   []Entry
	positions map[string]int // maps page ID to its position in entries
	revision  string
}

// NewIndex builds an index from entries in corpus order. It fails with
// pagex.ErrLoad if an identifier appears more than once.
func NewIndex(entries []Entry) (*Index, error) {
	idx := &Index{
		entries:   make([]Entry, len(entries)),
		positions: make(map[string]int, len(entries)),
		revision:  ksuid.New().String(),
	}
	copy(idx.entries, entries)

	for i, e := range idx.entries {
		if prev, exists := idx.positions[e.ID]; exists {
			return nil, errors.Wrapf(pagex.ErrLoad, "duplicate page identifier %q at positions %d and %d", e.ID, prev, i)
		}
		idx.positions[e.ID] = i
	}

	return idx, nil
}

// Empty returns an index with no entries.
func Empty() *Index {
	idx, _ := NewIndex(nil)
	return idx
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Revision returns the unique identifier minted when the index was built.
func (x *Index) Revision() string {
	return x.revision
}

// Entries returns a copy of all entries in corpus order.
func (x *Index) Entries() []Entry {
	out := make([]Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

// IndexOf returns the position of id. The boolean is false if id is not a member.
func (x *Index) IndexOf(id string) (int, bool) {
	pos, ok := x.positions[id]
	return pos, ok
}

// EntryAt returns the entry at pos, or pagex.ErrOutOfRange when pos is
// outside [0, Len()).
func (x *Index) EntryAt(pos int) (Entry, error) {
	if pos < 0 || pos >= len(x.entries) {
		return Entry{}, errors.Wrapf(pagex.ErrOutOfRange, "position %d outside [0,%d)", pos, len(x.entries))
	}
	return x.entries[pos], nil
}

// Lookup returns the entry with the given identifier.
func (x *Index) Lookup(id string) (Entry, bool) {
	pos, ok := x.positions[id]
	if !ok {
		return Entry{}, false
	}
	return x.entries[pos], true
}

// First returns the identifier of the first entry.
func (x *Index) First() (string, bool) {
	if len(x.entries) == 0 {
		return "", false
	}
	return x.entries[0].ID, true
}

// Last returns the identifier of the last entry.
func (x *Index) Last() (string, bool) {
	if len(x.entries) == 0 {
		return "", false
	}
	return x.entries[len(x.entries)-1].ID, true
}

// Index returns x itself, so a fixed index can be used wherever a Source is
// expected.
func (x *Index) Index() *Index {
	return x
}

// Source supplies the index to read from. *Index and *Holder implement it.
type Source interface {
	Index() *Index
}
