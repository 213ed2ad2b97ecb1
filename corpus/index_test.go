package corpus

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
)

func testEntries() []Entry {
	return []Entry{
		{ID: "p1", Text: "first page"},
		{ID: "p2", Text: ""},
		{ID: "p3", Text: "third page"},
	}
}

func TestNewIndex(t *testing.T) {
	idx, err := NewIndex(testEntries())
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	if idx.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", idx.Len())
	}
	if idx.Revision() == "" {
		t.Error("Expected a revision")
	}

	for i, id := range []string{"p1", "p2", "p3"} {
		pos, ok := idx.IndexOf(id)
		if !ok || pos != i {
			t.Errorf("IndexOf(%q) = %d, %v; want %d", id, pos, ok, i)
		}
		e, err := idx.EntryAt(i)
		if err != nil || e.ID != id {
			t.Errorf("EntryAt(%d) = %+v, %v", i, e, err)
		}
	}

	if e, ok := idx.Lookup("p2"); !ok || e.Text != "" {
		t.Errorf("Lookup(p2) = %+v, %v", e, ok)
	}
	if _, ok := idx.Lookup("missing"); ok {
		t.Error("Lookup of unknown id should fail")
	}
	if _, ok := idx.IndexOf("missing"); ok {
		t.Error("IndexOf of unknown id should fail")
	}

	first, _ := idx.First()
	last, _ := idx.Last()
	if first != "p1" || last != "p3" {
		t.Errorf("First/Last = %q/%q", first, last)
	}
}

func TestNewIndexDuplicate(t *testing.T) {
	_, err := NewIndex([]Entry{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	if !errors.Is(err, pagex.ErrLoad) {
		t.Fatalf("Expected ErrLoad for duplicate id, got %v", err)
	}
}

func TestIndexIsImmutable(t *testing.T) {
	entries := testEntries()
	idx, err := NewIndex(entries)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	entries[0].Text = "changed"
	if e, _ := idx.Lookup("p1"); e.Text != "first page" {
		t.Errorf("index shares caller's slice: %q", e.Text)
	}

	out := idx.Entries()
	out[0].ID = "changed"
	if e, _ := idx.EntryAt(0); e.ID != "p1" {
		t.Errorf("Entries returned internal slice: %q", e.ID)
	}
}

func TestEntryAtOutOfRange(t *testing.T) {
	idx, _ := NewIndex(testEntries())
	for _, pos := range []int{-1, 3, 100} {
		if _, err := idx.EntryAt(pos); !errors.Is(err, pagex.ErrOutOfRange) {
			t.Errorf("EntryAt(%d) error = %v, want ErrOutOfRange", pos, err)
		}
	}
}

func TestEmptyIndex(t *testing.T) {
	idx := Empty()
	if idx.Len() != 0 {
		t.Errorf("Expected empty index, got %d entries", idx.Len())
	}
	if _, ok := idx.First(); ok {
		t.Error("First on empty index should fail")
	}
	if _, ok := idx.Last(); ok {
		t.Error("Last on empty index should fail")
	}
	if _, err := idx.EntryAt(0); !errors.Is(err, pagex.ErrOutOfRange) {
		t.Errorf("EntryAt(0) error = %v", err)
	}
}

func TestRevisionsDiffer(t *testing.T) {
	a, _ := NewIndex(testEntries())
	b, _ := NewIndex(testEntries())
	if a.Revision() == b.Revision() {
		t.Error("Expected each index to get its own revision")
	}
}
