package corpus

import "sync/atomic"

// Holder publishes the current index to concurrent readers. Replacing the
// index swaps a pointer; readers never lock and never observe a partially
// built index.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder returns a holder publishing idx. A nil idx publishes an empty index.
func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	if idx == nil {
		idx = Empty()
	}
	h.current.Store(idx)
	return h
}

// Index returns the currently published index.
func (h *Holder) Index() *Index {
	return h.current.Load()
}

// Swap publishes idx and returns the index it replaced. A nil idx is ignored
// and the current index is returned.
func (h *Holder) Swap(idx *Index) *Index {
	if idx == nil {
		return h.current.Load()
	}
	return h.current.Swap(idx)
}
