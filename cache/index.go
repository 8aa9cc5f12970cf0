package cache

import (
	"container/list"
	"sync"
	"time"
)

// IndexEntry describes a single cached file.
type IndexEntry struct {
	// Name is the cache file name (see FileName).
	Name string
	// Size is the on-disk size of the file in bytes.
	Size uint64
	// Seq is a monotonically increasing insertion number.
	Seq uint64
	// AddedAt is when the entry was inserted.
	AddedAt time.Time
}

// Index tracks cached entries in insertion order and their aggregate size.
// Lookups never change an entry's position, so eviction order is FIFO.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front is oldest
	total   uint64
	seq     uint64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Add inserts an entry as the newest. If name is already indexed the old entry
// is replaced and moves to the back, since the file was rewritten.
func (idx *Index) Add(name string, size uint64, addedAt time.Time) IndexEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if elem, ok := idx.entries[name]; ok {
		idx.removeElement(elem)
	}

	idx.seq++
	entry := &IndexEntry{
		Name:    name,
		Size:    size,
		Seq:     idx.seq,
		AddedAt: addedAt,
	}
	idx.entries[name] = idx.order.PushBack(entry)
	idx.total += size

	return *entry
}

// Remove deletes name from the index, returning the removed entry.
func (idx *Index) Remove(name string) (IndexEntry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	elem, ok := idx.entries[name]
	if !ok {
		return IndexEntry{}, false
	}
	return idx.removeElement(elem), true
}

// removeElement assumes idx.mu is held.
func (idx *Index) removeElement(elem *list.Element) IndexEntry {
	entry := idx.order.Remove(elem).(*IndexEntry)
	delete(idx.entries, entry.Name)
	idx.total -= entry.Size
	return *entry
}

// Get returns the entry for name without affecting eviction order.
func (idx *Index) Get(name string) (IndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	elem, ok := idx.entries[name]
	if !ok {
		return IndexEntry{}, false
	}
	return *elem.Value.(*IndexEntry), true
}

// Contains reports whether name is indexed.
func (idx *Index) Contains(name string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.entries[name]
	return ok
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// TotalSize returns the sum of all entry sizes.
func (idx *Index) TotalSize() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.total
}

// EvictOver removes the oldest entries until the total size is at most limit
// and returns them, oldest first. The remaining entries are the longest
// suffix of the insertion sequence whose cumulative size fits in limit.
func (idx *Index) EvictOver(limit uint64) []IndexEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var evicted []IndexEntry
	for idx.total > limit {
		front := idx.order.Front()
		if front == nil {
			break
		}
		evicted = append(evicted, idx.removeElement(front))
	}
	return evicted
}

// Entries returns a snapshot of all entries, oldest first.
func (idx *Index) Entries() []IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := make([]IndexEntry, 0, len(idx.entries))
	for elem := idx.order.Front(); elem != nil; elem = elem.Next() {
		entries = append(entries, *elem.Value.(*IndexEntry))
	}
	return entries
}
