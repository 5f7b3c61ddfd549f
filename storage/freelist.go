package storage

import (
	"cmp"
	"slices"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// FreeList tracks reclaimed page numbers. Allocate always hands out the
// smallest freed page, so data is packed towards the front of the file.
type FreeList struct {
	heap   *binaryheap.Heap
	member map[PageID]struct{} // guards against double frees
}

// NewFreeList creates an empty freelist
func NewFreeList() *FreeList {
	return &FreeList{
		heap: binaryheap.NewWith(func(a, b interface{}) int {
			return cmp.Compare(a.(PageID), b.(PageID))
		}),
		member: make(map[PageID]struct{}),
	}
}

// Allocate pops the smallest free page. ok is false when the list is empty.
func (f *FreeList) Allocate() (id PageID, ok bool) {
	v, ok := f.heap.Pop()
	if !ok {
		return 0, false
	}
	id = v.(PageID)
	delete(f.member, id)
	return id, true
}

// Free returns a page to the list. Freeing a page twice is a no-op.
func (f *FreeList) Free(id PageID) {
	if _, dup := f.member[id]; dup {
		return
	}
	f.member[id] = struct{}{}
	f.heap.Push(id)
}

// Len returns the number of free pages.
func (f *FreeList) Len() int {
	return f.heap.Size()
}

// Pages returns the free pages in ascending order without modifying the list.
func (f *FreeList) Pages() []PageID {
	ids := make([]PageID, 0, f.heap.Size())
	for id := range f.member {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
