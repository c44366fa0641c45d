// Package replacer implements the LRU eviction candidate set used by the
// buffer pool. Grounded on original_source/src/bufferpool/lru_replacer.cpp
// (std::list + std::unordered_map<frame_id_t, iterator>), re-expressed with
// container/list and a map[int32]*list.Element index — the same pairing
// other ported bustub-style engines in the pack use for latch/page-pool
// bookkeeping (other_examples/ryogrid-sametree__bufmgr.go).
package replacer

import (
	"container/list"
	"sync"
)

// LRU tracks frames eligible for eviction: most-recently-unpinned at the
// front, least-recently-unpinned at the back.
type LRU struct {
	mu    sync.Mutex
	order *list.List
	index map[int32]*list.Element
}

// New returns an empty replacer.
func New() *LRU {
	return &LRU{
		order: list.New(),
		index: make(map[int32]*list.Element),
	}
}

// Victim removes and returns the least-recently-unpinned frame. ok is false
// if no frame is eligible.
func (r *LRU) Victim() (frameID int32, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	back := r.order.Back()
	if back == nil {
		return 0, false
	}
	r.order.Remove(back)
	frameID = back.Value.(int32)
	delete(r.index, frameID)
	return frameID, true
}

// Pin removes frameID from the eviction candidate set, if present. Calling
// Pin on a frame that isn't tracked (already pinned, or never unpinned) is
// a no-op.
func (r *LRU) Pin(frameID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.index[frameID]; ok {
		r.order.Remove(el)
		delete(r.index, frameID)
	}
}

// Unpin marks frameID as an eviction candidate, inserting it at the front
// (most recently used). Calling Unpin on a frame already tracked does not
// move it — it does not reset recency on a repeated unpin.
func (r *LRU) Unpin(frameID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[frameID]; ok {
		return
	}
	el := r.order.PushFront(frameID)
	r.index[frameID] = el
}

// Size reports how many frames are currently eviction candidates.
func (r *LRU) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}
