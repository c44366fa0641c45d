// Package bufferpool caches a fixed number of pages in RAM, backed by a
// disk.Manager and an LRU replacer for eviction. Grounded on
// storage_engine/bufferpool/bufferpool.go for the hit/miss/evict shape and
// its fmt.Printf("[BufferPool] ...") trace texture, and on
// original_source/src/bufferpool/buffer_pool_manager.cpp for the
// find-free-frame / evict-then-reuse sequencing. Unlike the teacher, frame
// slots live in a fixed array with a free-list rather than a plain map —
// this module owns a bounded set of frames, not an unbounded cache, and
// delegates eviction-candidate tracking to replacer.LRU instead of a
// hand-rolled accessOrder slice.
package bufferpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"cmsedb/disk"
	"cmsedb/page"
	"cmsedb/replacer"
	"cmsedb/types"
)

// Verbose gates the "[BufferPool] ..." trace lines; tests leave it false.
var Verbose = false

var (
	// ErrBufferFull means every frame is pinned; there is nowhere to put
	// the requested page.
	ErrBufferFull = errors.New("bufferpool: no free frame available")
	// ErrPageNotFound means the pageID isn't currently resident.
	ErrPageNotFound = errors.New("bufferpool: page not in pool")
	// ErrPinned means a pinned page was asked to be deleted.
	ErrPinned = errors.New("bufferpool: page is pinned")
)

func trace(format string, args ...any) {
	if Verbose {
		fmt.Printf("[BufferPool] "+format+"\n", args...)
	}
}

// Pool is a fixed set of frames fronting a single-file disk.Manager. mu is
// the pool latch: every exported operation takes it for its entire body, so
// the page table, free list and every frame's pin/dirty bits only ever
// change under one lock. The replacer has its own latch underneath this
// one, and the disk manager its own latch underneath that — callers never
// acquire the replacer or disk latch directly, only through a Pool method,
// so lock order is always pool, then replacer, then disk.
type Pool struct {
	mu sync.Mutex

	disk *disk.Manager

	frames    []*page.Page
	pageTable map[types.PageID]int32 // pageID -> frame index
	freeList  []int32
	lru       *replacer.LRU
}

// New creates a pool with room for capacity frames.
func New(capacity int, dm *disk.Manager) *Pool {
	frames := make([]*page.Page, capacity)
	free := make([]int32, capacity)
	for i := range frames {
		frames[i] = page.New()
		free[i] = int32(i)
	}
	return &Pool{
		disk:      dm,
		frames:    frames,
		pageTable: make(map[types.PageID]int32, capacity),
		freeList:  free,
		lru:       replacer.New(),
	}
}

// Capacity returns the fixed number of frames in the pool.
func (p *Pool) Capacity() int { return len(p.frames) }

// FetchPage returns the page for pageID, pinned, loading it from disk on a
// miss. Callers must eventually call UnpinPage.
func (p *Pool) FetchPage(pageID types.PageID) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.pageTable[pageID]; ok {
		fr := p.frames[frameID]
		fr.PinCount++
		p.lru.Pin(frameID)
		trace("HIT  pageID=%d pinCount=%d", pageID, fr.PinCount)
		return fr, nil
	}

	trace("MISS pageID=%d", pageID)
	frameID, err := p.findFreeFrame()
	if err != nil {
		return nil, err
	}
	fr := p.frames[frameID]
	fr.ResetMemory()
	if err := p.disk.ReadPage(pageID, fr.Bytes()); err != nil {
		p.freeList = append(p.freeList, frameID)
		return nil, fmt.Errorf("bufferpool: fetch page %d: %w", pageID, err)
	}
	h := fr.Header()
	h.PageID = pageID
	fr.SetHeader(h)

	p.pageTable[pageID] = frameID
	fr.PinCount = 1
	fr.IsDirty = false
	return fr, nil
}

// NewPage allocates a fresh page ID from the disk manager, assigns it a
// frame, and returns it pinned with IsLeaf/KeyCount left zeroed — callers
// are expected to initialize the header before use.
func (p *Pool) NewPage() (*page.Page, types.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, err := p.findFreeFrame()
	if err != nil {
		return nil, types.InvalidPageID, err
	}

	pageID := p.disk.AllocatePage()
	fr := p.frames[frameID]
	fr.ResetMemory()
	h := fr.Header()
	h.PageID = pageID
	fr.SetHeader(h)
	fr.PinCount = 1
	fr.IsDirty = true

	p.pageTable[pageID] = frameID
	trace("NEW  pageID=%d frame=%d", pageID, frameID)
	return fr, pageID, nil
}

// UnpinPage decrements the pin count for pageID and ORs isDirty into the
// frame's dirty bit — never clears it, since a previous unpin may already
// have marked it dirty.
func (p *Pool) UnpinPage(pageID types.PageID, isDirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("bufferpool: unpin: %w: %d", ErrPageNotFound, pageID)
	}
	fr := p.frames[frameID]
	if fr.PinCount > 0 {
		fr.PinCount--
	}
	if isDirty {
		fr.IsDirty = true
	}
	if fr.PinCount == 0 {
		p.lru.Unpin(frameID)
	}
	return nil
}

// FlushPage writes pageID to disk if it is dirty and clears the dirty bit.
func (p *Pool) FlushPage(pageID types.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushPageLocked(pageID)
}

func (p *Pool) flushPageLocked(pageID types.PageID) error {
	frameID, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("bufferpool: flush: %w: %d", ErrPageNotFound, pageID)
	}
	fr := p.frames[frameID]
	if !fr.IsDirty {
		return nil
	}
	if err := p.disk.WritePage(pageID, fr.Bytes()); err != nil {
		return fmt.Errorf("bufferpool: flush page %d: %w", pageID, err)
	}
	fr.IsDirty = false
	trace("FLUSH pageID=%d bytes=%s", pageID, humanize.Bytes(types.PageSize))
	return nil
}

// FlushAll writes every dirty page to disk, stopping at the first error.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	trace("FlushAll — resident=%d", len(p.pageTable))
	for pageID := range p.pageTable {
		if err := p.flushPageLocked(pageID); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage evicts pageID from the pool without flushing it. It is a
// no-op if the page isn't resident, and fails if the page is pinned.
func (p *Pool) DeletePage(pageID types.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return nil
	}
	fr := p.frames[frameID]
	if fr.PinCount > 0 {
		return fmt.Errorf("bufferpool: delete page %d: %w", pageID, ErrPinned)
	}
	p.lru.Pin(frameID) // drop it from the candidate set, it's being freed outright
	delete(p.pageTable, pageID)
	fr.ResetMemory()
	fr.IsDirty = false
	p.freeList = append(p.freeList, frameID)
	return nil
}

// findFreeFrame returns a frame that holds no resident page: first from the
// free-list, then by evicting the replacer's victim (flushing it first if
// dirty). An evicted frame keeps its old bytes and metadata; callers reset
// it before use. It returns ErrBufferFull if every frame is pinned. Callers
// must already hold p.mu.
func (p *Pool) findFreeFrame() (int32, error) {
	if n := len(p.freeList); n > 0 {
		frameID := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return frameID, nil
	}

	frameID, ok := p.lru.Victim()
	if !ok {
		return 0, ErrBufferFull
	}
	fr := p.frames[frameID]
	victimID := fr.Header().PageID
	if fr.IsDirty {
		trace("EVICT pageID=%d dirty=true — flushing", victimID)
		if err := p.disk.WritePage(victimID, fr.Bytes()); err != nil {
			return 0, fmt.Errorf("bufferpool: evict page %d: %w", victimID, err)
		}
	} else {
		trace("EVICT pageID=%d dirty=false", victimID)
	}
	delete(p.pageTable, victimID)
	return frameID, nil
}
