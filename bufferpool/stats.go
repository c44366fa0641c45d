package bufferpool

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"cmsedb/types"
)

// Stats is a snapshot of pool occupancy. Grounded on
// storage_engine/bufferpool/helpers.go's GetStats/BufferPoolStats.
type Stats struct {
	Resident int
	Capacity int
	Pinned   int
	Dirty    int
	Flushes  uint64
	Written  uint64
}

// Stats returns a snapshot of the current pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Resident: len(p.pageTable),
		Capacity: len(p.frames),
	}
	for _, frameID := range p.pageTable {
		fr := p.frames[frameID]
		if fr.PinCount > 0 {
			s.Pinned++
		}
		if fr.IsDirty {
			s.Dirty++
		}
	}
	s.Flushes = p.disk.NumFlushes()
	s.Written = p.disk.BytesWritten()
	return s
}

// String renders the snapshot with humanized byte counts, the same spirit
// as a human operator tailing the pool's trace lines.
func (s Stats) String() string {
	return fmt.Sprintf(
		"resident=%d/%d pinned=%d dirty=%d flushes=%d written=%s",
		s.Resident, s.Capacity, s.Pinned, s.Dirty, s.Flushes, humanize.Bytes(s.Written),
	)
}

// PageSize is re-exported for callers that want to compute occupancy ratios
// without importing the types package directly.
const PageSize = types.PageSize
