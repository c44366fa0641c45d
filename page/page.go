// Package page defines the frame unit the buffer pool hands out: a fixed
// 4096-byte buffer carrying a small fixed header plus pin/dirty metadata.
// It mirrors storage_engine/page/page.go's merge of data buffer and
// pin/dirty bookkeeping into one type, rather than splitting "page" and
// "frame" into two types the way spec.md's prose does but neither the
// teacher nor the original C++ cmse::Page actually does.
package page

import (
	"encoding/binary"

	"cmsedb/types"
)

// HeaderSize is the number of bytes the header occupies at offset 0.
const HeaderSize = 20

const (
	offPageID          = 0
	offCreationVersion = 4
	offKeyCount        = 12
	offIsLeaf          = 16
)

// PageHeader is the fixed-layout header stored little-endian at offset 0
// of every page's buffer.
type PageHeader struct {
	PageID          int32
	CreationVersion uint64
	KeyCount        uint32
	IsLeaf          uint8
}

// Page is one frame slot: a full PageSize buffer (header + payload) plus
// the pin count and dirty bit the buffer pool owns.
type Page struct {
	data []byte

	// PinCount and IsDirty are owned by the buffer pool, not by Page
	// itself; they are exported fields (as in the teacher's page.Page)
	// rather than hidden behind a friend-class boundary Go doesn't have.
	PinCount uint32
	IsDirty  bool
}

// New allocates a zeroed page with PageID set to InvalidPageID.
func New() *Page {
	p := &Page{data: make([]byte, types.PageSize)}
	h := p.Header()
	h.PageID = types.InvalidPageID
	p.SetHeader(h)
	return p
}

// Bytes returns the full frame, header included. Disk I/O must always use
// this, never Payload alone — the byte-layout rule spec.md calls out after
// the original C++ bug where GetData() (payload-only) was passed to a call
// site expecting the full frame.
func (p *Page) Bytes() []byte { return p.data }

// Payload returns the bytes after the header.
func (p *Page) Payload() []byte { return p.data[HeaderSize:] }

// Header decodes the header fields from the buffer.
func (p *Page) Header() PageHeader {
	b := p.data
	return PageHeader{
		PageID:          int32(binary.LittleEndian.Uint32(b[offPageID:])),
		CreationVersion: binary.LittleEndian.Uint64(b[offCreationVersion:]),
		KeyCount:        binary.LittleEndian.Uint32(b[offKeyCount:]),
		IsLeaf:          b[offIsLeaf],
	}
}

// SetHeader encodes h into the buffer, leaving the reserved bytes zero.
func (p *Page) SetHeader(h PageHeader) {
	b := p.data
	binary.LittleEndian.PutUint32(b[offPageID:], uint32(h.PageID))
	binary.LittleEndian.PutUint64(b[offCreationVersion:], h.CreationVersion)
	binary.LittleEndian.PutUint32(b[offKeyCount:], h.KeyCount)
	b[offIsLeaf] = h.IsLeaf
	b[offIsLeaf+1] = 0
	b[offIsLeaf+2] = 0
	b[offIsLeaf+3] = 0
}

// ResetMemory zeroes the whole buffer, header included.
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}
