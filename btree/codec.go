package btree

import (
	"encoding/binary"
	"fmt"

	"cmsedb/page"
	"cmsedb/types"
)

// Size limits, scaled down from the teacher's MaxKeys=32/MaxKeyLen=256/
// MaxValLen=4096 (storage_engine/access/indexfile_manager/bplustree/struct.go)
// to fit one 4076-byte page payload instead of the teacher's separately
// sized index pages.
const (
	MaxKeys   = 32
	MinKeys   = MaxKeys / 2
	MaxKeyLen = 32
	MaxValLen = 64
)

const offNextLeaf = 0 // first 4 bytes of payload, leaf-only

// Node-kind and key-count live in the page header itself (types set by
// spec.md's PageHeader), unlike the teacher's node_to_index_page.go which
// repeats them in the payload because its own page header doesn't carry
// them.
//
// Leaf payload, starting at offNextLeaf+4:
//
//	numKeys × [ keyLen uint16 | key ]
//	numKeys × [ valLen uint16 | val ]
//
// Internal payload, starting at offNextLeaf+4 (next-leaf slot unused):
//
//	numKeys × [ keyLen uint16 | key ]
//	(numKeys+1) × [ childID int32 ]

func decodeLeaf(p *page.Page) (keys, values [][]byte, next types.PageID) {
	body := p.Payload()
	next = int32(binary.LittleEndian.Uint32(body[offNextLeaf:]))
	n := int(p.Header().KeyCount)
	off := 4
	keys = make([][]byte, n)
	for i := 0; i < n; i++ {
		l := int(binary.LittleEndian.Uint16(body[off:]))
		off += 2
		keys[i] = append([]byte(nil), body[off:off+l]...)
		off += l
	}
	values = make([][]byte, n)
	for i := 0; i < n; i++ {
		l := int(binary.LittleEndian.Uint16(body[off:]))
		off += 2
		values[i] = append([]byte(nil), body[off:off+l]...)
		off += l
	}
	return keys, values, next
}

func encodeLeaf(p *page.Page, keys, values [][]byte, next types.PageID) error {
	body := p.Payload()
	binary.LittleEndian.PutUint32(body[offNextLeaf:], uint32(next))
	off := 4
	for _, k := range keys {
		if len(k) > MaxKeyLen {
			return fmt.Errorf("btree: key too long (%d bytes, max %d)", len(k), MaxKeyLen)
		}
		if off+2+len(k) > len(body) {
			return fmt.Errorf("btree: leaf overflow writing keys")
		}
		binary.LittleEndian.PutUint16(body[off:], uint16(len(k)))
		off += 2
		copy(body[off:], k)
		off += len(k)
	}
	for _, v := range values {
		if len(v) > MaxValLen {
			return fmt.Errorf("btree: value too long (%d bytes, max %d)", len(v), MaxValLen)
		}
		if off+2+len(v) > len(body) {
			return fmt.Errorf("btree: leaf overflow writing values")
		}
		binary.LittleEndian.PutUint16(body[off:], uint16(len(v)))
		off += 2
		copy(body[off:], v)
		off += len(v)
	}

	h := p.Header()
	h.IsLeaf = 1
	h.KeyCount = uint32(len(keys))
	p.SetHeader(h)
	return nil
}

func decodeInternal(p *page.Page) (keys [][]byte, children []types.PageID) {
	body := p.Payload()
	n := int(p.Header().KeyCount)
	off := 4
	keys = make([][]byte, n)
	for i := 0; i < n; i++ {
		l := int(binary.LittleEndian.Uint16(body[off:]))
		off += 2
		keys[i] = append([]byte(nil), body[off:off+l]...)
		off += l
	}
	children = make([]types.PageID, n+1)
	for i := 0; i <= n; i++ {
		children[i] = int32(binary.LittleEndian.Uint32(body[off:]))
		off += 4
	}
	return keys, children
}

func encodeInternal(p *page.Page, keys [][]byte, children []types.PageID) error {
	if len(children) != len(keys)+1 {
		return fmt.Errorf("btree: internal node needs len(children) == len(keys)+1, got %d keys %d children", len(keys), len(children))
	}
	body := p.Payload()
	invalidPageID := types.InvalidPageID
	binary.LittleEndian.PutUint32(body[offNextLeaf:], uint32(invalidPageID))
	off := 4
	for _, k := range keys {
		if len(k) > MaxKeyLen {
			return fmt.Errorf("btree: key too long (%d bytes, max %d)", len(k), MaxKeyLen)
		}
		if off+2+len(k) > len(body) {
			return fmt.Errorf("btree: internal overflow writing keys")
		}
		binary.LittleEndian.PutUint16(body[off:], uint16(len(k)))
		off += 2
		copy(body[off:], k)
		off += len(k)
	}
	for _, c := range children {
		if off+4 > len(body) {
			return fmt.Errorf("btree: internal overflow writing children")
		}
		binary.LittleEndian.PutUint32(body[off:], uint32(c))
		off += 4
	}

	h := p.Header()
	h.IsLeaf = 0
	h.KeyCount = uint32(len(keys))
	p.SetHeader(h)
	return nil
}
