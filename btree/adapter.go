// Package btree implements the tree-adapter operations spec.md's version
// manager drives: pure byte-level reads and writes on a single pinned
// page, with no knowledge of the buffer pool or of versions. Grounded on
// storage_engine/access/indexfile_manager/bplustree's serialization and
// split mechanics for the byte layout, and on
// original_source/src/adapter/tree_adapter.h and btree_adapter.h for the
// method names and split signature (isLeaf, findChild, applyUpdateToLeaf,
// insertIntoInternal, updateChildPointer, splitNode, createNewRoot).
//
// Unlike both grounding sources, Adapter never mutates a page in place on
// behalf of a caller that expects copy-on-write — it always operates on
// whatever page it's handed, and the version manager is the one deciding
// whether that page is a fresh shadow copy or a base page being read only.
package btree

import (
	"bytes"
	"sort"

	"cmsedb/page"
	"cmsedb/types"
)

// Adapter is a stateless implementation of version.TreeAdapter for a
// B+-tree keyed by bytes.Compare ordering.
type Adapter struct{}

// NewAdapter returns the B+-tree tree-adapter.
func NewAdapter() Adapter { return Adapter{} }

// InitLeaf resets p to an empty leaf with no next pointer. p's own page ID,
// assigned earlier by the buffer pool, survives the reset the same way
// copyInto preserves it across a raw-byte copy.
func (Adapter) InitLeaf(p *page.Page) {
	id := p.Header().PageID
	p.ResetMemory()
	_ = encodeLeaf(p, nil, nil, types.InvalidPageID)
	setPageID(p, id)
}

// InitInternal resets p to an empty internal node, preserving p's page ID
// the same way InitLeaf does.
func (Adapter) InitInternal(p *page.Page) {
	id := p.Header().PageID
	p.ResetMemory()
	_ = encodeInternal(p, nil, []types.PageID{types.InvalidPageID})
	setPageID(p, id)
}

func setPageID(p *page.Page, id types.PageID) {
	h := p.Header()
	h.PageID = id
	p.SetHeader(h)
}

// IsLeaf reports whether p's header marks it a leaf.
func (Adapter) IsLeaf(p *page.Page) bool { return p.Header().IsLeaf == 1 }

// KeyCount returns the number of keys currently stored in p.
func (Adapter) KeyCount(p *page.Page) int { return int(p.Header().KeyCount) }

// FindChild returns the child pointer an internal node routes key through:
// the child immediately left of the first key strictly greater than key.
func (Adapter) FindChild(internal *page.Page, key []byte) types.PageID {
	keys, children := decodeInternal(internal)
	idx := sort.Search(len(keys), func(i int) bool { return bytes.Compare(keys[i], key) > 0 })
	return children[idx]
}

// ApplyUpdateToLeaf inserts or overwrites key/value in leaf. ok is false if
// the leaf is full and a split is needed; err is non-nil only for a
// malformed write (oversized key/value).
func (Adapter) ApplyUpdateToLeaf(leaf *page.Page, key, value []byte) (ok bool, err error) {
	keys, values, next := decodeLeaf(leaf)
	idx := sort.Search(len(keys), func(i int) bool { return bytes.Compare(keys[i], key) >= 0 })

	if idx < len(keys) && bytes.Equal(keys[idx], key) {
		values[idx] = value
		if err := encodeLeaf(leaf, keys, values, next); err != nil {
			return false, err
		}
		return true, nil
	}

	if len(keys) >= MaxKeys {
		return false, nil
	}

	keys = insertAt(keys, idx, key)
	values = insertAt(values, idx, value)
	if err := encodeLeaf(leaf, keys, values, next); err != nil {
		return false, err
	}
	return true, nil
}

// InsertIntoInternal inserts promotedKey and the pointer to its right
// child. ok is false if internal is full and a split is needed.
func (Adapter) InsertIntoInternal(internal *page.Page, promotedKey []byte, rightChild types.PageID) (ok bool, err error) {
	keys, children := decodeInternal(internal)
	if len(keys) >= MaxKeys {
		return false, nil
	}
	idx := sort.Search(len(keys), func(i int) bool { return bytes.Compare(keys[i], promotedKey) > 0 })
	keys = insertAt(keys, idx, promotedKey)
	children = insertAt(children, idx+1, rightChild)
	if err := encodeInternal(internal, keys, children); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateChildPointer rewrites the first occurrence of oldChild in parent's
// child array to newChild, the step that makes a shadow copy visible to
// its parent.
func (Adapter) UpdateChildPointer(parent *page.Page, oldChild, newChild types.PageID) {
	keys, children := decodeInternal(parent)
	for i, c := range children {
		if c == oldChild {
			children[i] = newChild
			break
		}
	}
	_ = encodeInternal(parent, keys, children)
}

// Lookup returns the value stored for key in leaf, if any. It's the
// read-only counterpart to ApplyUpdateToLeaf, used by snapshot reads that
// never need to modify a page.
func (Adapter) Lookup(leaf *page.Page, key []byte) (value []byte, found bool) {
	keys, values, _ := decodeLeaf(leaf)
	idx := sort.Search(len(keys), func(i int) bool { return bytes.Compare(keys[i], key) >= 0 })
	if idx < len(keys) && bytes.Equal(keys[idx], key) {
		return values[idx], true
	}
	return nil, false
}

func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
