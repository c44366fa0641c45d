// Package version implements copy-on-write versioning over a tree adapter
// and a buffer pool: every update shadow-copies the path from root to leaf
// rather than mutating a committed version's pages in place. Grounded on
// original_source/src/versioning/version_manager.h for the
// createVersion/applyUpdate/commitVersion/abortVersion/readPage shape, and
// on storage_engine/access/indexfile_manager/bplustree's split/promotion
// mechanics (split_leaf.go, split_internal.go, parent_insert.go)
// generalized from "mutate in place" to "copy, then mutate the copy".
package version

import (
	"cmsedb/page"
	"cmsedb/types"
)

// BufferPoolAdapter is what a version Manager needs from a page cache.
// Grounded on original_source/src/adapter/bpm_adapter.h; satisfied by
// *bufferpool.Pool.
type BufferPoolAdapter interface {
	FetchPage(pageID types.PageID) (*page.Page, error)
	UnpinPage(pageID types.PageID, isDirty bool) error
	NewPage() (*page.Page, types.PageID, error)
	FlushPage(pageID types.PageID) error
	FlushAll() error
}

// TreeAdapter is what a version Manager needs from an index implementation
// to perform logical operations on pinned CoW pages. Grounded on
// original_source/src/adapter/tree_adapter.h; satisfied by btree.Adapter.
// A trie-backed index would implement the same interface, per spec.md's
// "tree adapter is one of a family" note — see the trie package for the
// adapter contract that family member would need (not implemented here).
type TreeAdapter interface {
	InitLeaf(p *page.Page)
	IsLeaf(p *page.Page) bool
	FindChild(internal *page.Page, key []byte) types.PageID
	ApplyUpdateToLeaf(leaf *page.Page, key, value []byte) (ok bool, err error)
	InsertIntoInternal(internal *page.Page, promotedKey []byte, rightChild types.PageID) (ok bool, err error)
	UpdateChildPointer(parent *page.Page, oldChild, newChild types.PageID)
	SplitNode(full, newRight *page.Page) (types.SplitResult, error)
	CreateNewRoot(newRoot *page.Page, left, right types.PageID, key []byte) error
	Lookup(leaf *page.Page, key []byte) (value []byte, found bool)
}
