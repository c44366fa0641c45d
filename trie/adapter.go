// Package trie specifies, but does not implement, the adapter contract a
// trie-backed index would need to satisfy to plug into the version
// manager alongside the B+-tree adapter. Only the interface shape is in
// scope here; the concrete node layout, splitting-free vertical growth,
// and subtree-terminal statistics from
// original_source/src/adapter/trie_adapter.h are deliberately not ported.
package trie

import "cmsedb/page"

// Adapter is the per-character counterpart to btree.Adapter: the version
// manager could drive either through version.TreeAdapter's sibling
// interface for byte-keyed trees, but no type in this module implements
// Adapter.
type Adapter interface {
	InitNode(p *page.Page)
	FindChild(p *page.Page, c byte) int32
	IsTerminal(p *page.Page) bool
	Value(p *page.Page) []byte
	SetTerminal(p *page.Page, terminal bool, value []byte)
	InsertChild(p *page.Page, c byte, childID int32) (ok bool)
	UpdateChildPointer(p *page.Page, c byte, newChildID int32)
	RemoveChild(p *page.Page, c byte)
}
