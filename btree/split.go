package btree

import (
	"cmsedb/page"
	"cmsedb/types"
)

// SplitNode splits full (a node that has reached MaxKeys) into full (keeping the
// lower half) and newRight (an empty page the caller allocated, taking the
// upper half). Grounded on split_leaf.go / split_internal.go's
// mid-point split, generalized to work on either node kind from one
// function the way original_source's BTreeAdapter::splitNode does.
func (Adapter) SplitNode(full, newRight *page.Page) (types.SplitResult, error) {
	if IsLeaf(full) {
		return splitLeaf(full, newRight)
	}
	return splitInternal(full, newRight)
}

func splitLeaf(full, newRight *page.Page) (types.SplitResult, error) {
	keys, values, next := decodeLeaf(full)
	mid := len(keys) / 2

	rightKeys := append([][]byte(nil), keys[mid:]...)
	rightValues := append([][]byte(nil), values[mid:]...)
	leftKeys := keys[:mid]
	leftValues := values[:mid]

	rightID := newRight.Header().PageID
	if err := encodeLeaf(newRight, rightKeys, rightValues, next); err != nil {
		return types.SplitResult{}, err
	}
	if err := encodeLeaf(full, leftKeys, leftValues, rightID); err != nil {
		return types.SplitResult{}, err
	}

	return types.SplitResult{
		DidSplit:    true,
		Left:        full.Header().PageID,
		Right:       rightID,
		PromotedKey: rightKeys[0],
	}, nil
}

func splitInternal(full, newRight *page.Page) (types.SplitResult, error) {
	keys, children := decodeInternal(full)
	mid := len(keys) / 2
	promoted := keys[mid]

	rightKeys := append([][]byte(nil), keys[mid+1:]...)
	rightChildren := append([]types.PageID(nil), children[mid+1:]...)
	leftKeys := keys[:mid]
	leftChildren := children[:mid+1]

	if err := encodeInternal(newRight, rightKeys, rightChildren); err != nil {
		return types.SplitResult{}, err
	}
	if err := encodeInternal(full, leftKeys, leftChildren); err != nil {
		return types.SplitResult{}, err
	}

	return types.SplitResult{
		DidSplit:    true,
		Left:        full.Header().PageID,
		Right:       newRight.Header().PageID,
		PromotedKey: promoted,
	}, nil
}

// CreateNewRoot turns newRoot into a fresh internal node with a single
// separator key between left and right — the step that grows tree height
// by one when the previous root splits.
func (Adapter) CreateNewRoot(newRoot *page.Page, left, right types.PageID, key []byte) error {
	id := newRoot.Header().PageID
	newRoot.ResetMemory()
	if err := encodeInternal(newRoot, [][]byte{key}, []types.PageID{left, right}); err != nil {
		return err
	}
	setPageID(newRoot, id)
	return nil
}

// IsLeaf is a free-function form of Adapter.IsLeaf for callers (like
// SplitNode) that don't carry an Adapter value around.
func IsLeaf(p *page.Page) bool { return p.Header().IsLeaf == 1 }
