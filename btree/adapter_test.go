package btree

import (
	"bytes"
	"fmt"
	"testing"

	"cmsedb/page"
)

func newLeaf() *page.Page {
	p := page.New()
	NewAdapter().InitLeaf(p)
	return p
}

func TestApplyUpdateToLeafInsertAndOverwrite(t *testing.T) {
	a := NewAdapter()
	leaf := newLeaf()

	ok, err := a.ApplyUpdateToLeaf(leaf, []byte("b"), []byte("2"))
	if err != nil || !ok {
		t.Fatalf("insert b: ok=%v err=%v", ok, err)
	}
	ok, err = a.ApplyUpdateToLeaf(leaf, []byte("a"), []byte("1"))
	if err != nil || !ok {
		t.Fatalf("insert a: ok=%v err=%v", ok, err)
	}
	if a.KeyCount(leaf) != 2 {
		t.Fatalf("KeyCount = %d, want 2", a.KeyCount(leaf))
	}

	val, found := a.Lookup(leaf, []byte("a"))
	if !found || !bytes.Equal(val, []byte("1")) {
		t.Fatalf("Lookup(a) = (%q, %v), want (1, true)", val, found)
	}

	ok, err = a.ApplyUpdateToLeaf(leaf, []byte("a"), []byte("99"))
	if err != nil || !ok {
		t.Fatalf("overwrite a: ok=%v err=%v", ok, err)
	}
	val, _ = a.Lookup(leaf, []byte("a"))
	if !bytes.Equal(val, []byte("99")) {
		t.Fatalf("Lookup(a) after overwrite = %q, want 99", val)
	}
	if a.KeyCount(leaf) != 2 {
		t.Fatalf("KeyCount after overwrite = %d, want 2 (overwrite must not grow the node)", a.KeyCount(leaf))
	}
}

func TestApplyUpdateToLeafFullReturnsFalse(t *testing.T) {
	a := NewAdapter()
	leaf := newLeaf()

	for i := 0; i < MaxKeys; i++ {
		key := []byte(fmt.Sprintf("k%02d", i))
		if ok, err := a.ApplyUpdateToLeaf(leaf, key, []byte("v")); err != nil || !ok {
			t.Fatalf("insert %d: ok=%v err=%v", i, ok, err)
		}
	}

	ok, err := a.ApplyUpdateToLeaf(leaf, []byte("overflow"), []byte("v"))
	if err != nil {
		t.Fatalf("insert into full leaf: unexpected error %v", err)
	}
	if ok {
		t.Fatalf("insert into full leaf: ok=true, want false (needs split)")
	}
}

func TestSplitLeafPreservesAllKeysAndOrder(t *testing.T) {
	a := NewAdapter()
	leaf := newLeaf()
	h := leaf.Header()
	h.PageID = 1
	leaf.SetHeader(h)

	for i := 0; i < MaxKeys; i++ {
		key := []byte(fmt.Sprintf("k%02d", i))
		if _, err := a.ApplyUpdateToLeaf(leaf, key, []byte("v")); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	right := page.New()
	rh := right.Header()
	rh.PageID = 2
	right.SetHeader(rh)

	res, err := a.SplitNode(leaf, right)
	if err != nil {
		t.Fatalf("SplitNode: %v", err)
	}
	if !res.DidSplit || res.Left != 1 || res.Right != 2 {
		t.Fatalf("SplitResult = %+v, unexpected", res)
	}

	total := a.KeyCount(leaf) + a.KeyCount(right)
	if total != MaxKeys {
		t.Fatalf("split lost keys: left=%d right=%d total=%d, want %d", a.KeyCount(leaf), a.KeyCount(right), total, MaxKeys)
	}

	leftKeys, _, next := decodeLeaf(leaf)
	rightKeys, _, _ := decodeLeaf(right)
	if next != 2 {
		t.Fatalf("left leaf next = %d, want 2 (the new right sibling)", next)
	}
	if bytes.Compare(leftKeys[len(leftKeys)-1], rightKeys[0]) >= 0 {
		t.Fatalf("split did not preserve sort order across the split point")
	}
	if !bytes.Equal(rightKeys[0], res.PromotedKey) {
		t.Fatalf("PromotedKey = %q, want right leaf's first key %q", res.PromotedKey, rightKeys[0])
	}
}

func TestFindChildRoutesByKey(t *testing.T) {
	a := NewAdapter()
	internal := page.New()
	a.InitInternal(internal)
	if err := encodeInternal(internal, [][]byte{[]byte("m")}, []int32{10, 20}); err != nil {
		t.Fatalf("encodeInternal: %v", err)
	}

	if got := a.FindChild(internal, []byte("a")); got != 10 {
		t.Fatalf("FindChild(a) = %d, want 10", got)
	}
	if got := a.FindChild(internal, []byte("m")); got != 20 {
		t.Fatalf("FindChild(m) = %d, want 20 (equal to separator routes right)", got)
	}
	if got := a.FindChild(internal, []byte("z")); got != 20 {
		t.Fatalf("FindChild(z) = %d, want 20", got)
	}
}

func TestUpdateChildPointerRewritesMatchingEntry(t *testing.T) {
	a := NewAdapter()
	internal := page.New()
	a.InitInternal(internal)
	_ = encodeInternal(internal, [][]byte{[]byte("m")}, []int32{10, 20})

	a.UpdateChildPointer(internal, 10, 99)
	_, children := decodeInternal(internal)
	if children[0] != 99 || children[1] != 20 {
		t.Fatalf("children after UpdateChildPointer = %v, want [99 20]", children)
	}
}

func TestCreateNewRoot(t *testing.T) {
	a := NewAdapter()
	root := page.New()
	if err := a.CreateNewRoot(root, 1, 2, []byte("m")); err != nil {
		t.Fatalf("CreateNewRoot: %v", err)
	}
	if a.IsLeaf(root) {
		t.Fatalf("new root reports IsLeaf=true")
	}
	keys, children := decodeInternal(root)
	if len(keys) != 1 || !bytes.Equal(keys[0], []byte("m")) {
		t.Fatalf("root keys = %v, want [m]", keys)
	}
	if children[0] != 1 || children[1] != 2 {
		t.Fatalf("root children = %v, want [1 2]", children)
	}
}
