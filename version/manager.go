package version

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"cmsedb/page"
	"cmsedb/types"
)

// Verbose gates the "[VersionManager] ..." commit fingerprint line.
var Verbose = false

// ErrUnknownVersion is returned for any operation naming a version that
// was never created, or was already committed/aborted.
var ErrUnknownVersion = errors.New("version: unknown version")

// Manager coordinates the buffer pool and a tree adapter to give every
// update its own copy-on-write path from root to leaf.
type Manager struct {
	mu   sync.Mutex
	pool BufferPoolAdapter
	tree TreeAdapter

	nextVersion types.VersionT
	staged      map[types.VersionT]types.PageID
	committed   map[types.VersionT]types.VersionInfo
	order       []types.VersionT
}

// New returns a Manager with no committed versions yet.
func New(pool BufferPoolAdapter, tree TreeAdapter) *Manager {
	return &Manager{
		pool:      pool,
		tree:      tree,
		staged:    make(map[types.VersionT]types.PageID),
		committed: make(map[types.VersionT]types.VersionInfo),
	}
}

// CreateVersion starts a new version and returns its ID.
func (m *Manager) CreateVersion() types.VersionT {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextVersion++
	v := m.nextVersion
	m.staged[v] = types.InvalidPageID
	return v
}

// ApplyUpdate inserts or overwrites key/value, reading the tree as of
// baseVersion (or types.InvalidVersion for an empty tree) and staging the
// result under v. It allocates a fresh shadow page for every node on the
// path from root to leaf; no page belonging to a committed version is ever
// mutated.
func (m *Manager) ApplyUpdate(v, baseVersion types.VersionT, key, value []byte) error {
	m.mu.Lock()
	_, ok := m.staged[v]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("version: ApplyUpdate: %w: %d", ErrUnknownVersion, v)
	}

	baseRoot, err := m.rootFor(baseVersion)
	if err != nil {
		return err
	}

	var newRoot types.PageID
	if baseRoot == types.InvalidPageID {
		newRoot, err = m.insertIntoEmptyTree(v, key, value)
	} else {
		var split *types.SplitResult
		newRoot, split, err = m.recursiveUpdate(v, baseRoot, key, value)
		if err == nil && split != nil {
			newRoot, err = m.growRoot(v, *split)
		}
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.staged[v] = newRoot
	m.mu.Unlock()
	return nil
}

func (m *Manager) rootFor(baseVersion types.VersionT) (types.PageID, error) {
	if baseVersion == types.InvalidVersion {
		return types.InvalidPageID, nil
	}
	m.mu.Lock()
	info, ok := m.committed[baseVersion]
	m.mu.Unlock()
	if !ok {
		return types.InvalidPageID, fmt.Errorf("version: base version: %w: %d", ErrUnknownVersion, baseVersion)
	}
	return info.RootPageID, nil
}

func (m *Manager) insertIntoEmptyTree(v types.VersionT, key, value []byte) (types.PageID, error) {
	leaf, lid, err := m.pool.NewPage()
	if err != nil {
		return types.InvalidPageID, err
	}
	m.tree.InitLeaf(leaf)
	stampVersion(leaf, v)
	if _, err := m.tree.ApplyUpdateToLeaf(leaf, key, value); err != nil {
		_ = m.pool.UnpinPage(lid, false)
		return types.InvalidPageID, err
	}
	_ = m.pool.UnpinPage(lid, true)
	return lid, nil
}

func (m *Manager) growRoot(v types.VersionT, split types.SplitResult) (types.PageID, error) {
	newRoot, rid, err := m.pool.NewPage()
	if err != nil {
		return types.InvalidPageID, err
	}
	if err := m.tree.CreateNewRoot(newRoot, split.Left, split.Right, split.PromotedKey); err != nil {
		_ = m.pool.UnpinPage(rid, false)
		return types.InvalidPageID, err
	}
	stampVersion(newRoot, v)
	_ = m.pool.UnpinPage(rid, true)
	return rid, nil
}

// recursiveUpdate walks down to the leaf that key belongs in, shadow-copies
// every node on the way back up, and returns the new ID for the subtree
// rooted at nodeID plus a SplitResult if that subtree's root had to split.
// Every base page fetched here is unpinned clean via defer regardless of
// how this call returns — on an error partway through, the shadow pages
// already allocated are simply left dangling on disk, per spec.md's
// accepted abort behavior.
func (m *Manager) recursiveUpdate(v types.VersionT, nodeID types.PageID, key, value []byte) (types.PageID, *types.SplitResult, error) {
	node, err := m.pool.FetchPage(nodeID)
	if err != nil {
		return types.InvalidPageID, nil, err
	}
	defer func() { _ = m.pool.UnpinPage(nodeID, false) }()

	if m.tree.IsLeaf(node) {
		return m.updateLeaf(v, node, key, value)
	}

	childID := m.tree.FindChild(node, key)
	newChildID, childSplit, err := m.recursiveUpdate(v, childID, key, value)
	if err != nil {
		return types.InvalidPageID, nil, err
	}

	shadow, sid, err := m.pool.NewPage()
	if err != nil {
		return types.InvalidPageID, nil, err
	}
	copyInto(shadow, node, v)
	m.tree.UpdateChildPointer(shadow, childID, newChildID)

	if childSplit == nil {
		_ = m.pool.UnpinPage(sid, true)
		return sid, nil, nil
	}
	return m.insertPromoted(v, shadow, sid, childSplit.PromotedKey, childSplit.Right)
}

func (m *Manager) updateLeaf(v types.VersionT, node *page.Page, key, value []byte) (types.PageID, *types.SplitResult, error) {
	shadow, sid, err := m.pool.NewPage()
	if err != nil {
		return types.InvalidPageID, nil, err
	}
	copyInto(shadow, node, v)

	ok, err := m.tree.ApplyUpdateToLeaf(shadow, key, value)
	if err != nil {
		_ = m.pool.UnpinPage(sid, false)
		return types.InvalidPageID, nil, err
	}
	if ok {
		_ = m.pool.UnpinPage(sid, true)
		return sid, nil, nil
	}

	right, rid, err := m.pool.NewPage()
	if err != nil {
		_ = m.pool.UnpinPage(sid, false)
		return types.InvalidPageID, nil, err
	}
	split, err := m.tree.SplitNode(shadow, right)
	if err != nil {
		_ = m.pool.UnpinPage(sid, false)
		_ = m.pool.UnpinPage(rid, false)
		return types.InvalidPageID, nil, err
	}

	target := shadow
	if bytes.Compare(key, split.PromotedKey) >= 0 {
		target = right
	}
	ok, err = m.tree.ApplyUpdateToLeaf(target, key, value)
	if err != nil || !ok {
		_ = m.pool.UnpinPage(sid, true)
		_ = m.pool.UnpinPage(rid, true)
		if err == nil {
			err = fmt.Errorf("version: leaf still full immediately after split")
		}
		return types.InvalidPageID, nil, err
	}

	stampVersion(shadow, v)
	stampVersion(right, v)
	_ = m.pool.UnpinPage(sid, true)
	_ = m.pool.UnpinPage(rid, true)
	return sid, &split, nil
}

// insertPromoted inserts a promoted key/child into shadow (already pinned,
// already a copy of the current node), splitting shadow itself if it's
// also full and propagating a new SplitResult upward in that case.
func (m *Manager) insertPromoted(v types.VersionT, shadow *page.Page, sid types.PageID, promotedKey []byte, rightChild types.PageID) (types.PageID, *types.SplitResult, error) {
	ok, err := m.tree.InsertIntoInternal(shadow, promotedKey, rightChild)
	if err != nil {
		_ = m.pool.UnpinPage(sid, false)
		return types.InvalidPageID, nil, err
	}
	if ok {
		_ = m.pool.UnpinPage(sid, true)
		return sid, nil, nil
	}

	right, rid, err := m.pool.NewPage()
	if err != nil {
		_ = m.pool.UnpinPage(sid, false)
		return types.InvalidPageID, nil, err
	}
	split, err := m.tree.SplitNode(shadow, right)
	if err != nil {
		_ = m.pool.UnpinPage(sid, false)
		_ = m.pool.UnpinPage(rid, false)
		return types.InvalidPageID, nil, err
	}

	target := shadow
	if bytes.Compare(promotedKey, split.PromotedKey) >= 0 {
		target = right
	}
	ok, err = m.tree.InsertIntoInternal(target, promotedKey, rightChild)
	if err != nil || !ok {
		_ = m.pool.UnpinPage(sid, true)
		_ = m.pool.UnpinPage(rid, true)
		if err == nil {
			err = fmt.Errorf("version: internal node still full immediately after split")
		}
		return types.InvalidPageID, nil, err
	}

	_ = m.pool.UnpinPage(sid, true)
	_ = m.pool.UnpinPage(rid, true)
	return sid, &split, nil
}

// CommitVersion publishes v's staged root, making it visible to future
// reads and base-version lookups.
func (m *Manager) CommitVersion(v types.VersionT) error {
	m.mu.Lock()
	root, ok := m.staged[v]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("version: CommitVersion: %w: %d", ErrUnknownVersion, v)
	}
	delete(m.staged, v)
	info := types.VersionInfo{Version: v, RootPageID: root, CommittedAt: time.Now()}
	m.committed[v] = info
	m.order = append(m.order, v)
	m.mu.Unlock()

	if Verbose && root != types.InvalidPageID {
		if rootPage, err := m.pool.FetchPage(root); err == nil {
			fp := xxhash.Sum64(rootPage.Bytes())
			_ = m.pool.UnpinPage(root, false)
			fmt.Printf("[VersionManager] commit version=%d root=%d fingerprint=%x\n", v, root, fp)
		}
	}
	return nil
}

// AbortVersion discards v's staged root. Any shadow pages already written
// for it stay on disk, unreferenced by any committed version — they leak,
// which spec.md accepts rather than requiring free-page reclamation.
func (m *Manager) AbortVersion(v types.VersionT) {
	m.mu.Lock()
	delete(m.staged, v)
	m.mu.Unlock()
}

// GetRootForVersion returns the root page ID a committed version reads
// through.
func (m *Manager) GetRootForVersion(v types.VersionT) (types.PageID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.committed[v]
	return info.RootPageID, ok
}

// Get performs a read-only lookup of key as of committed version v,
// pinning and unpinning pages as it descends. Grounded on
// original_source/src/versioning/version_manager.h's readPage helper,
// generalized from "fetch one page" to "resolve a version and walk its
// tree" since a bare page fetch by itself isn't useful without knowing
// which root to start from.
func (m *Manager) Get(v types.VersionT, key []byte) (value []byte, found bool, err error) {
	root, ok := m.GetRootForVersion(v)
	if !ok {
		return nil, false, fmt.Errorf("version: Get: %w: %d", ErrUnknownVersion, v)
	}
	if root == types.InvalidPageID {
		return nil, false, nil
	}

	nodeID := root
	for {
		node, err := m.pool.FetchPage(nodeID)
		if err != nil {
			return nil, false, err
		}
		if m.tree.IsLeaf(node) {
			val, found := m.tree.Lookup(node, key)
			_ = m.pool.UnpinPage(nodeID, false)
			return val, found, nil
		}
		childID := m.tree.FindChild(node, key)
		_ = m.pool.UnpinPage(nodeID, false)
		nodeID = childID
	}
}

// copyInto overwrites dst's buffer with src's, then restores dst's own
// page ID (copying raw bytes also clobbers it, since the page ID lives at
// offset 0 of every page including dst) and stamps the version that
// created this shadow copy.
func copyInto(dst, src *page.Page, v types.VersionT) {
	myID := dst.Header().PageID
	copy(dst.Bytes(), src.Bytes())
	h := dst.Header()
	h.PageID = myID
	h.CreationVersion = v
	dst.SetHeader(h)
}

func stampVersion(p *page.Page, v types.VersionT) {
	h := p.Header()
	h.CreationVersion = v
	p.SetHeader(h)
}
