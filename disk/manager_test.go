package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"cmsedb/types"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, path
}

// TestHelloPersistence mirrors scenario S1: write a page, flush, reopen the
// file, and fetch the same bytes back.
func TestHelloPersistence(t *testing.T) {
	m, path := newTestManager(t)

	id := m.AllocatePage()
	buf := make([]byte, types.PageSize)
	copy(buf[20:], []byte("Hello_Persistence"))

	if err := m.WritePage(id, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got := make([]byte, types.PageSize)
	if err := reopened.ReadPage(id, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("ReadPage after reopen returned different bytes")
	}
}

func TestReadPastEndOfFileZeroFills(t *testing.T) {
	m, _ := newTestManager(t)

	buf := make([]byte, types.PageSize)
	if err := m.ReadPage(50, buf); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0 for a page never written", i, b)
		}
	}
}

func TestAllocatePageIsMonotonic(t *testing.T) {
	m, _ := newTestManager(t)

	first := m.AllocatePage()
	second := m.AllocatePage()
	if second != first+1 {
		t.Fatalf("AllocatePage: got %d then %d, want a run of consecutive IDs", first, second)
	}
}

func TestWritePageWrongSizeRejected(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.WritePage(0, make([]byte, 10)); err == nil {
		t.Fatalf("WritePage with wrong-size buffer: want error, got nil")
	}
}

func TestNumFlushesCountsWrites(t *testing.T) {
	m, _ := newTestManager(t)
	buf := make([]byte, types.PageSize)

	if got := m.NumFlushes(); got != 0 {
		t.Fatalf("NumFlushes before any write = %d, want 0", got)
	}
	_ = m.WritePage(m.AllocatePage(), buf)
	_ = m.WritePage(m.AllocatePage(), buf)
	if got := m.NumFlushes(); got != 2 {
		t.Fatalf("NumFlushes after two writes = %d, want 2", got)
	}
}

func TestOpenCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.db")
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("file already exists before Open")
	}

	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Open did not create the file: %v", err)
	}
}
