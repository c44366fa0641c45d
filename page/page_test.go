package page

import (
	"bytes"
	"testing"

	"cmsedb/types"
)

func TestNewPageHasInvalidID(t *testing.T) {
	p := New()
	if got := p.Header().PageID; got != types.InvalidPageID {
		t.Fatalf("new page PageID = %d, want %d", got, types.InvalidPageID)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	p := New()
	h := PageHeader{PageID: 7, CreationVersion: 42, KeyCount: 3, IsLeaf: 1}
	p.SetHeader(h)

	got := p.Header()
	if got != h {
		t.Fatalf("Header() = %+v, want %+v", got, h)
	}
}

func TestBytesIncludesHeader(t *testing.T) {
	p := New()
	h := PageHeader{PageID: 5}
	p.SetHeader(h)

	if len(p.Bytes()) != types.PageSize {
		t.Fatalf("Bytes() len = %d, want %d", len(p.Bytes()), types.PageSize)
	}
	if len(p.Payload()) != types.PageSize-HeaderSize {
		t.Fatalf("Payload() len = %d, want %d", len(p.Payload()), types.PageSize-HeaderSize)
	}

	copy(p.Payload(), []byte("Hello_Persistence"))
	if !bytes.HasPrefix(p.Bytes()[HeaderSize:], []byte("Hello_Persistence")) {
		t.Fatalf("payload write not reflected in Bytes()")
	}
}

func TestResetMemoryClearsHeaderAndPayload(t *testing.T) {
	p := New()
	h := PageHeader{PageID: 9, CreationVersion: 1, KeyCount: 2, IsLeaf: 1}
	p.SetHeader(h)
	copy(p.Payload(), []byte("data"))

	p.ResetMemory()

	if got := p.Header(); got != (PageHeader{}) {
		t.Fatalf("Header() after reset = %+v, want zero value", got)
	}
	for i, b := range p.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d = %d after ResetMemory, want 0", i, b)
		}
	}
}
