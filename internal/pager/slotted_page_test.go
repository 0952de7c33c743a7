package pager

import (
	"bytes"
	"testing"
)

func TestSlottedPage_InsertGetRecord(t *testing.T) {
	buf := make([]byte, PageSize)
	sp := InitSlottedPage(buf, PageKindVertex, 1)

	i, err := sp.InsertRecord([]byte("hello"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if i != 0 {
		t.Fatalf("slot index = %d, want 0", i)
	}
	if got := sp.GetRecord(0); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("record = %q, want %q", got, "hello")
	}
	if sp.SlotCount() != 1 {
		t.Fatalf("slot count = %d, want 1", sp.SlotCount())
	}
}

func TestSlottedPage_DeleteIsTombstone(t *testing.T) {
	buf := make([]byte, PageSize)
	sp := InitSlottedPage(buf, PageKindVertex, 1)
	sp.InsertRecord([]byte("a"))
	sp.InsertRecord([]byte("b"))

	if err := sp.DeleteRecord(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !sp.IsDeleted(0) {
		t.Fatal("slot 0 should be a tombstone")
	}
	if sp.GetRecord(0) != nil {
		t.Fatal("tombstoned slot should return nil record")
	}
	if sp.LiveRecords() != 1 {
		t.Fatalf("live records = %d, want 1", sp.LiveRecords())
	}
}

func TestSlottedPage_InsertReusesTombstone(t *testing.T) {
	buf := make([]byte, PageSize)
	sp := InitSlottedPage(buf, PageKindVertex, 1)
	sp.InsertRecord([]byte("a"))
	sp.DeleteRecord(0)

	i, err := sp.InsertRecord([]byte("c"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if i != 0 {
		t.Fatalf("expected tombstone slot 0 to be reused, got %d", i)
	}
	if sp.SlotCount() != 1 {
		t.Fatalf("slot count = %d, want 1 (no new slot should be allocated)", sp.SlotCount())
	}
}

func TestSlottedPage_UpdateInPlaceAndRelocate(t *testing.T) {
	buf := make([]byte, PageSize)
	sp := InitSlottedPage(buf, PageKindVertex, 1)
	sp.InsertRecord([]byte("abcdef"))

	if err := sp.UpdateRecord(0, []byte("xyz")); err != nil {
		t.Fatalf("shrink update: %v", err)
	}
	if got := sp.GetRecord(0); !bytes.Equal(got, []byte("xyz")) {
		t.Fatalf("record after shrink = %q, want %q", got, "xyz")
	}

	if err := sp.UpdateRecord(0, []byte("a much longer replacement value")); err != nil {
		t.Fatalf("grow update: %v", err)
	}
	if got := sp.GetRecord(0); !bytes.Equal(got, []byte("a much longer replacement value")) {
		t.Fatalf("record after grow = %q", got)
	}
}

func TestSlottedPage_CompactPreservesLiveRecords(t *testing.T) {
	buf := make([]byte, PageSize)
	sp := InitSlottedPage(buf, PageKindVertex, 1)
	sp.InsertRecord([]byte("one"))
	sp.InsertRecord([]byte("two"))
	sp.InsertRecord([]byte("three"))
	sp.DeleteRecord(1)

	sp.Compact()

	if sp.LiveRecords() != 2 {
		t.Fatalf("live records after compact = %d, want 2", sp.LiveRecords())
	}
	if got := sp.GetRecord(0); !bytes.Equal(got, []byte("one")) {
		t.Fatalf("slot 0 after compact = %q, want %q", got, "one")
	}
	if got := sp.GetRecord(2); !bytes.Equal(got, []byte("three")) {
		t.Fatalf("slot 2 after compact = %q, want %q", got, "three")
	}
}

func TestSlottedPage_InsertFailsWhenFull(t *testing.T) {
	buf := make([]byte, PageSize)
	sp := InitSlottedPage(buf, PageKindVertex, 1)
	big := bytes.Repeat([]byte{0xAB}, PageSize)
	if _, err := sp.InsertRecord(big); err == nil {
		t.Fatal("expected error inserting a record larger than the page")
	}
}
