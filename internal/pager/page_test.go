package pager

import "testing"

func TestPageHeader_MarshalRoundTrip(t *testing.T) {
	h := PageHeader{
		Kind:         PageKindVertex,
		Flags:        0x07,
		ID:           PageID(99),
		LSN:          LSN(12345),
		SlotCount:    3,
		FreeSpaceOff: 4000,
		CRC:          0xDEADBEEF,
	}
	buf := make([]byte, PageHeaderSize)
	MarshalHeader(&h, buf)
	h2 := UnmarshalHeader(buf)
	if h2.Kind != h.Kind || h2.ID != h.ID || h2.LSN != h.LSN || h2.SlotCount != h.SlotCount ||
		h2.FreeSpaceOff != h.FreeSpaceOff || h2.CRC != h.CRC {
		t.Fatalf("header roundtrip mismatch: %+v vs %+v", h, h2)
	}
}

func TestCRC_DetectsCorruption(t *testing.T) {
	buf := NewPage(PageKindVertex, 1)
	SetPageCRC(buf)
	if err := VerifyPageCRC(buf); err != nil {
		t.Fatalf("valid CRC failed: %v", err)
	}
	buf[100] ^= 0xFF
	if err := VerifyPageCRC(buf); err == nil {
		t.Fatal("expected CRC error after corruption")
	}
}

func TestCRC_TrailerBytesExcluded(t *testing.T) {
	buf := NewPage(PageKindVertex, 1)
	SetPageCRC(buf)
	buf[crcCoveredLen] ^= 0xFF // flip a byte in [4092:4096), outside the covered range
	if err := VerifyPageCRC(buf); err != nil {
		t.Fatalf("trailer byte should not affect CRC: %v", err)
	}
}

func TestPageKind_String(t *testing.T) {
	cases := map[PageKind]string{
		PageKindMeta:       "Meta",
		PageKindVertex:     "Vertex",
		PageKindEdge:       "Edge",
		PageKindAdjacency:  "Adjacency",
		PageKindDictionary: "Dictionary",
		PageKindFree:       "Free",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("PageKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestNewPage_HeaderDefaults(t *testing.T) {
	buf := NewPage(PageKindEdge, 7)
	if HeaderKind(buf) != PageKindEdge {
		t.Errorf("kind = %v, want Edge", HeaderKind(buf))
	}
	if HeaderID(buf) != 7 {
		t.Errorf("id = %d, want 7", HeaderID(buf))
	}
	if HeaderFreeSpaceOff(buf) != PageSize {
		t.Errorf("free space offset = %d, want %d", HeaderFreeSpaceOff(buf), PageSize)
	}
	if len(buf) != PageSize {
		t.Fatalf("page length = %d, want %d", len(buf), PageSize)
	}
}
