package pager

import "testing"

func TestMetaPage_MarshalRoundTrip(t *testing.T) {
	m := NewMetaPage()
	m.CatalogRoot = PageID(5)
	m.VertexStoreRoot = PageID(6)
	m.EdgeStoreRoot = PageID(7)
	m.AdjacencyRoot = PageID(8)
	m.DictionaryRoot = PageID(9)
	m.FreeListHead = PageID(10)
	m.NextPageID = PageID(11)
	m.PageCount = 11

	buf := MarshalMetaPage(m)
	m2, err := UnmarshalMetaPage(buf)
	if err != nil {
		t.Fatalf("UnmarshalMetaPage: %v", err)
	}
	if *m2 != *m {
		t.Fatalf("meta roundtrip mismatch: %+v vs %+v", m, m2)
	}
}

func TestMetaPage_BadMagic(t *testing.T) {
	buf := MarshalMetaPage(NewMetaPage())
	buf[metaMagicOff] = 'X'
	SetPageCRC(buf)
	if _, err := UnmarshalMetaPage(buf); err == nil {
		t.Fatal("expected an error for a corrupted magic value")
	}
}

func TestMetaPage_CorruptedCRC(t *testing.T) {
	buf := MarshalMetaPage(NewMetaPage())
	buf[200] ^= 0xFF
	if _, err := UnmarshalMetaPage(buf); err == nil {
		t.Fatal("expected a CRC error for a corrupted meta page")
	}
}

func TestMetaPage_UnsupportedFormatVersion(t *testing.T) {
	m := NewMetaPage()
	m.FormatVersion = CurrentFormatVersion + 1
	buf := MarshalMetaPage(m)
	if _, err := UnmarshalMetaPage(buf); err == nil {
		t.Fatal("expected an error for an unsupported format version")
	}
}
