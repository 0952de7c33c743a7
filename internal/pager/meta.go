package pager

import (
	"encoding/binary"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Meta page — page id 0
// ───────────────────────────────────────────────────────────────────────────
//
// Layout (spec §3 "Meta page"):
//
//  Offset  Size  Field
//  ──────  ────  ───────────────────
//  0       32    Common PageHeader (Kind=Meta, ID=0)
//  32      8     Magic             [8]byte "CHGRPH\x00\x00"
//  40      4     FormatVersion     uint32 LE
//  44      4     Reserved0         uint32 LE
//  48      8     CatalogRoot       uint64 LE
//  56      8     VertexStoreRoot   uint64 LE
//  64      8     EdgeStoreRoot     uint64 LE
//  72      8     AdjacencyRoot     uint64 LE
//  80      8     DictionaryRoot    uint64 LE
//  88      8     FreeListHead      uint64 LE
//  96      8     NextPageID        uint64 LE
//  104     8     PageCount         uint64 LE
//  112     3984  Reserved          zero-filled, not covered beyond byte 4092
//
// The CRC in the common header covers bytes [0..4092) of the whole page.

const (
	// MetaMagic identifies a valid ChainGraph data file.
	MetaMagic = "CHGRPH\x00\x00"

	// CurrentFormatVersion is the on-disk format version (spec §6).
	CurrentFormatVersion uint32 = 1

	metaMagicOff           = PageHeaderSize       // 32
	metaFormatVersionOff   = metaMagicOff + 8      // 40
	metaReserved0Off       = metaFormatVersionOff + 4 // 44
	metaCatalogRootOff     = metaReserved0Off + 4  // 48
	metaVertexStoreRootOff = metaCatalogRootOff + 8 // 56
	metaEdgeStoreRootOff   = metaVertexStoreRootOff + 8 // 64
	metaAdjacencyRootOff   = metaEdgeStoreRootOff + 8   // 72
	metaDictionaryRootOff  = metaAdjacencyRootOff + 8   // 80
	metaFreeListHeadOff    = metaDictionaryRootOff + 8  // 88
	metaNextPageIDOff      = metaFreeListHeadOff + 8    // 96
	metaPageCountOff       = metaNextPageIDOff + 8      // 104
)

// MetaPage holds the parsed contents of page 0: format version and the
// root page ids of every top-level structure (spec §3).
type MetaPage struct {
	FormatVersion   uint32
	CatalogRoot     PageID
	VertexStoreRoot PageID
	EdgeStoreRoot   PageID
	AdjacencyRoot   PageID
	DictionaryRoot  PageID
	FreeListHead    PageID
	NextPageID      PageID
	PageCount       uint64
}

// MarshalMetaPage serializes a MetaPage into a full PageSize buffer, with
// the common PageHeader (Kind=Meta, ID=0) and its CRC set.
func MarshalMetaPage(m *MetaPage) []byte {
	buf := NewPage(PageKindMeta, MetaPageID)

	copy(buf[metaMagicOff:metaMagicOff+8], MetaMagic)
	binary.LittleEndian.PutUint32(buf[metaFormatVersionOff:], m.FormatVersion)
	binary.LittleEndian.PutUint64(buf[metaCatalogRootOff:], uint64(m.CatalogRoot))
	binary.LittleEndian.PutUint64(buf[metaVertexStoreRootOff:], uint64(m.VertexStoreRoot))
	binary.LittleEndian.PutUint64(buf[metaEdgeStoreRootOff:], uint64(m.EdgeStoreRoot))
	binary.LittleEndian.PutUint64(buf[metaAdjacencyRootOff:], uint64(m.AdjacencyRoot))
	binary.LittleEndian.PutUint64(buf[metaDictionaryRootOff:], uint64(m.DictionaryRoot))
	binary.LittleEndian.PutUint64(buf[metaFreeListHeadOff:], uint64(m.FreeListHead))
	binary.LittleEndian.PutUint64(buf[metaNextPageIDOff:], uint64(m.NextPageID))
	binary.LittleEndian.PutUint64(buf[metaPageCountOff:], m.PageCount)

	SetPageCRC(buf)
	return buf
}

// UnmarshalMetaPage decodes page 0 from buf, validating magic, CRC, and
// format version. A mismatch on any of these is STORAGE_CORRUPTION.
func UnmarshalMetaPage(buf []byte) (*MetaPage, error) {
	if len(buf) < PageSize {
		return nil, fmt.Errorf("meta page too small: %d bytes", len(buf))
	}
	if err := VerifyPageCRC(buf); err != nil {
		return nil, err
	}
	magic := string(buf[metaMagicOff : metaMagicOff+8])
	if magic != MetaMagic {
		return nil, fmt.Errorf("STORAGE_CORRUPTION: bad magic %q, expected %q", magic, MetaMagic)
	}
	m := &MetaPage{
		FormatVersion:   binary.LittleEndian.Uint32(buf[metaFormatVersionOff:]),
		CatalogRoot:     PageID(binary.LittleEndian.Uint64(buf[metaCatalogRootOff:])),
		VertexStoreRoot: PageID(binary.LittleEndian.Uint64(buf[metaVertexStoreRootOff:])),
		EdgeStoreRoot:   PageID(binary.LittleEndian.Uint64(buf[metaEdgeStoreRootOff:])),
		AdjacencyRoot:   PageID(binary.LittleEndian.Uint64(buf[metaAdjacencyRootOff:])),
		DictionaryRoot:  PageID(binary.LittleEndian.Uint64(buf[metaDictionaryRootOff:])),
		FreeListHead:    PageID(binary.LittleEndian.Uint64(buf[metaFreeListHeadOff:])),
		NextPageID:      PageID(binary.LittleEndian.Uint64(buf[metaNextPageIDOff:])),
		PageCount:       binary.LittleEndian.Uint64(buf[metaPageCountOff:]),
	}
	if m.FormatVersion != CurrentFormatVersion {
		return nil, fmt.Errorf("unsupported format version %d (this build supports %d)",
			m.FormatVersion, CurrentFormatVersion)
	}
	return m, nil
}

// NewMetaPage creates a default MetaPage for a freshly initialized data file.
func NewMetaPage() *MetaPage {
	return &MetaPage{
		FormatVersion:   CurrentFormatVersion,
		CatalogRoot:     InvalidPageID,
		VertexStoreRoot: InvalidPageID,
		EdgeStoreRoot:   InvalidPageID,
		AdjacencyRoot:   InvalidPageID,
		DictionaryRoot:  InvalidPageID,
		FreeListHead:    InvalidPageID,
		NextPageID:      1, // page 0 is the meta page
		PageCount:       1,
	}
}
