// Package pager implements ChainGraph's paged storage substrate: a fixed
// 4 KiB page-aligned file, an LRU buffer pool over pinned/unpinned pages,
// and the CRC-32C content checksumming that protects every page on disk.
//
// The storage format is a single file per data directory. Page 0 is always
// the meta page; every other page is typed (vertex, edge, adjacency,
// dictionary, free). Every page carries a 32-byte header (kind, page id,
// LSN, slot count, free-space offset, CRC) followed by a 4060-byte body and
// a 4-byte reserved trailer. The CRC covers bytes [0..4092) of the page with
// the CRC field itself zeroed during computation, per the on-disk format.
package pager

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// ───────────────────────────────────────────────────────────────────────────
// Constants
// ───────────────────────────────────────────────────────────────────────────

const (
	// PageSize is the fixed page size in bytes. The on-disk format mandates
	// exactly 4 KiB pages; this is not configurable.
	PageSize = 4096

	// PageHeaderSize is the size of the common page header in bytes.
	// Layout:
	//   [0]     Kind          (1 byte)
	//   [1]     Flags         (1 byte, reserved)
	//   [2:4]   Reserved      (2 bytes)
	//   [4:12]  PageID        (8 bytes, uint64 LE)
	//   [12:20] LSN           (8 bytes, uint64 LE)
	//   [20:22] SlotCount     (2 bytes, uint16 LE)
	//   [22:24] FreeSpaceOff  (2 bytes, uint16 LE)
	//   [24:28] CRC32         (4 bytes, uint32 LE)
	//   [28:32] Reserved      (4 bytes)
	PageHeaderSize = 32

	// crcCoveredLen is the number of leading page bytes covered by the CRC,
	// per the on-disk format (§6): "CRC-32C over bytes [0..4092)".
	crcCoveredLen = 4092

	// InvalidPageID represents a null/invalid page pointer.
	InvalidPageID PageID = 0

	// MetaPageID is the fixed page id of the meta page.
	MetaPageID PageID = 0
)

// ───────────────────────────────────────────────────────────────────────────
// Page kinds
// ───────────────────────────────────────────────────────────────────────────

// PageKind identifies the kind of data stored in a page.
type PageKind uint8

const (
	PageKindMeta       PageKind = 0x01
	PageKindVertex     PageKind = 0x02
	PageKindEdge       PageKind = 0x03
	PageKindAdjacency  PageKind = 0x04
	PageKindDictionary PageKind = 0x05
	PageKindFree       PageKind = 0x06
)

// String returns a human-readable label for the page kind.
func (pk PageKind) String() string {
	switch pk {
	case PageKindMeta:
		return "Meta"
	case PageKindVertex:
		return "Vertex"
	case PageKindEdge:
		return "Edge"
	case PageKindAdjacency:
		return "Adjacency"
	case PageKindDictionary:
		return "Dictionary"
	case PageKindFree:
		return "Free"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(pk))
	}
}

// ───────────────────────────────────────────────────────────────────────────
// Core types
// ───────────────────────────────────────────────────────────────────────────

// PageID is a 64-bit page identifier. Page 0 is always the meta page.
type PageID uint64

// LSN is a monotonically increasing, per-write log sequence number used
// purely for buffer-pool cache ordering (ChainGraph keeps no write-ahead
// log; see spec §1 Non-goals).
type LSN uint64

// ───────────────────────────────────────────────────────────────────────────
// Page header
// ───────────────────────────────────────────────────────────────────────────

// PageHeader is the 32-byte header present at the start of every page.
type PageHeader struct {
	Kind         PageKind
	Flags        uint8
	Reserved     uint16
	ID           PageID
	LSN          LSN
	SlotCount    uint16
	FreeSpaceOff uint16
	CRC          uint32 // CRC-32C over bytes [0..4092), this field zeroed
}

// MarshalHeader writes a PageHeader into the first PageHeaderSize bytes of buf.
func MarshalHeader(h *PageHeader, buf []byte) {
	if len(buf) < PageHeaderSize {
		panic("buffer too small for PageHeader")
	}
	buf[0] = byte(h.Kind)
	buf[1] = h.Flags
	binary.LittleEndian.PutUint16(buf[2:4], h.Reserved)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(h.ID))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(h.LSN))
	binary.LittleEndian.PutUint16(buf[20:22], h.SlotCount)
	binary.LittleEndian.PutUint16(buf[22:24], h.FreeSpaceOff)
	binary.LittleEndian.PutUint32(buf[24:28], h.CRC)
}

// UnmarshalHeader reads a PageHeader from the first PageHeaderSize bytes of buf.
func UnmarshalHeader(buf []byte) PageHeader {
	var h PageHeader
	h.Kind = PageKind(buf[0])
	h.Flags = buf[1]
	h.Reserved = binary.LittleEndian.Uint16(buf[2:4])
	h.ID = PageID(binary.LittleEndian.Uint64(buf[4:12]))
	h.LSN = LSN(binary.LittleEndian.Uint64(buf[12:20]))
	h.SlotCount = binary.LittleEndian.Uint16(buf[20:22])
	h.FreeSpaceOff = binary.LittleEndian.Uint16(buf[22:24])
	h.CRC = binary.LittleEndian.Uint32(buf[24:28])
	return h
}

// HeaderSlotCount reads only the slot count from a raw page buffer.
func HeaderSlotCount(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf[20:22]) }

// SetHeaderSlotCount updates only the slot count in a raw page buffer.
func SetHeaderSlotCount(buf []byte, n uint16) { binary.LittleEndian.PutUint16(buf[20:22], n) }

// HeaderFreeSpaceOff reads only the free-space offset from a raw page buffer.
func HeaderFreeSpaceOff(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf[22:24]) }

// SetHeaderFreeSpaceOff updates only the free-space offset in a raw page buffer.
func SetHeaderFreeSpaceOff(buf []byte, off uint16) { binary.LittleEndian.PutUint16(buf[22:24], off) }

// HeaderKind reads only the page kind from a raw page buffer.
func HeaderKind(buf []byte) PageKind { return PageKind(buf[0]) }

// HeaderID reads only the page id from a raw page buffer.
func HeaderID(buf []byte) PageID { return PageID(binary.LittleEndian.Uint64(buf[4:12])) }

// HeaderLSN reads only the LSN from a raw page buffer.
func HeaderLSN(buf []byte) LSN { return LSN(binary.LittleEndian.Uint64(buf[12:20])) }

// SetHeaderLSN updates only the LSN in a raw page buffer.
func SetHeaderLSN(buf []byte, lsn LSN) { binary.LittleEndian.PutUint64(buf[12:20], uint64(lsn)) }

// ───────────────────────────────────────────────────────────────────────────
// CRC helpers
// ───────────────────────────────────────────────────────────────────────────

// crcTable is the CRC-32C (Castagnoli) table used throughout.
var crcTable = crc32.MakeTable(crc32.Castagnoli)

// ComputePageCRC computes the CRC-32C of bytes [0..4092) of a page, treating
// the CRC field (bytes 24..28, inside that range) as zero during
// computation. Bytes [4092..4096) are never covered by the checksum.
func ComputePageCRC(page []byte) uint32 {
	h := crc32.New(crcTable)
	h.Write(page[:24])           // header up to CRC field
	h.Write([]byte{0, 0, 0, 0})  // zeroed CRC placeholder
	h.Write(page[28:crcCoveredLen]) // rest of the covered region
	return h.Sum32()
}

// SetPageCRC computes and writes the CRC into the page header.
func SetPageCRC(page []byte) {
	c := ComputePageCRC(page)
	binary.LittleEndian.PutUint32(page[24:28], c)
}

// VerifyPageCRC checks the CRC-32C checksum of a page. A mismatch is the
// STORAGE_CORRUPTION condition of spec §7.
func VerifyPageCRC(page []byte) error {
	stored := binary.LittleEndian.Uint32(page[24:28])
	computed := ComputePageCRC(page)
	if stored != computed {
		pid := PageID(binary.LittleEndian.Uint64(page[4:12]))
		return &CorruptionError{PageID: pid, Stored: stored, Computed: computed}
	}
	return nil
}

// CorruptionError reports a CRC mismatch on a page read from disk.
type CorruptionError struct {
	PageID   PageID
	Stored   uint32
	Computed uint32
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("STORAGE_CORRUPTION: CRC mismatch on page %d: stored=%08x computed=%08x",
		e.PageID, e.Stored, e.Computed)
}

// ───────────────────────────────────────────────────────────────────────────
// Page helper
// ───────────────────────────────────────────────────────────────────────────

// NewPage allocates a zeroed PageSize buffer and writes its header.
func NewPage(pk PageKind, id PageID) []byte {
	buf := make([]byte, PageSize)
	h := &PageHeader{Kind: pk, ID: id, FreeSpaceOff: PageSize}
	MarshalHeader(h, buf)
	return buf
}
