package pager

import (
	"encoding/binary"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Slotted page
// ───────────────────────────────────────────────────────────────────────────
//
// Vertex and edge records (spec §4.3) live in slot-directory pages. Layout:
//
//   [0..31]                Common PageHeader (SlotCount, FreeSpaceOff live here)
//   [32..32+4*SlotCount)    Slot directory (4 bytes per slot)
//   ... free space ...
//   [FreeSpaceOff..PageSize)  Record bodies, growing downward from the tail
//
// Each slot entry is 4 bytes:
//   [0:2]  Offset  (uint16) — offset of record from page start
//   [2:4]  Length  (uint16) — record length in bytes
//
// A slot with Offset==0 and Length==0 is a tombstone (deleted record).
//
// Invariants:
//   - Record bodies grow downward from the page tail; free space is the gap
//     between the slot directory and the record bodies (spec §4.3).
//   - FreeSpaceOff tracks where the next record body will be placed.

const (
	// slotDirOff is where the slot directory begins, right after the header.
	slotDirOff = PageHeaderSize // 32

	// slotEntrySize is bytes per slot entry (offset + length).
	slotEntrySize = 4
)

// SlottedPage wraps a raw page buffer and provides record-level operations.
type SlottedPage struct {
	buf      []byte
	pageSize int
}

// SlotEntry describes one slot in the directory.
type SlotEntry struct {
	Offset uint16
	Length uint16
}

// WrapSlottedPage wraps an existing page buffer.
func WrapSlottedPage(buf []byte) *SlottedPage {
	return &SlottedPage{buf: buf, pageSize: len(buf)}
}

// InitSlottedPage initialises a page buffer as an empty slotted page.
func InitSlottedPage(buf []byte, pk PageKind, id PageID) *SlottedPage {
	h := &PageHeader{Kind: pk, ID: id, FreeSpaceOff: uint16(len(buf))}
	MarshalHeader(h, buf)
	return WrapSlottedPage(buf)
}

// SlotCount returns the number of slots (including tombstones).
func (sp *SlottedPage) SlotCount() int { return int(HeaderSlotCount(sp.buf)) }

func (sp *SlottedPage) setSlotCount(n int) { SetHeaderSlotCount(sp.buf, uint16(n)) }

// FreeSpaceOff is the byte offset where the next record body will be written.
func (sp *SlottedPage) FreeSpaceOff() int { return int(HeaderFreeSpaceOff(sp.buf)) }

func (sp *SlottedPage) setFreeSpaceOff(off int) { SetHeaderFreeSpaceOff(sp.buf, uint16(off)) }

// slotDirEnd returns the byte offset just past the last slot entry.
func (sp *SlottedPage) slotDirEnd() int {
	return slotDirOff + sp.SlotCount()*slotEntrySize
}

// FreeSpace returns the number of bytes available for a new record plus its slot.
func (sp *SlottedPage) FreeSpace() int {
	return sp.FreeSpaceOff() - sp.slotDirEnd() - slotEntrySize
}

// GetSlot returns the slot entry at index i.
func (sp *SlottedPage) GetSlot(i int) SlotEntry {
	off := slotDirOff + i*slotEntrySize
	return SlotEntry{
		Offset: binary.LittleEndian.Uint16(sp.buf[off:]),
		Length: binary.LittleEndian.Uint16(sp.buf[off+2:]),
	}
}

func (sp *SlottedPage) setSlot(i int, e SlotEntry) {
	off := slotDirOff + i*slotEntrySize
	binary.LittleEndian.PutUint16(sp.buf[off:], e.Offset)
	binary.LittleEndian.PutUint16(sp.buf[off+2:], e.Length)
}

// IsDeleted returns true if slot i is a tombstone.
func (sp *SlottedPage) IsDeleted(i int) bool {
	e := sp.GetSlot(i)
	return e.Offset == 0 && e.Length == 0
}

// GetRecord returns the raw bytes of the record at slot i.
// Returns nil if the slot is a tombstone.
func (sp *SlottedPage) GetRecord(i int) []byte {
	e := sp.GetSlot(i)
	if e.Offset == 0 && e.Length == 0 {
		return nil
	}
	return sp.buf[e.Offset : e.Offset+e.Length]
}

// InsertRecord adds a new record to the page.
// Returns the slot index, or an error if there is insufficient space.
func (sp *SlottedPage) InsertRecord(data []byte) (int, error) {
	needed := len(data)
	if sp.FreeSpace() < needed {
		return -1, fmt.Errorf("page full: need %d bytes, have %d", needed, sp.FreeSpace())
	}

	newEnd := sp.FreeSpaceOff() - needed
	copy(sp.buf[newEnd:], data)
	sp.setFreeSpaceOff(newEnd)

	// Reuse a tombstone slot first.
	sc := sp.SlotCount()
	for i := 0; i < sc; i++ {
		if sp.IsDeleted(i) {
			sp.setSlot(i, SlotEntry{Offset: uint16(newEnd), Length: uint16(needed)})
			return i, nil
		}
	}

	sp.setSlot(sc, SlotEntry{Offset: uint16(newEnd), Length: uint16(needed)})
	sp.setSlotCount(sc + 1)
	return sc, nil
}

// DeleteRecord marks slot i as deleted (tombstone).
func (sp *SlottedPage) DeleteRecord(i int) error {
	if i < 0 || i >= sp.SlotCount() {
		return fmt.Errorf("slot %d out of range [0..%d)", i, sp.SlotCount())
	}
	sp.setSlot(i, SlotEntry{Offset: 0, Length: 0})
	return nil
}

// UpdateRecord replaces the record at slot i. If the new data fits in the
// old slot's space, it is written in place; otherwise the old slot is
// tombstoned and a new record is appended.
func (sp *SlottedPage) UpdateRecord(i int, data []byte) error {
	if i < 0 || i >= sp.SlotCount() {
		return fmt.Errorf("slot %d out of range [0..%d)", i, sp.SlotCount())
	}
	old := sp.GetSlot(i)
	if int(old.Length) >= len(data) {
		copy(sp.buf[old.Offset:], data)
		if len(data) < int(old.Length) {
			for j := int(old.Offset) + len(data); j < int(old.Offset+old.Length); j++ {
				sp.buf[j] = 0
			}
		}
		sp.setSlot(i, SlotEntry{Offset: old.Offset, Length: uint16(len(data))})
		return nil
	}
	sp.setSlot(i, SlotEntry{Offset: 0, Length: 0})
	needed := len(data)
	if sp.FreeSpace()+slotEntrySize < needed { // FreeSpace already deducted one slot
		return fmt.Errorf("page full on update: need %d bytes", needed)
	}
	newEnd := sp.FreeSpaceOff() - needed
	copy(sp.buf[newEnd:], data)
	sp.setFreeSpaceOff(newEnd)
	sp.setSlot(i, SlotEntry{Offset: uint16(newEnd), Length: uint16(needed)})
	return nil
}

// Compact reorganises records to remove gaps left by deletions, preserving
// slot order.
func (sp *SlottedPage) Compact() {
	sc := sp.SlotCount()
	type rec struct {
		slot int
		data []byte
	}
	var live []rec
	for i := 0; i < sc; i++ {
		if !sp.IsDeleted(i) {
			live = append(live, rec{slot: i, data: append([]byte{}, sp.GetRecord(i)...)})
		}
	}
	sp.setFreeSpaceOff(sp.pageSize)
	for _, r := range live {
		newEnd := sp.FreeSpaceOff() - len(r.data)
		copy(sp.buf[newEnd:], r.data)
		sp.setFreeSpaceOff(newEnd)
		sp.setSlot(r.slot, SlotEntry{Offset: uint16(newEnd), Length: uint16(len(r.data))})
	}
}

// LiveRecords returns the count of non-deleted records.
func (sp *SlottedPage) LiveRecords() int {
	n := 0
	sc := sp.SlotCount()
	for i := 0; i < sc; i++ {
		if !sp.IsDeleted(i) {
			n++
		}
	}
	return n
}

// Bytes returns the underlying page buffer.
func (sp *SlottedPage) Bytes() []byte { return sp.buf }
