package graph

import (
	"encoding/binary"
	"fmt"

	"github.com/chaingraph/chaingraph/internal/pager"
)

// ───────────────────────────────────────────────────────────────────────────
// Adjacency chains (spec §4.5)
// ───────────────────────────────────────────────────────────────────────────
//
// Each chain page holds a fixed-capacity array of (neighbor vid, eid,
// flags, twin page, twin slot) entries plus a next-page pointer. Entries
// are never repacked: a deleted entry's slot is simply marked unused, and
// the page is freed only once every slot on it is unused. This trades
// some wasted space in partially-emptied non-head pages for O(1) insert
// (always into the head page, or a freshly allocated new head) and O(1)
// delete (direct slot write, no scan for the twin).

const (
	adjNextOff   = pager.PageHeaderSize // 32
	adjCountOff  = adjNextOff + 8       // 40
	adjDataOff   = adjCountOff + 4      // 44
	adjEntrySize = 28
)

const (
	adjFlagUsed uint16 = 1 << 0
)

func adjCapacity() int { return (pager.PageSize - adjDataOff) / adjEntrySize }

// AdjacencyRef locates one (neighbor, eid) entry within a chain.
type AdjacencyRef struct {
	Page pager.PageID
	Slot int
}

// Valid reports whether r refers to a real slot.
func (r AdjacencyRef) Valid() bool { return r.Page != pager.InvalidPageID }

// AdjacencyManager inserts, removes, and iterates adjacency-chain entries.
type AdjacencyManager struct {
	pgr *pager.Pager
}

// NewAdjacencyManager wraps pgr for adjacency-chain operations.
func NewAdjacencyManager(pgr *pager.Pager) *AdjacencyManager {
	return &AdjacencyManager{pgr: pgr}
}

func entryOffset(slot int) int { return adjDataOff + slot*adjEntrySize }

func readAdjCount(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf[adjCountOff:]) }

func readAdjNext(buf []byte) pager.PageID {
	return pager.PageID(binary.LittleEndian.Uint64(buf[adjNextOff:]))
}

func readEntry(buf []byte, slot int) (neighborVID, eid uint64, flags uint16, twinPage pager.PageID, twinSlot uint16) {
	off := entryOffset(slot)
	neighborVID = binary.LittleEndian.Uint64(buf[off:])
	eid = binary.LittleEndian.Uint64(buf[off+8:])
	flags = binary.LittleEndian.Uint16(buf[off+16:])
	twinPage = pager.PageID(binary.LittleEndian.Uint64(buf[off+18:]))
	twinSlot = binary.LittleEndian.Uint16(buf[off+26:])
	return
}

func writeEntry(buf []byte, slot int, neighborVID, eid uint64, flags uint16, twinPage pager.PageID, twinSlot uint16) {
	off := entryOffset(slot)
	binary.LittleEndian.PutUint64(buf[off:], neighborVID)
	binary.LittleEndian.PutUint64(buf[off+8:], eid)
	binary.LittleEndian.PutUint16(buf[off+16:], flags)
	binary.LittleEndian.PutUint64(buf[off+18:], uint64(twinPage))
	binary.LittleEndian.PutUint16(buf[off+26:], twinSlot)
}

// AddEntry appends (neighborVID, eid) to the chain rooted at head, growing
// the chain if the head page is full. Returns the (possibly new) head and
// the ref of the inserted entry; the twin fields are left unset — call
// SetTwin once both halves of an edge insert exist.
func (m *AdjacencyManager) AddEntry(head pager.PageID, neighborVID, eid uint64) (pager.PageID, AdjacencyRef, error) {
	cap := adjCapacity()
	if head != pager.InvalidPageID {
		h, err := m.pgr.ReadPage(head)
		if err != nil {
			return head, AdjacencyRef{}, err
		}
		count := int(binary.LittleEndian.Uint32(h.Buf[adjCountOff:]))
		if count < cap {
			writeEntry(h.Buf, count, neighborVID, eid, adjFlagUsed, pager.InvalidPageID, 0)
			binary.LittleEndian.PutUint32(h.Buf[adjCountOff:], uint32(count+1))
			m.pgr.UnpinPage(h, true)
			return head, AdjacencyRef{Page: head, Slot: count}, nil
		}
		m.pgr.UnpinPage(h, false)
	}

	h, err := m.pgr.AllocatePage(pager.PageKindAdjacency)
	if err != nil {
		return head, AdjacencyRef{}, err
	}
	binary.LittleEndian.PutUint64(h.Buf[adjNextOff:], uint64(head))
	writeEntry(h.Buf, 0, neighborVID, eid, adjFlagUsed, pager.InvalidPageID, 0)
	binary.LittleEndian.PutUint32(h.Buf[adjCountOff:], 1)
	newHead := h.ID
	m.pgr.UnpinPage(h, true)
	return newHead, AdjacencyRef{Page: newHead, Slot: 0}, nil
}

// SetTwin links two entries (typically the out-chain and in-chain halves
// of the same edge) as each other's twin, for O(1) paired deletion.
func (m *AdjacencyManager) SetTwin(a, b AdjacencyRef) error {
	if err := m.setTwinOne(a, b); err != nil {
		return err
	}
	return m.setTwinOne(b, a)
}

func (m *AdjacencyManager) setTwinOne(ref, twin AdjacencyRef) error {
	h, err := m.pgr.ReadPage(ref.Page)
	if err != nil {
		return err
	}
	defer m.pgr.UnpinPage(h, true)
	neighborVID, eid, flags, _, _ := readEntry(h.Buf, ref.Slot)
	writeEntry(h.Buf, ref.Slot, neighborVID, eid, flags, twin.Page, uint16(twin.Slot))
	return nil
}

// Twin returns the twin ref stored at ref.
func (m *AdjacencyManager) Twin(ref AdjacencyRef) (AdjacencyRef, error) {
	h, err := m.pgr.ReadPage(ref.Page)
	if err != nil {
		return AdjacencyRef{}, err
	}
	defer m.pgr.UnpinPage(h, false)
	_, _, _, twinPage, twinSlot := readEntry(h.Buf, ref.Slot)
	return AdjacencyRef{Page: twinPage, Slot: int(twinSlot)}, nil
}

// RemoveEntry marks ref's slot unused. If head is given and the affected
// page becomes entirely empty, it is unlinked from the chain and freed;
// the (possibly updated) head is returned.
func (m *AdjacencyManager) RemoveEntry(head pager.PageID, ref AdjacencyRef) (pager.PageID, error) {
	h, err := m.pgr.ReadPage(ref.Page)
	if err != nil {
		return head, err
	}
	neighborVID, eid, flags, twinPage, twinSlot := readEntry(h.Buf, ref.Slot)
	_ = neighborVID
	_ = eid
	writeEntry(h.Buf, ref.Slot, 0, 0, flags&^adjFlagUsed, twinPage, twinSlot)

	empty := true
	count := int(binary.LittleEndian.Uint32(h.Buf[adjCountOff:]))
	for i := 0; i < count; i++ {
		_, _, f, _, _ := readEntry(h.Buf, i)
		if f&adjFlagUsed != 0 {
			empty = false
			break
		}
	}
	next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[adjNextOff:]))
	m.pgr.UnpinPage(h, true)

	if !empty {
		return head, nil
	}
	if ref.Page == head {
		if err := m.pgr.FreePage(ref.Page); err != nil {
			return head, err
		}
		return next, nil
	}
	if err := m.unlink(head, ref.Page, next); err != nil {
		return head, err
	}
	return head, m.pgr.FreePage(ref.Page)
}

// unlink finds the page in the chain whose next pointer is target and
// rewrites it to skip target, in favor of replacement.
func (m *AdjacencyManager) unlink(head, target, replacement pager.PageID) error {
	pid := head
	for pid != pager.InvalidPageID {
		h, err := m.pgr.ReadPage(pid)
		if err != nil {
			return err
		}
		next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[adjNextOff:]))
		if next == target {
			binary.LittleEndian.PutUint64(h.Buf[adjNextOff:], uint64(replacement))
			m.pgr.UnpinPage(h, true)
			return nil
		}
		m.pgr.UnpinPage(h, false)
		pid = next
	}
	return fmt.Errorf("adjacency chain: page %d not found while unlinking %d", head, target)
}

// Iterate visits every live (neighborVID, eid) pair in the chain rooted at
// head. fn returning false stops iteration early.
func (m *AdjacencyManager) Iterate(head pager.PageID, fn func(neighborVID, eid uint64) bool) error {
	pid := head
	for pid != pager.InvalidPageID {
		h, err := m.pgr.ReadPage(pid)
		if err != nil {
			return err
		}
		count := int(binary.LittleEndian.Uint32(h.Buf[adjCountOff:]))
		next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[adjNextOff:]))
		stop := false
		for i := 0; i < count; i++ {
			neighborVID, eid, flags, _, _ := readEntry(h.Buf, i)
			if flags&adjFlagUsed == 0 {
				continue
			}
			if !fn(neighborVID, eid) {
				stop = true
				break
			}
		}
		m.pgr.UnpinPage(h, false)
		if stop {
			return nil
		}
		pid = next
	}
	return nil
}
