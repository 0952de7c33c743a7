package pager

import (
	"encoding/binary"
)

// ───────────────────────────────────────────────────────────────────────────
// Free pages
// ───────────────────────────────────────────────────────────────────────────
//
// The on-disk free list is a singly-linked chain of pages: the head pid is
// in the meta page, and each free page's next pointer is in the 8 bytes
// right after its common header. Each page also stores an array of additional free page IDs so the
// chain does not need one page per free page.
//
// Layout:
//   [0:32]   Common PageHeader (Kind=Free)
//   [32:40]  NextFree    (uint64 LE) — next free page in the chain, 0 = end
//   [40:44]  EntryCount  (uint32 LE) — number of PageID entries that follow
//   [44:44+8*EntryCount] PageID entries (uint64 LE each)
//
// Capacity per page: (PageSize - 44) / 8 entries.

const (
	freeNextOff  = PageHeaderSize  // 32
	freeCountOff = freeNextOff + 8 // 40
	freeDataOff  = freeCountOff + 4 // 44
	freeEntryLen = 8                // uint64
)

// FreeCapacity returns how many page IDs fit in one free page's entry array.
func FreeCapacity(pageSize int) int {
	return (pageSize - freeDataOff) / freeEntryLen
}

// FreePage wraps a page buffer as a free-list page.
type FreePage struct {
	buf      []byte
	pageSize int
}

// WrapFreePage wraps an existing free-list page buffer.
func WrapFreePage(buf []byte) *FreePage {
	return &FreePage{buf: buf, pageSize: len(buf)}
}

// InitFreePage creates a new empty free-list page.
func InitFreePage(buf []byte, id PageID) *FreePage {
	h := &PageHeader{Kind: PageKindFree, ID: id}
	MarshalHeader(h, buf)
	binary.LittleEndian.PutUint64(buf[freeNextOff:], uint64(InvalidPageID))
	binary.LittleEndian.PutUint32(buf[freeCountOff:], 0)
	return &FreePage{buf: buf, pageSize: len(buf)}
}

// Next returns the next free-list page in the chain.
func (fl *FreePage) Next() PageID {
	return PageID(binary.LittleEndian.Uint64(fl.buf[freeNextOff:]))
}

// SetNext sets the next page pointer.
func (fl *FreePage) SetNext(pid PageID) {
	binary.LittleEndian.PutUint64(fl.buf[freeNextOff:], uint64(pid))
}

// EntryCount returns the number of free page IDs stored inline.
func (fl *FreePage) EntryCount() int {
	return int(binary.LittleEndian.Uint32(fl.buf[freeCountOff:]))
}

// GetEntry returns the i-th free page ID.
func (fl *FreePage) GetEntry(i int) PageID {
	off := freeDataOff + i*freeEntryLen
	return PageID(binary.LittleEndian.Uint64(fl.buf[off:]))
}

// AddEntry appends a free page ID. Returns false if the page is full.
func (fl *FreePage) AddEntry(pid PageID) bool {
	ec := fl.EntryCount()
	if ec >= FreeCapacity(fl.pageSize) {
		return false
	}
	off := freeDataOff + ec*freeEntryLen
	binary.LittleEndian.PutUint64(fl.buf[off:], uint64(pid))
	binary.LittleEndian.PutUint32(fl.buf[freeCountOff:], uint32(ec+1))
	return true
}

// AllEntries returns all stored free page IDs.
func (fl *FreePage) AllEntries() []PageID {
	ec := fl.EntryCount()
	ids := make([]PageID, ec)
	for i := 0; i < ec; i++ {
		ids[i] = fl.GetEntry(i)
	}
	return ids
}

// Bytes returns the underlying page buffer.
func (fl *FreePage) Bytes() []byte { return fl.buf }

// ───────────────────────────────────────────────────────────────────────────
// FreeManager — coordinates free-list pages via the pager
// ───────────────────────────────────────────────────────────────────────────

// FreeManager tracks free pages using an in-memory set backed by free-list
// pages on disk. The pager calls its methods during allocation and freeing.
type FreeManager struct {
	free map[PageID]struct{} // set of all free page IDs
	head PageID              // head of the free-list chain on disk (meta page)
}

// NewFreeManager creates a FreeManager. Call LoadFromDisk to populate it
// from an existing file.
func NewFreeManager() *FreeManager {
	return &FreeManager{free: map[PageID]struct{}{}}
}

// LoadFromDisk walks the free-list chain starting at head and populates the
// in-memory set. readPage is a callback that reads a page by ID.
func (fm *FreeManager) LoadFromDisk(head PageID, readPage func(PageID) ([]byte, error)) error {
	fm.head = head
	pid := head
	for pid != InvalidPageID {
		buf, err := readPage(pid)
		if err != nil {
			return err
		}
		fl := WrapFreePage(buf)
		for _, freeID := range fl.AllEntries() {
			fm.free[freeID] = struct{}{}
		}
		pid = fl.Next()
	}
	return nil
}

// Alloc returns a free page ID (popped from the set) or InvalidPageID if empty.
func (fm *FreeManager) Alloc() PageID {
	for pid := range fm.free {
		delete(fm.free, pid)
		return pid
	}
	return InvalidPageID
}

// Free marks a page ID as available for reuse.
func (fm *FreeManager) Free(pid PageID) {
	fm.free[pid] = struct{}{}
}

// Count returns the number of free pages.
func (fm *FreeManager) Count() int { return len(fm.free) }

// AllFree returns all free page IDs (unsorted).
func (fm *FreeManager) AllFree() []PageID {
	ids := make([]PageID, 0, len(fm.free))
	for pid := range fm.free {
		ids = append(ids, pid)
	}
	return ids
}

// FlushToDisk writes the in-memory free set into free-list pages. It returns
// the head PageID of the new chain and the list of page buffers to write.
// allocPage is a callback that returns a new, zeroed page buffer with a
// fresh ID, outside of the free set itself.
func (fm *FreeManager) FlushToDisk(pageSize int, allocPage func() (PageID, []byte)) (PageID, [][]byte) {
	ids := fm.AllFree()
	if len(ids) == 0 {
		return InvalidPageID, nil
	}

	capacity := FreeCapacity(pageSize)
	var pages [][]byte
	var head PageID
	var prev *FreePage

	for i := 0; i < len(ids); i += capacity {
		end := i + capacity
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[i:end]

		pid, buf := allocPage()
		fl := InitFreePage(buf, pid)
		for _, fid := range chunk {
			fl.AddEntry(fid)
		}
		SetPageCRC(buf)
		pages = append(pages, buf)

		if prev != nil {
			prev.SetNext(pid)
			SetPageCRC(prev.Bytes()) // update CRC after linking
		} else {
			head = pid
		}
		prev = fl
	}

	fm.head = head
	return head, pages
}
