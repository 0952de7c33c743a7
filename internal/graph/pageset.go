package graph

import (
	"encoding/binary"

	"github.com/chaingraph/chaingraph/internal/pager"
)

// ───────────────────────────────────────────────────────────────────────────
// Page-id sets
// ───────────────────────────────────────────────────────────────────────────
//
// A PageIDSet is a persisted, in-memory-cached list of page ids belonging to
// one structure — the set of data pages in a vertex/edge store, or the set
// of vertex pages for one label (the label iteration index, spec
// §4.4). It is stored on
// disk as a chain of PageKindDictionary pages, the same inline-array-plus-
// next-pointer shape as the pager's free-page chain (spec §4.1), since a
// page-id set is metadata rather than vertex/edge/adjacency content.

const (
	psNextOff  = pager.PageHeaderSize // 32
	psCountOff = psNextOff + 8        // 40
	psDataOff  = psCountOff + 4       // 44
	psEntryLen = 8
)

func psCapacity() int { return (pager.PageSize - psDataOff) / psEntryLen }

// PageIDSet tracks an ordered collection of page ids, persisted to disk on
// every Add and Remove.
type PageIDSet struct {
	pgr        *pager.Pager
	head       pager.PageID
	chainPages []pager.PageID
	ids        []pager.PageID
}

// NewPageIDSet creates an empty, unpersisted set.
func NewPageIDSet(pgr *pager.Pager) *PageIDSet {
	return &PageIDSet{pgr: pgr, head: pager.InvalidPageID}
}

// LoadPageIDSet reads an existing set starting at head. head may be
// InvalidPageID, yielding an empty set.
func LoadPageIDSet(pgr *pager.Pager, head pager.PageID) (*PageIDSet, error) {
	s := &PageIDSet{pgr: pgr, head: head}
	pid := head
	for pid != pager.InvalidPageID {
		h, err := pgr.ReadPage(pid)
		if err != nil {
			return nil, err
		}
		s.chainPages = append(s.chainPages, pid)
		next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[psNextOff:]))
		count := binary.LittleEndian.Uint32(h.Buf[psCountOff:])
		for i := 0; i < int(count); i++ {
			off := psDataOff + i*psEntryLen
			s.ids = append(s.ids, pager.PageID(binary.LittleEndian.Uint64(h.Buf[off:])))
		}
		pgr.UnpinPage(h, false)
		pid = next
	}
	return s, nil
}

// Head returns the root page id of the persisted chain.
func (s *PageIDSet) Head() pager.PageID { return s.head }

// All returns every page id currently in the set, in insertion order.
func (s *PageIDSet) All() []pager.PageID { return s.ids }

// Contains reports whether id is already a member.
func (s *PageIDSet) Contains(id pager.PageID) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Add appends id to the set and persists the updated chain.
func (s *PageIDSet) Add(id pager.PageID) error {
	s.ids = append(s.ids, id)
	return s.flush()
}

// Remove drops id from the set and persists the updated chain.
func (s *PageIDSet) Remove(id pager.PageID) error {
	out := s.ids[:0]
	for _, existing := range s.ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	s.ids = out
	return s.flush()
}

// flush frees the current chain pages and writes a fresh chain holding
// s.ids, updating s.head.
func (s *PageIDSet) flush() error {
	for _, pid := range s.chainPages {
		if err := s.pgr.FreePage(pid); err != nil {
			return err
		}
	}
	s.chainPages = nil

	if len(s.ids) == 0 {
		s.head = pager.InvalidPageID
		return nil
	}

	capacity := psCapacity()
	var head pager.PageID
	var prevHandle *pager.Handle

	for i := 0; i < len(s.ids); i += capacity {
		end := i + capacity
		if end > len(s.ids) {
			end = len(s.ids)
		}
		chunk := s.ids[i:end]

		h, err := s.pgr.AllocatePage(pager.PageKindDictionary)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(h.Buf[psNextOff:], uint64(pager.InvalidPageID))
		binary.LittleEndian.PutUint32(h.Buf[psCountOff:], uint32(len(chunk)))
		for j, pid := range chunk {
			off := psDataOff + j*psEntryLen
			binary.LittleEndian.PutUint64(h.Buf[off:], uint64(pid))
		}
		s.chainPages = append(s.chainPages, h.ID)

		if prevHandle != nil {
			binary.LittleEndian.PutUint64(prevHandle.Buf[psNextOff:], uint64(h.ID))
			s.pgr.UnpinPage(prevHandle, true)
		} else {
			head = h.ID
		}
		prevHandle = h
	}
	if prevHandle != nil {
		s.pgr.UnpinPage(prevHandle, true)
	}
	s.head = head
	return nil
}
