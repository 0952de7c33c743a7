package graph

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/chaingraph/chaingraph/internal/gvalue"
	"github.com/chaingraph/chaingraph/internal/pager"
)

// ───────────────────────────────────────────────────────────────────────────
// Primary-key index (spec §4.4)
// ───────────────────────────────────────────────────────────────────────────
//
// Per label with a declared PRIMARY KEY property, a hash map keyed by the
// property value's canonical byte encoding (gvalue.Encode) to vid.
// Persisted as a chain of PageKindDictionary bucket pages — (key-length,
// key bytes, vid) entries — and loaded for every such label when the graph
// is opened; there is no lazy per-label loading.

const (
	pkNextOff  = pager.PageHeaderSize // 32
	pkCountOff = pkNextOff + 8        // 40
	pkDataOff  = pkCountOff + 4       // 44
)

// PrimaryKeyIndex maps a label's primary-key property values to vertex ids.
type PrimaryKeyIndex struct {
	mu   sync.RWMutex
	pgr  *pager.Pager
	head pager.PageID
	vids map[string]uint64
}

// NewPrimaryKeyIndex creates an empty, unpersisted index.
func NewPrimaryKeyIndex(pgr *pager.Pager) *PrimaryKeyIndex {
	return &PrimaryKeyIndex{pgr: pgr, head: pager.InvalidPageID, vids: map[string]uint64{}}
}

// LoadPrimaryKeyIndex reads an existing index rooted at head.
func LoadPrimaryKeyIndex(pgr *pager.Pager, head pager.PageID) (*PrimaryKeyIndex, error) {
	idx := &PrimaryKeyIndex{pgr: pgr, head: head, vids: map[string]uint64{}}
	pid := head
	for pid != pager.InvalidPageID {
		h, err := pgr.ReadPage(pid)
		if err != nil {
			return nil, err
		}
		next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[pkNextOff:]))
		count := binary.LittleEndian.Uint32(h.Buf[pkCountOff:])
		off := pkDataOff
		for i := uint32(0); i < count; i++ {
			keyLen := int(binary.LittleEndian.Uint32(h.Buf[off:]))
			off += 4
			key := string(h.Buf[off : off+keyLen])
			off += keyLen
			vid := binary.LittleEndian.Uint64(h.Buf[off:])
			off += 8
			idx.vids[key] = vid
		}
		pgr.UnpinPage(h, false)
		pid = next
	}
	return idx, nil
}

// Head returns the index's root page id.
func (idx *PrimaryKeyIndex) Head() pager.PageID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.head
}

// Lookup returns the vid for a primary-key value, if indexed.
func (idx *PrimaryKeyIndex) Lookup(key gvalue.Value) (uint64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	vid, ok := idx.vids[string(gvalue.Encode(nil, key))]
	return vid, ok
}

// Insert adds a new (key, vid) entry. Returns a CONSTRAINT_VIOLATION error
// if key is already indexed (spec §4.4: "a collision on insert fails with
// CONSTRAINT_VIOLATION(primary key)").
func (idx *PrimaryKeyIndex) Insert(key gvalue.Value, vid uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	enc := string(gvalue.Encode(nil, key))
	if _, exists := idx.vids[enc]; exists {
		return fmt.Errorf("CONSTRAINT_VIOLATION(primary key): duplicate value %s", key.String())
	}
	idx.vids[enc] = vid
	return idx.flushLocked()
}

// Remove drops the entry for key.
func (idx *PrimaryKeyIndex) Remove(key gvalue.Value) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vids, string(gvalue.Encode(nil, key)))
	return idx.flushLocked()
}

// flushLocked frees the index's existing page chain and rewrites it from
// the current in-memory map. Must be called with idx.mu held.
func (idx *PrimaryKeyIndex) flushLocked() error {
	old := idx.head
	type entry struct {
		key string
		vid uint64
	}
	entries := make([]entry, 0, len(idx.vids))
	for k, v := range idx.vids {
		entries = append(entries, entry{k, v})
	}

	var head pager.PageID = pager.InvalidPageID
	var prev *pager.Handle
	const pageBudget = pager.PageSize - pkDataOff

	i := 0
	for i < len(entries) {
		h, err := idx.pgr.AllocatePage(pager.PageKindDictionary)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(h.Buf[pkNextOff:], uint64(pager.InvalidPageID))

		used := 0
		var count uint32
		off := pkDataOff
		for i < len(entries) {
			e := entries[i]
			size := 4 + len(e.key) + 8
			if used+size > pageBudget {
				break
			}
			binary.LittleEndian.PutUint32(h.Buf[off:], uint32(len(e.key)))
			off += 4
			copy(h.Buf[off:], e.key)
			off += len(e.key)
			binary.LittleEndian.PutUint64(h.Buf[off:], e.vid)
			off += 8
			used += size
			count++
			i++
		}
		binary.LittleEndian.PutUint32(h.Buf[pkCountOff:], count)

		if prev != nil {
			binary.LittleEndian.PutUint64(prev.Buf[pkNextOff:], uint64(h.ID))
			idx.pgr.UnpinPage(prev, true)
		} else {
			head = h.ID
		}
		prev = h
	}
	if prev != nil {
		idx.pgr.UnpinPage(prev, true)
	}

	if old != pager.InvalidPageID && old != head {
		pid := old
		for pid != pager.InvalidPageID {
			h, err := idx.pgr.ReadPage(pid)
			if err != nil {
				break
			}
			next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[pkNextOff:]))
			idx.pgr.UnpinPage(h, false)
			idx.pgr.FreePage(pid)
			pid = next
		}
	}

	idx.head = head
	return nil
}
