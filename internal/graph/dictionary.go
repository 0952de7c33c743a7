package graph

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/chaingraph/chaingraph/internal/pager"
)

// ───────────────────────────────────────────────────────────────────────────
// Dictionaries — name ↔ id mappings (spec §3 "Label dictionary")
// ───────────────────────────────────────────────────────────────────────────
//
// A graph keeps three dictionaries: vertex labels, edge labels, and
// property keys, each mapping a short name to a 32-bit id. Entries are
// persisted as length-prefixed (id, name) pairs across a chain of
// PageKindDictionary pages and loaded eagerly at open.

const (
	dictNextOff  = pager.PageHeaderSize // 32
	dictCountOff = dictNextOff + 8      // 40
	dictDataOff  = dictCountOff + 4     // 44
)

// Dictionary is a bidirectional name/id mapping with on-disk persistence.
type Dictionary struct {
	mu     sync.RWMutex
	pgr    *pager.Pager
	head   pager.PageID
	nextID uint32
	byName map[string]uint32
	byID   map[uint32]string
}

// NewDictionary creates an empty, unpersisted dictionary.
func NewDictionary(pgr *pager.Pager) *Dictionary {
	return &Dictionary{
		pgr:    pgr,
		head:   pager.InvalidPageID,
		nextID: 1,
		byName: map[string]uint32{},
		byID:   map[uint32]string{},
	}
}

// LoadDictionary reads an existing dictionary rooted at head.
func LoadDictionary(pgr *pager.Pager, head pager.PageID) (*Dictionary, error) {
	d := &Dictionary{
		pgr:    pgr,
		head:   head,
		nextID: 1,
		byName: map[string]uint32{},
		byID:   map[uint32]string{},
	}
	pid := head
	for pid != pager.InvalidPageID {
		h, err := pgr.ReadPage(pid)
		if err != nil {
			return nil, err
		}
		next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[dictNextOff:]))
		count := binary.LittleEndian.Uint32(h.Buf[dictCountOff:])
		off := dictDataOff
		for i := uint32(0); i < count; i++ {
			id := binary.LittleEndian.Uint32(h.Buf[off:])
			off += 4
			nameLen := int(binary.LittleEndian.Uint32(h.Buf[off:]))
			off += 4
			name := string(h.Buf[off : off+nameLen])
			off += nameLen
			d.byName[name] = id
			d.byID[id] = name
			if id >= d.nextID {
				d.nextID = id + 1
			}
		}
		pgr.UnpinPage(h, false)
		pid = next
	}
	return d, nil
}

// Lookup returns the id for name, if registered.
func (d *Dictionary) Lookup(name string) (uint32, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byName[name]
	return id, ok
}

// Name returns the name for id, if registered.
func (d *Dictionary) Name(id uint32) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.byID[id]
	return name, ok
}

// Names returns every registered name.
func (d *Dictionary) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.byName))
	for n := range d.byName {
		out = append(out, n)
	}
	return out
}

// Intern returns the existing id for name, registering a new one (and
// persisting the dictionary) if it does not yet exist.
func (d *Dictionary) Intern(name string) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.byName[name]; ok {
		return id, nil
	}
	id := d.nextID
	d.nextID++
	d.byName[name] = id
	d.byID[id] = name
	if err := d.flushLocked(); err != nil {
		return 0, fmt.Errorf("persist dictionary entry %q: %w", name, err)
	}
	return id, nil
}

// Head returns the dictionary's root page id.
func (d *Dictionary) Head() pager.PageID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.head
}

// flushLocked frees the dictionary's existing page chain and rewrites it
// from the current in-memory contents. Must be called with d.mu held.
func (d *Dictionary) flushLocked() error {
	old := d.head
	entries := make([]struct {
		id   uint32
		name string
	}, 0, len(d.byID))
	for id, name := range d.byID {
		entries = append(entries, struct {
			id   uint32
			name string
		}{id, name})
	}

	var head pager.PageID = pager.InvalidPageID
	var prev *pager.Handle
	const pageBudget = pager.PageSize - dictDataOff

	i := 0
	for i < len(entries) {
		h, err := d.pgr.AllocatePage(pager.PageKindDictionary)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(h.Buf[dictNextOff:], uint64(pager.InvalidPageID))

		used := 0
		var count uint32
		off := dictDataOff
		for i < len(entries) {
			e := entries[i]
			size := 4 + 4 + len(e.name)
			if used+size > pageBudget {
				break
			}
			binary.LittleEndian.PutUint32(h.Buf[off:], e.id)
			off += 4
			binary.LittleEndian.PutUint32(h.Buf[off:], uint32(len(e.name)))
			off += 4
			copy(h.Buf[off:], e.name)
			off += len(e.name)
			used += size
			count++
			i++
		}
		binary.LittleEndian.PutUint32(h.Buf[dictCountOff:], count)

		if prev != nil {
			binary.LittleEndian.PutUint64(prev.Buf[dictNextOff:], uint64(h.ID))
			d.pgr.UnpinPage(prev, true)
		} else {
			head = h.ID
		}
		prev = h
	}
	if prev != nil {
		d.pgr.UnpinPage(prev, true)
	}

	if old != pager.InvalidPageID && old != head {
		pid := old
		for pid != pager.InvalidPageID {
			h, err := d.pgr.ReadPage(pid)
			if err != nil {
				break
			}
			next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[dictNextOff:]))
			d.pgr.UnpinPage(h, false)
			d.pgr.FreePage(pid)
			pid = next
		}
	}

	d.head = head
	return nil
}
