package graph

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/chaingraph/chaingraph/internal/pager"
)

// ───────────────────────────────────────────────────────────────────────────
// Graph catalog (spec §3 "Graph catalog")
// ───────────────────────────────────────────────────────────────────────────
//
// The catalog maps a graph name to the root pointers of everything that
// makes the graph durable: its label/property dictionaries, vertex/edge
// stores, label and primary-key indexes, and its inline schema. Unlike the
// fixed-width entries in dictionary.go/pageset.go, a catalog entry is a
// variable-size structure (a schema can have an arbitrary number of node
// and edge types), so the whole catalog map is gob-encoded into one blob
// and that blob is split across a chain of pages.

func init() {
	gob.Register(&Schema{})
}

const (
	catNextOff = pager.PageHeaderSize // 32
	catLenOff  = catNextOff + 8       // 40
	catDataOff = catLenOff + 4        // 44
)

// CatalogEntry is everything the catalog stores for one named graph.
type CatalogEntry struct {
	Name            string
	Schema          *Schema
	VertexLabelDict pager.PageID
	EdgeLabelDict   pager.PageID
	PropKeyDict     pager.PageID
	VertexStoreRoot pager.PageID
	EdgeStoreRoot   pager.PageID
	LabelIndexRoots map[uint32]pager.PageID // vertex label id -> label-index root
	PKIndexRoots    map[uint32]pager.PageID // vertex label id -> primary-key index root
	NextVID         uint64
	NextEID         uint64
}

// Catalog is the durable directory of every graph in the database.
type Catalog struct {
	mu      sync.RWMutex
	pgr     *pager.Pager
	head    pager.PageID
	entries map[string]*CatalogEntry
}

// NewCatalog creates an empty, unpersisted catalog.
func NewCatalog(pgr *pager.Pager) *Catalog {
	return &Catalog{pgr: pgr, head: pager.InvalidPageID, entries: map[string]*CatalogEntry{}}
}

// LoadCatalog reads an existing catalog rooted at head. A head of
// InvalidPageID yields an empty catalog.
func LoadCatalog(pgr *pager.Pager, head pager.PageID) (*Catalog, error) {
	c := &Catalog{pgr: pgr, head: head, entries: map[string]*CatalogEntry{}}
	if head == pager.InvalidPageID {
		return c, nil
	}
	var blob bytes.Buffer
	pid := head
	for pid != pager.InvalidPageID {
		h, err := pgr.ReadPage(pid)
		if err != nil {
			return nil, err
		}
		next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[catNextOff:]))
		n := binary.LittleEndian.Uint32(h.Buf[catLenOff:])
		blob.Write(h.Buf[catDataOff : catDataOff+int(n)])
		pgr.UnpinPage(h, false)
		pid = next
	}
	if blob.Len() > 0 {
		if err := gob.NewDecoder(&blob).Decode(&c.entries); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	}
	return c, nil
}

// Head returns the catalog's root page id.
func (c *Catalog) Head() pager.PageID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head
}

// Get returns the catalog entry for name, if the graph exists.
func (c *Catalog) Get(name string) (*CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Names returns every graph name currently in the catalog, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for n := range c.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Put inserts or replaces entry, persisting the catalog.
func (c *Catalog) Put(entry *CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Name] = entry
	return c.flushLocked()
}

// Drop removes name from the catalog, persisting the change. Reports
// whether a graph of that name existed.
func (c *Catalog) Drop(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; !ok {
		return false, nil
	}
	delete(c.entries, name)
	return true, c.flushLocked()
}

// flushLocked gob-encodes the entry map and rewrites the catalog's page
// chain. Must be called with c.mu held.
func (c *Catalog) flushLocked() error {
	var blob bytes.Buffer
	if err := gob.NewEncoder(&blob).Encode(c.entries); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	old := c.head
	data := blob.Bytes()
	const pageBudget = pager.PageSize - catDataOff

	var head pager.PageID = pager.InvalidPageID
	var prev *pager.Handle

	if len(data) == 0 {
		c.head = pager.InvalidPageID
	} else {
		for off := 0; off < len(data); {
			end := off + pageBudget
			if end > len(data) {
				end = len(data)
			}
			chunk := data[off:end]

			h, err := c.pgr.AllocatePage(pager.PageKindDictionary)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(h.Buf[catNextOff:], uint64(pager.InvalidPageID))
			binary.LittleEndian.PutUint32(h.Buf[catLenOff:], uint32(len(chunk)))
			copy(h.Buf[catDataOff:], chunk)

			if prev != nil {
				binary.LittleEndian.PutUint64(prev.Buf[catNextOff:], uint64(h.ID))
				c.pgr.UnpinPage(prev, true)
			} else {
				head = h.ID
			}
			prev = h
			off = end
		}
		if prev != nil {
			c.pgr.UnpinPage(prev, true)
		}
		c.head = head
	}

	if old != pager.InvalidPageID && old != c.head {
		pid := old
		for pid != pager.InvalidPageID {
			h, err := c.pgr.ReadPage(pid)
			if err != nil {
				break
			}
			next := pager.PageID(binary.LittleEndian.Uint64(h.Buf[catNextOff:]))
			c.pgr.UnpinPage(h, false)
			c.pgr.FreePage(pid)
			pid = next
		}
	}
	return nil
}
