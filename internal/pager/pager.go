package pager

import (
	"fmt"
	"sync"
)

// ───────────────────────────────────────────────────────────────────────────
// Pager — top-level storage façade
// ───────────────────────────────────────────────────────────────────────────
//
// Pager owns a data file's FileManager, its buffer pool, its free-page
// manager, and the in-memory copy of the meta page. It is the single entry
// point the graph and catalog layers use to allocate, read, write, and free
// pages (spec §4.1, §4.2). There is no write-ahead log: durability beyond
// per-page CRC detection of corruption is out of scope.

// PagerConfig configures a Pager.
type PagerConfig struct {
	// Path is the data file path.
	Path string

	// BufferPoolCapacity is the number of pages the buffer pool holds
	// resident. 0 selects the BufferPool default.
	BufferPoolCapacity int
}

// Pager is the storage engine's single point of access to pages on disk.
type Pager struct {
	fm   *FileManager
	pool *BufferPool

	mu   sync.Mutex // guards meta and free, serializes allocation/free
	meta *MetaPage
	free *FreeManager
}

// Open opens or creates a data file at cfg.Path and prepares the pager for
// use. A brand-new file is initialized with a fresh meta page.
func Open(cfg PagerConfig) (*Pager, error) {
	fm, err := OpenFileManager(cfg.Path)
	if err != nil {
		return nil, err
	}

	isNew, err := fm.IsNew()
	if err != nil {
		fm.Close()
		return nil, err
	}

	p := &Pager{
		fm:   fm,
		pool: NewBufferPool(fm, Config{Capacity: cfg.BufferPoolCapacity}),
		free: NewFreeManager(),
	}

	if isNew {
		if _, err := fm.Grow(); err != nil { // reserve page 0 for the meta page
			fm.Close()
			return nil, err
		}
		p.meta = NewMetaPage()
		if err := fm.WritePageRaw(MetaPageID, MarshalMetaPage(p.meta)); err != nil {
			fm.Close()
			return nil, err
		}
		if err := fm.Sync(); err != nil {
			fm.Close()
			return nil, err
		}
		return p, nil
	}

	buf, err := fm.ReadPageRaw(MetaPageID)
	if err != nil {
		fm.Close()
		return nil, err
	}
	meta, err := UnmarshalMetaPage(buf)
	if err != nil {
		fm.Close()
		return nil, err
	}
	p.meta = meta
	if meta.FreeListHead != InvalidPageID {
		if err := p.free.LoadFromDisk(meta.FreeListHead, fm.ReadPageRaw); err != nil {
			fm.Close()
			return nil, err
		}
	}
	return p, nil
}

// Meta returns a copy of the current in-memory meta page.
func (p *Pager) Meta() MetaPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.meta
}

// SetRoot updates one of the meta page's root pointers and persists it.
// name must be one of "catalog", "vertex", "edge", "adjacency", "dictionary".
func (p *Pager) SetRoot(name string, root PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch name {
	case "catalog":
		p.meta.CatalogRoot = root
	case "vertex":
		p.meta.VertexStoreRoot = root
	case "edge":
		p.meta.EdgeStoreRoot = root
	case "adjacency":
		p.meta.AdjacencyRoot = root
	case "dictionary":
		p.meta.DictionaryRoot = root
	default:
		return fmt.Errorf("unknown root name %q", name)
	}
	return p.writeMetaLocked()
}

func (p *Pager) writeMetaLocked() error {
	return p.fm.WritePageRaw(MetaPageID, MarshalMetaPage(p.meta))
}

// AllocatePage acquires a page of the given kind, reusing a freed page id
// when one is available and growing the file otherwise. The returned handle
// is pinned and must eventually be unpinned via UnpinPage.
func (p *Pager) AllocatePage(kind PageKind) (*Handle, error) {
	p.mu.Lock()
	reused := p.free.Alloc()
	p.mu.Unlock()

	if reused == InvalidPageID {
		h, err := p.pool.New(kind)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.meta.PageCount++
		err = p.writeMetaLocked()
		p.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	buf := NewPage(kind, reused)
	if err := p.fm.WritePageRaw(reused, buf); err != nil {
		return nil, err
	}
	h, err := p.pool.Fetch(reused)
	if err != nil {
		return nil, err
	}
	h.frame.dirty = true
	return h, nil
}

// ReadPage fetches a pinned handle for an existing page id.
func (p *Pager) ReadPage(id PageID) (*Handle, error) {
	return p.pool.Fetch(id)
}

// UnpinPage releases a handle acquired via ReadPage or AllocatePage. dirty
// must be true if the caller modified the page body.
func (p *Pager) UnpinPage(h *Handle, dirty bool) {
	p.pool.Unpin(h, dirty)
}

// FreePage marks a page id as reclaimable and persists the updated
// free-list chain. The caller must not hold any outstanding handle to id.
func (p *Pager) FreePage(id PageID) error {
	p.mu.Lock()
	p.free.Free(id)
	head, err := p.flushFreeListLocked()
	if err == nil {
		p.meta.FreeListHead = head
		err = p.writeMetaLocked()
	}
	p.mu.Unlock()

	p.pool.Discard(id)
	return err
}

// flushFreeListLocked writes the in-memory free set out as a chain of
// free-list pages, growing the file for backing pages as needed. Must be
// called with p.mu held.
func (p *Pager) flushFreeListLocked() (PageID, error) {
	var writeErr error
	head, pages := p.free.FlushToDisk(PageSize, func() (PageID, []byte) {
		pid, err := p.fm.Grow()
		if err != nil {
			writeErr = err
			return InvalidPageID, NewPage(PageKindFree, InvalidPageID)
		}
		p.meta.PageCount++
		return pid, NewPage(PageKindFree, pid)
	})
	if writeErr != nil {
		return InvalidPageID, writeErr
	}
	for _, buf := range pages {
		pid := PageID(HeaderID(buf))
		if err := p.fm.WritePageRaw(pid, buf); err != nil {
			return InvalidPageID, err
		}
	}
	return head, nil
}

// FreeCount returns the number of pages currently available for reuse.
func (p *Pager) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Count()
}

// FlushAll writes back every dirty cached page and fsyncs the data file.
func (p *Pager) FlushAll() error {
	return p.pool.FlushAll()
}

// Watermark reports buffer-pool occupancy (spec §4.2).
func (p *Pager) Watermark() (resident, capacity int, status WatermarkStatus) {
	return p.pool.Watermark()
}

// PoolStats returns cumulative buffer-pool counters.
func (p *Pager) PoolStats() Stats {
	return p.pool.StatsSnapshot()
}

// PageCount returns the total number of pages ever allocated (including
// freed ones still occupying file space).
func (p *Pager) PageCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meta.PageCount
}

// Close flushes all dirty pages and closes the underlying data file.
func (p *Pager) Close() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	return p.fm.Close()
}

// Path returns the data file path.
func (p *Pager) Path() string { return p.fm.Path() }
