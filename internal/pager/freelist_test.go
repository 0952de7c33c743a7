package pager

import "testing"

func TestFreeManager_AllocFreeRoundTrip(t *testing.T) {
	fm := NewFreeManager()
	fm.Free(PageID(10))
	fm.Free(PageID(20))
	if fm.Count() != 2 {
		t.Fatalf("count = %d, want 2", fm.Count())
	}

	got := map[PageID]bool{}
	for i := 0; i < 2; i++ {
		pid := fm.Alloc()
		if pid == InvalidPageID {
			t.Fatal("expected a free page id")
		}
		got[pid] = true
	}
	if !got[10] || !got[20] {
		t.Fatalf("unexpected allocated set: %v", got)
	}
	if fm.Alloc() != InvalidPageID {
		t.Fatal("expected InvalidPageID once the free set is exhausted")
	}
}

func TestFreeManager_FlushAndLoadFromDisk(t *testing.T) {
	fm := NewFreeManager()
	capacity := FreeCapacity(PageSize)
	n := capacity + 5 // force a multi-page chain
	for i := 0; i < n; i++ {
		fm.Free(PageID(1000 + i))
	}

	backing := map[PageID][]byte{}
	nextID := PageID(5000)
	head, pages := fm.FlushToDisk(PageSize, func() (PageID, []byte) {
		pid := nextID
		nextID++
		buf := make([]byte, PageSize)
		return pid, buf
	})
	for _, buf := range pages {
		pid := HeaderID(buf)
		SetPageCRC(buf)
		backing[pid] = buf
	}
	if head == InvalidPageID {
		t.Fatal("expected a non-empty free-list chain")
	}
	if len(pages) < 2 {
		t.Fatalf("expected the chain to span multiple pages, got %d", len(pages))
	}

	loaded := NewFreeManager()
	err := loaded.LoadFromDisk(head, func(pid PageID) ([]byte, error) {
		return backing[pid], nil
	})
	if err != nil {
		t.Fatalf("LoadFromDisk: %v", err)
	}
	if loaded.Count() != n {
		t.Fatalf("loaded count = %d, want %d", loaded.Count(), n)
	}
}

func TestFreePage_AddEntryRespectsCapacity(t *testing.T) {
	buf := make([]byte, PageSize)
	fl := InitFreePage(buf, 1)
	cap := FreeCapacity(PageSize)
	for i := 0; i < cap; i++ {
		if !fl.AddEntry(PageID(i)) {
			t.Fatalf("AddEntry failed before reaching capacity at i=%d", i)
		}
	}
	if fl.AddEntry(PageID(cap)) {
		t.Fatal("expected AddEntry to fail once the page is full")
	}
	if fl.EntryCount() != cap {
		t.Fatalf("entry count = %d, want %d", fl.EntryCount(), cap)
	}
}
