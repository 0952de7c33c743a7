package graph

import (
	"testing"

	"github.com/chaingraph/chaingraph/internal/pager"
)

func TestAdjacencyManager_AddAndIterate(t *testing.T) {
	pgr := openTestPager(t)
	m := NewAdjacencyManager(pgr)

	head := pager.InvalidPageID
	var refs []AdjacencyRef
	for i := uint64(1); i <= 5; i++ {
		var ref AdjacencyRef
		var err error
		head, ref, err = m.AddEntry(head, i*10, i)
		if err != nil {
			t.Fatalf("AddEntry(%d): %v", i, err)
		}
		refs = append(refs, ref)
	}

	var got []uint64
	if err := m.Iterate(head, func(neighborVID, eid uint64) bool {
		got = append(got, neighborVID, eid)
		return true
	}); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d values, want 10", len(got))
	}
	_ = refs
}

func TestAdjacencyManager_GrowsChainWhenPageFull(t *testing.T) {
	pgr := openTestPager(t)
	m := NewAdjacencyManager(pgr)

	head := pager.InvalidPageID
	cap := adjCapacity()
	firstPage := pager.InvalidPageID
	for i := 0; i < cap+1; i++ {
		var err error
		head, _, err = m.AddEntry(head, uint64(i), uint64(i))
		if err != nil {
			t.Fatalf("AddEntry(%d): %v", i, err)
		}
		if i == 0 {
			firstPage = head
		}
	}
	if head == firstPage {
		t.Fatalf("expected a new head page once the first page filled up")
	}

	count := 0
	m.Iterate(head, func(_, _ uint64) bool { count++; return true })
	if count != cap+1 {
		t.Fatalf("iterated %d entries, want %d", count, cap+1)
	}
}

func TestAdjacencyManager_SetTwinAndLookup(t *testing.T) {
	pgr := openTestPager(t)
	m := NewAdjacencyManager(pgr)

	outHead, outRef, err := m.AddEntry(pager.InvalidPageID, 100, 7)
	if err != nil {
		t.Fatalf("AddEntry out: %v", err)
	}
	inHead, inRef, err := m.AddEntry(pager.InvalidPageID, 200, 7)
	if err != nil {
		t.Fatalf("AddEntry in: %v", err)
	}
	if err := m.SetTwin(outRef, inRef); err != nil {
		t.Fatalf("SetTwin: %v", err)
	}

	gotTwin, err := m.Twin(outRef)
	if err != nil {
		t.Fatalf("Twin(outRef): %v", err)
	}
	if gotTwin != inRef {
		t.Fatalf("Twin(outRef) = %+v, want %+v", gotTwin, inRef)
	}
	gotTwin, err = m.Twin(inRef)
	if err != nil {
		t.Fatalf("Twin(inRef): %v", err)
	}
	if gotTwin != outRef {
		t.Fatalf("Twin(inRef) = %+v, want %+v", gotTwin, outRef)
	}
	_ = outHead
	_ = inHead
}

func TestAdjacencyManager_RemoveEntryUnusesSlotAndFreesEmptyPage(t *testing.T) {
	pgr := openTestPager(t)
	m := NewAdjacencyManager(pgr)

	head, ref, err := m.AddEntry(pager.InvalidPageID, 42, 1)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	newHead, err := m.RemoveEntry(head, ref)
	if err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if newHead != pager.InvalidPageID {
		t.Fatalf("newHead = %v, want InvalidPageID once the only entry is removed", newHead)
	}

	count := 0
	m.Iterate(newHead, func(_, _ uint64) bool { count++; return true })
	if count != 0 {
		t.Fatalf("expected empty chain, got %d entries", count)
	}
}

func TestAdjacencyManager_RemoveFromNonHeadPageUnlinksChain(t *testing.T) {
	pgr := openTestPager(t)
	m := NewAdjacencyManager(pgr)

	head := pager.InvalidPageID
	cap := adjCapacity()
	var firstPageFirstRef AdjacencyRef
	for i := 0; i < cap; i++ {
		var ref AdjacencyRef
		var err error
		head, ref, err = m.AddEntry(head, uint64(i), uint64(i))
		if err != nil {
			t.Fatalf("AddEntry(%d): %v", i, err)
		}
		if i == 0 {
			firstPageFirstRef = ref
		}
	}
	// This page is now full and becomes the tail once a new head is added.
	newHead, _, err := m.AddEntry(head, 999, 999)
	if err != nil {
		t.Fatalf("AddEntry overflow: %v", err)
	}
	if newHead == head {
		t.Fatalf("expected a new head page")
	}

	// Empty out the old (now non-head) page entirely.
	cur := newHead
	for i := 0; i < cap; i++ {
		ref := firstPageFirstRef
		ref.Slot = i
		cur, err = m.RemoveEntry(cur, ref)
		if err != nil {
			t.Fatalf("RemoveEntry(%d): %v", i, err)
		}
	}

	count := 0
	m.Iterate(cur, func(_, _ uint64) bool { count++; return true })
	if count != 1 {
		t.Fatalf("expected only the overflow entry left, got %d entries", count)
	}
}
