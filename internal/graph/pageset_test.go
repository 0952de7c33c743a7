package graph

import (
	"testing"

	"github.com/chaingraph/chaingraph/internal/pager"
)

func TestPageIDSet_AddRemoveContains(t *testing.T) {
	pgr := openTestPager(t)
	s := NewPageIDSet(pgr)

	a, _ := pgr.AllocatePage(pager.PageKindVertex)
	b, _ := pgr.AllocatePage(pager.PageKindVertex)
	pgr.UnpinPage(a, false)
	pgr.UnpinPage(b, false)

	if err := s.Add(a.ID); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if err := s.Add(b.ID); err != nil {
		t.Fatalf("Add(b): %v", err)
	}
	if !s.Contains(a.ID) || !s.Contains(b.ID) {
		t.Fatalf("set does not contain added ids")
	}

	if err := s.Remove(a.ID); err != nil {
		t.Fatalf("Remove(a): %v", err)
	}
	if s.Contains(a.ID) {
		t.Fatalf("set still contains removed id")
	}
	if !s.Contains(b.ID) {
		t.Fatalf("set lost unrelated id after Remove")
	}
}

func TestPageIDSet_PersistsAcrossReload(t *testing.T) {
	pgr := openTestPager(t)
	s := NewPageIDSet(pgr)
	var ids []pager.PageID
	for i := 0; i < 10; i++ {
		h, err := pgr.AllocatePage(pager.PageKindVertex)
		if err != nil {
			t.Fatalf("AllocatePage: %v", err)
		}
		pgr.UnpinPage(h, false)
		ids = append(ids, h.ID)
		if err := s.Add(h.ID); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	reloaded, err := LoadPageIDSet(pgr, s.Head())
	if err != nil {
		t.Fatalf("LoadPageIDSet: %v", err)
	}
	if len(reloaded.All()) != len(ids) {
		t.Fatalf("reloaded has %d ids, want %d", len(reloaded.All()), len(ids))
	}
	for _, id := range ids {
		if !reloaded.Contains(id) {
			t.Fatalf("reloaded set missing id %d", id)
		}
	}
}

func TestPageIDSet_EmptyAfterRemovingLastMember(t *testing.T) {
	pgr := openTestPager(t)
	s := NewPageIDSet(pgr)
	h, _ := pgr.AllocatePage(pager.PageKindVertex)
	pgr.UnpinPage(h, false)
	s.Add(h.ID)
	if err := s.Remove(h.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Head() != pager.InvalidPageID {
		t.Fatalf("Head() = %v, want InvalidPageID for an empty set", s.Head())
	}
}
