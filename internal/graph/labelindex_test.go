package graph

import (
	"testing"

	"github.com/chaingraph/chaingraph/internal/pager"
)

func TestLabelIndex_RecordPageIsIdempotentAndPersists(t *testing.T) {
	pgr := openTestPager(t)
	li := NewLabelIndex(pgr)

	h, _ := pgr.AllocatePage(pager.PageKindVertex)
	pgr.UnpinPage(h, false)

	if err := li.RecordPage(1, h.ID); err != nil {
		t.Fatalf("RecordPage: %v", err)
	}
	if err := li.RecordPage(1, h.ID); err != nil {
		t.Fatalf("RecordPage again: %v", err)
	}
	if pages := li.Pages(1); len(pages) != 1 {
		t.Fatalf("Pages(1) = %v, want exactly one entry despite duplicate RecordPage", pages)
	}

	reloaded, err := LoadLabelIndex(pgr, li.Roots())
	if err != nil {
		t.Fatalf("LoadLabelIndex: %v", err)
	}
	if pages := reloaded.Pages(1); len(pages) != 1 || pages[0] != h.ID {
		t.Fatalf("reloaded Pages(1) = %v, want [%d]", pages, h.ID)
	}
	if reloaded.Pages(999) != nil {
		t.Fatalf("Pages for unknown label should be nil")
	}
}
