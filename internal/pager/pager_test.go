package pager

import (
	"path/filepath"
	"testing"
)

func openTestPager(t *testing.T, capacity int) *Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.chgrph")
	p, err := Open(PagerConfig{Path: path, BufferPoolCapacity: capacity})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPager_OpenCreatesMetaPage(t *testing.T) {
	p := openTestPager(t, 0)
	m := p.Meta()
	if m.FormatVersion != CurrentFormatVersion {
		t.Fatalf("format version = %d, want %d", m.FormatVersion, CurrentFormatVersion)
	}
	if m.CatalogRoot != InvalidPageID {
		t.Fatalf("catalog root = %d, want InvalidPageID", m.CatalogRoot)
	}
}

func TestPager_ReopenPreservesMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.chgrph")
	p1, err := Open(PagerConfig{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p1.SetRoot("catalog", PageID(42)); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	if err := p1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p2, err := Open(PagerConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer p2.Close()
	if got := p2.Meta().CatalogRoot; got != 42 {
		t.Fatalf("catalog root after reopen = %d, want 42", got)
	}
}

func TestPager_AllocateReadWriteRoundTrip(t *testing.T) {
	p := openTestPager(t, 0)

	h, err := p.AllocatePage(PageKindVertex)
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	sp := WrapSlottedPage(h.Buf)
	if _, err := sp.InsertRecord([]byte("payload")); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	id := h.ID
	p.UnpinPage(h, true)

	if err := p.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	h2, err := p.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	defer p.UnpinPage(h2, false)
	sp2 := WrapSlottedPage(h2.Buf)
	if got := string(sp2.GetRecord(0)); got != "payload" {
		t.Fatalf("record = %q, want %q", got, "payload")
	}
}

func TestPager_FreeAndReuse(t *testing.T) {
	p := openTestPager(t, 0)

	h, err := p.AllocatePage(PageKindVertex)
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	id := h.ID
	p.UnpinPage(h, false)

	if err := p.FreePage(id); err != nil {
		t.Fatalf("FreePage: %v", err)
	}
	if p.FreeCount() != 1 {
		t.Fatalf("free count = %d, want 1", p.FreeCount())
	}

	h2, err := p.AllocatePage(PageKindEdge)
	if err != nil {
		t.Fatalf("AllocatePage after free: %v", err)
	}
	defer p.UnpinPage(h2, false)
	if h2.ID != id {
		t.Fatalf("expected the freed page id %d to be reused, got %d", id, h2.ID)
	}
	if p.FreeCount() != 0 {
		t.Fatalf("free count after reuse = %d, want 0", p.FreeCount())
	}
}

func TestPager_WatermarkReflectsOccupancy(t *testing.T) {
	p := openTestPager(t, 10)

	for i := 0; i < 9; i++ {
		h, err := p.AllocatePage(PageKindVertex)
		if err != nil {
			t.Fatalf("AllocatePage %d: %v", i, err)
		}
		p.UnpinPage(h, false)
	}

	resident, capacity, status := p.Watermark()
	if capacity != 10 {
		t.Fatalf("capacity = %d, want 10", capacity)
	}
	if resident < 9 {
		t.Fatalf("resident = %d, want at least 9", resident)
	}
	if status != WatermarkCritical {
		t.Fatalf("status = %v, want Critical at 90%% occupancy", status)
	}
}
