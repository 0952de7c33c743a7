package graph

import (
	"path/filepath"
	"testing"

	"github.com/chaingraph/chaingraph/internal/pager"
)

func openTestPager(t *testing.T) *pager.Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.chgrph")
	p, err := pager.Open(pager.PagerConfig{Path: path, BufferPoolCapacity: 64})
	if err != nil {
		t.Fatalf("pager.Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}
