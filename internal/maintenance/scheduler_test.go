package maintenance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chaingraph/chaingraph/internal/pager"
)

func TestScheduler_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.chgrph")
	pgr, err := pager.Open(pager.PagerConfig{Path: path})
	if err != nil {
		t.Fatalf("pager.Open: %v", err)
	}
	t.Cleanup(func() { pgr.Close() })

	s := New(pgr, Config{WatermarkInterval: 10 * time.Millisecond})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Fatalf("expected second Start to fail while already running")
	}
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}

func TestScheduler_RejectsBadCronExpression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.chgrph")
	pgr, err := pager.Open(pager.PagerConfig{Path: path})
	if err != nil {
		t.Fatalf("pager.Open: %v", err)
	}
	t.Cleanup(func() { pgr.Close() })

	s := New(pgr, Config{CheckpointCron: "not-a-cron-expression"})
	if err := s.Start(); err == nil {
		t.Fatalf("expected Start to reject an invalid cron expression")
	}
}
