// Package maintenance runs periodic housekeeping against a pager: sampling
// the buffer pool watermark and, optionally, a cron-driven checkpoint flush.
package maintenance

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chaingraph/chaingraph/internal/pager"
)

// Config controls the maintenance scheduler's jobs. A zero Config runs
// watermark sampling on a fixed interval and no checkpoint job.
type Config struct {
	// WatermarkInterval is how often the buffer pool watermark is sampled.
	// Defaults to 30s if zero.
	WatermarkInterval time.Duration

	// CheckpointCron is a cron expression (with seconds field, matching
	// the teacher's cron.WithSeconds() convention) for periodic FlushAll
	// checkpoints. Empty disables the checkpoint job.
	CheckpointCron string
}

func (c Config) watermarkInterval() time.Duration {
	if c.WatermarkInterval <= 0 {
		return 30 * time.Second
	}
	return c.WatermarkInterval
}

// Scheduler owns the background jobs that keep a Pager's buffer pool
// watermark visible and optionally checkpoint its dirty pages on a cron
// schedule.
type Scheduler struct {
	pgr  *pager.Pager
	cfg  Config
	cron *cron.Cron

	mu      sync.Mutex
	stopCh  chan struct{}
	started bool
}

// New creates a Scheduler for pgr. Call Start to begin running its jobs.
func New(pgr *pager.Pager, cfg Config) *Scheduler {
	loc, _ := time.LoadLocation("UTC")
	return &Scheduler{
		pgr:    pgr,
		cfg:    cfg,
		cron:   cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		stopCh: make(chan struct{}),
	}
}

// Start registers the checkpoint cron job (if configured) and launches the
// watermark-sampling loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("maintenance: scheduler already started")
	}

	if s.cfg.CheckpointCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.CheckpointCron, s.runCheckpoint); err != nil {
			return fmt.Errorf("maintenance: invalid checkpoint schedule %q: %w", s.cfg.CheckpointCron, err)
		}
	}
	s.cron.Start()
	go s.runWatermarkLoop()

	s.started = true
	log.Printf("maintenance: scheduler started (watermark every %s, checkpoint %q)",
		s.cfg.watermarkInterval(), s.cfg.CheckpointCron)
	return nil
}

// Stop halts the cron scheduler and the watermark-sampling loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	close(s.stopCh)
	s.started = false
	log.Println("maintenance: scheduler stopped")
}

func (s *Scheduler) runWatermarkLoop() {
	ticker := time.NewTicker(s.cfg.watermarkInterval())
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sampleWatermark()
		}
	}
}

func (s *Scheduler) sampleWatermark() {
	resident, capacity, status := s.pgr.Watermark()
	switch status {
	case pager.WatermarkCritical:
		log.Printf("maintenance: buffer pool at CRITICAL watermark (%d/%d pages resident)", resident, capacity)
	case pager.WatermarkWarning:
		log.Printf("maintenance: buffer pool at WARNING watermark (%d/%d pages resident)", resident, capacity)
	}
}

func (s *Scheduler) runCheckpoint() {
	if err := s.pgr.FlushAll(); err != nil {
		log.Printf("maintenance: checkpoint flush failed: %v", err)
	}
}
