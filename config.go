package chaingraph

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaingraph/chaingraph/internal/maintenance"
)

// PagerConfig configures the on-disk page store (spec §4.1/§4.2).
type PagerConfig struct {
	// Path is the data file path. Required.
	Path string `yaml:"path"`
}

// BufferPoolConfig configures the in-memory page cache (spec §4.2).
type BufferPoolConfig struct {
	// Capacity is the number of pages held resident. 0 selects the
	// buffer pool's built-in default.
	Capacity int `yaml:"capacity"`
}

// MaintenanceConfig configures the background watermark/checkpoint
// scheduler (ambient, not part of the distilled spec).
type MaintenanceConfig struct {
	WatermarkInterval time.Duration `yaml:"watermark_interval"`
	CheckpointCron    string        `yaml:"checkpoint_cron"`
}

// EngineConfig is the top-level bootstrap configuration for Open,
// mirroring the teacher's PagerConfig/ConcurrencyConfig/MemoryPolicy
// split: one struct per concern, composed at the call site.
type EngineConfig struct {
	Pager       PagerConfig       `yaml:"pager"`
	BufferPool  BufferPoolConfig  `yaml:"buffer_pool"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

func (c EngineConfig) maintenanceConfig() maintenance.Config {
	return maintenance.Config{
		WatermarkInterval: c.Maintenance.WatermarkInterval,
		CheckpointCron:    c.Maintenance.CheckpointCron,
	}
}

// LoadEngineConfig reads an EngineConfig from a YAML file, the format
// used for engine bootstrap config.
func LoadEngineConfig(path string) (EngineConfig, error) {
	var cfg EngineConfig
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read engine config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse engine config %q: %w", path, err)
	}
	return cfg, nil
}
