package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Sensitive or per-deployment values
// can be overridden through FLASHMATCH_* environment variables after the
// file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		ListenAddr     string   `yaml:"listen_addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Ingest struct {
		RingCapacity int `yaml:"ring_capacity"`
		Kafka        struct {
			Enabled bool     `yaml:"enabled"`
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
			GroupID string   `yaml:"group_id"`
		} `yaml:"kafka"`
	} `yaml:"ingest"`

	Broadcast struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		Topic            string   `yaml:"topic"`
		JournalDir       string   `yaml:"journal_dir"`
		ReplayIntervalMS int      `yaml:"replay_interval_ms"`
	} `yaml:"broadcast"`

	Engine struct {
		WarmupCSV          string `yaml:"warmup_csv"`
		DepthLevels        int    `yaml:"depth_levels"`
		SnapshotIntervalMS int    `yaml:"snapshot_interval_ms"`
	} `yaml:"engine"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Default returns a config usable without any file, for tests and local runs.
func Default() *Config {
	var cfg Config
	cfg.App.Name = "flashmatch"
	cfg.Server.ListenAddr = ":8080"
	cfg.Ingest.RingCapacity = 1 << 16
	cfg.Broadcast.JournalDir = "./data/journal"
	cfg.Broadcast.ReplayIntervalMS = 250
	cfg.Engine.DepthLevels = 10
	cfg.Engine.SnapshotIntervalMS = 250
	cfg.Logging.Level = "info"
	return &cfg
}

// Load reads and parses the config file, applies env overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Ingest.RingCapacity <= 0 {
		return fmt.Errorf("ingest ring capacity must be positive")
	}
	if c.Ingest.Kafka.Enabled {
		if len(c.Ingest.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka ingest enabled but no brokers configured")
		}
		if c.Ingest.Kafka.Topic == "" {
			return fmt.Errorf("kafka ingest enabled but no topic configured")
		}
	}
	if c.Broadcast.Enabled {
		if len(c.Broadcast.Brokers) == 0 {
			return fmt.Errorf("broadcast enabled but no brokers configured")
		}
		if c.Broadcast.Topic == "" {
			return fmt.Errorf("broadcast enabled but no topic configured")
		}
	}
	if c.Engine.DepthLevels <= 0 {
		return fmt.Errorf("depth levels must be positive")
	}
	return nil
}

// ReplayInterval returns the broadcaster replay tick as a duration.
func (c *Config) ReplayInterval() time.Duration {
	return time.Duration(c.Broadcast.ReplayIntervalMS) * time.Millisecond
}

// SnapshotInterval returns the depth read-model refresh interval.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Engine.SnapshotIntervalMS) * time.Millisecond
}

func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("FLASHMATCH_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if brokers := os.Getenv("FLASHMATCH_KAFKA_BROKERS"); brokers != "" {
		cfg.Ingest.Kafka.Brokers = strings.Split(brokers, ",")
		cfg.Broadcast.Brokers = strings.Split(brokers, ",")
	}
	if dir := os.Getenv("FLASHMATCH_JOURNAL_DIR"); dir != "" {
		cfg.Broadcast.JournalDir = dir
	}
	if level := os.Getenv("FLASHMATCH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
