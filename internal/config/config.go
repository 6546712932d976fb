// Package config loads the pokertable HCL configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokertable/internal/game"
)

// Ledger backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config represents the complete configuration
type Config struct {
	LogLevel string          `hcl:"log_level,optional"`
	Ledger   *LedgerSettings `hcl:"ledger,block"`
	Events   *EventSettings  `hcl:"events,block"`
	Tables   []TableConfig   `hcl:"table,block"`
}

// LedgerSettings selects where table and player records are stored
type LedgerSettings struct {
	Backend       string `hcl:"backend,optional"`
	Path          string `hcl:"path,optional"`
	RedisAddr     string `hcl:"redis_addr,optional"`
	RedisPassword string `hcl:"redis_password,optional"`
	RedisDB       int    `hcl:"redis_db,optional"`
	RedisPrefix   string `hcl:"redis_prefix,optional"`
	ActionTimeout string `hcl:"action_timeout,optional"` // e.g. "30s", empty disables
}

// EventSettings controls where table events are published
type EventSettings struct {
	NATSURL       string `hcl:"nats_url,optional"`
	SubjectPrefix string `hcl:"subject_prefix,optional"`
	Log           *bool  `hcl:"log,optional"`
}

// TableConfig defines named stakes for new tables
type TableConfig struct {
	Name       string `hcl:"name,label"`
	SmallBlind int    `hcl:"small_blind"`
	BigBlind   int    `hcl:"big_blind"`
	MinBuyIn   int    `hcl:"min_buy_in,optional"`
	MaxBuyIn   int    `hcl:"max_buy_in,optional"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Ledger == nil {
		c.Ledger = &LedgerSettings{}
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendFile
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = ".pokertable"
	}
	if c.Ledger.RedisAddr == "" {
		c.Ledger.RedisAddr = "localhost:6379"
	}
	if c.Ledger.RedisPrefix == "" {
		c.Ledger.RedisPrefix = "pokertable"
	}
	if c.Events == nil {
		c.Events = &EventSettings{}
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "pokertable"
	}
	if c.Events.Log == nil {
		enabled := true
		c.Events.Log = &enabled
	}

	for i := range c.Tables {
		if c.Tables[i].MinBuyIn == 0 {
			c.Tables[i].MinBuyIn = c.Tables[i].BigBlind * 50 // 50 big blinds minimum
		}
		if c.Tables[i].MaxBuyIn == 0 {
			c.Tables[i].MaxBuyIn = c.Tables[i].BigBlind * 500 // 500 big blinds maximum
		}
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}

	switch c.Ledger.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("invalid ledger backend: %q", c.Ledger.Backend)
	}
	if c.Ledger.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.Ledger.RedisDB)
	}
	if _, err := c.ActionTimeout(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, table := range c.Tables {
		if seen[table.Name] {
			return fmt.Errorf("table %s: defined more than once", table.Name)
		}
		seen[table.Name] = true
		if err := table.Stakes().Validate(); err != nil {
			return fmt.Errorf("table %s: %w", table.Name, err)
		}
	}

	return nil
}

// ActionTimeout returns how long a player may hold the turn, zero when
// unlimited
func (c *Config) ActionTimeout() (time.Duration, error) {
	if c.Ledger.ActionTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Ledger.ActionTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid action timeout: %q", c.Ledger.ActionTimeout)
	}
	return d, nil
}

// Stakes converts the block into table configuration
func (t TableConfig) Stakes() game.Config {
	return game.Config{
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		MinBuyIn:   t.MinBuyIn,
		MaxBuyIn:   t.MaxBuyIn,
	}
}

// Stakes returns the named table stakes. An empty name returns the default
// stakes.
func (c *Config) Stakes(name string) (game.Config, error) {
	if name == "" {
		return game.DefaultConfig(), nil
	}
	for _, table := range c.Tables {
		if table.Name == name {
			return table.Stakes(), nil
		}
	}
	return game.Config{}, fmt.Errorf("no table stakes named %q", name)
}
