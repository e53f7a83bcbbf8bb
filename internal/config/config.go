// Package config handles YAML configuration parsing and account rosters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"botfleet/internal/bot"
	"botfleet/internal/core"
)

// Config is the root configuration structure.
type Config struct {
	Fleet    FleetConfig     `yaml:"fleet"`
	Server   ServerConfig    `yaml:"server,omitempty"`
	Events   EventsConfig    `yaml:"events,omitempty"`
	Accounts []AccountConfig `yaml:"accounts,omitempty"`
	// AccountsFile points at a CSV or JSON roster of accounts to start
	// bots for at boot, in addition to the inline Accounts.
	AccountsFile string `yaml:"accounts_file,omitempty"`
}

// FleetConfig holds the per-bot worker policy.
type FleetConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	BackoffMin      time.Duration `yaml:"backoff_min"`
	BackoffMax      time.Duration `yaml:"backoff_max"`
	ExecutorTimeout time.Duration `yaml:"executor_timeout"`
	BotRPS          int           `yaml:"bot_rps"`
}

// ServerConfig holds the control API listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EventsConfig selects which event sinks are attached besides the in-memory
// one.
type EventsConfig struct {
	Log          bool     `yaml:"log"`
	RedisURL     string   `yaml:"redis_url,omitempty"`
	RedisStream  string   `yaml:"redis_stream,omitempty"`
	KafkaBrokers []string `yaml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `yaml:"kafka_topic,omitempty"`
}

// AccountConfig is an account entry as written in YAML. The credential is an
// arbitrary mapping; it is carried into the core as an opaque JSON blob.
type AccountConfig struct {
	Name       string         `yaml:"name"`
	Credential map[string]any `yaml:"credential,omitempty"`
}

// Spec converts the entry into the core's account material.
func (a AccountConfig) Spec() (core.AccountSpec, error) {
	spec := core.AccountSpec{Name: a.Name}
	if len(a.Credential) > 0 {
		raw, err := json.Marshal(a.Credential)
		if err != nil {
			return core.AccountSpec{}, fmt.Errorf("account %q credential: %w", a.Name, err)
		}
		spec.Credential = raw
	}
	return spec, nil
}

// Defaults for unset fields.
const (
	DefaultAddr            = ":8080"
	DefaultExecutorTimeout = 30 * time.Second
	DefaultRedisStream     = "botfleet.events"
)

// Load reads and parses a YAML configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Fleet.MaxAttempts <= 0 {
		c.Fleet.MaxAttempts = bot.DefaultMaxAttempts
	}
	if c.Fleet.BackoffMin <= 0 {
		c.Fleet.BackoffMin = bot.DefaultBackoffMin
	}
	if c.Fleet.BackoffMax <= 0 {
		c.Fleet.BackoffMax = bot.DefaultBackoffMax
	}
	if c.Fleet.ExecutorTimeout <= 0 {
		c.Fleet.ExecutorTimeout = DefaultExecutorTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Events.RedisURL != "" && c.Events.RedisStream == "" {
		c.Events.RedisStream = DefaultRedisStream
	}
}

// Policy maps the fleet section onto the worker policy.
func (c *Config) Policy() bot.Policy {
	return bot.Policy{
		MaxAttempts: c.Fleet.MaxAttempts,
		BackoffMin:  c.Fleet.BackoffMin,
		BackoffMax:  c.Fleet.BackoffMax,
		RPS:         c.Fleet.BotRPS,
	}
}
