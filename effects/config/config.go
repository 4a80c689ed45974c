// Package config loads the runtime settings of a store and its epics from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	effectmodel "github.com/on-the-ground/effect_ive_loop/effects/internal/model"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"

	DefaultFPS      = 60
	DefaultLogLevel = "info"
	DefaultBucket   = "items"
)

var backends = []string{BackendMemory, BackendBolt}

type Config struct {
	Store   Store   `yaml:"store"`
	Tracker Tracker `yaml:"tracker"`
	Game    Game    `yaml:"game"`
	Log     Log     `yaml:"log"`
	Storage Storage `yaml:"storage"`
}

type Store struct {
	EffectBuffer int `yaml:"effect_buffer"`
}

type Tracker struct {
	Shards int `yaml:"shards"`
}

type Game struct {
	FPS int `yaml:"fps"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Storage struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	CacheSize int    `yaml:"cache_size"` // 0 disables the read cache
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{}.normalize()
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) normalize() Config {
	scope := effectmodel.NewEffectScopeConfig(c.Store.EffectBuffer, c.Tracker.Shards)
	c.Store.EffectBuffer = scope.BufferSize
	c.Tracker.Shards = scope.NumWorkers
	if c.Game.FPS <= 0 {
		c.Game.FPS = DefaultFPS
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = DefaultBucket
	}
	return c
}

func (c Config) Validate() error {
	if !slices.Contains(backends, c.Storage.Backend) {
		return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalid, KeyStorageBackend, backends, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendBolt && c.Storage.Path == "" {
		return fmt.Errorf("%w: %s is required for the %s backend", ErrInvalid, KeyStoragePath, BackendBolt)
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("%w: %s cannot be negative", ErrInvalid, KeyStorageCacheSize)
	}
	return nil
}

// ScopeConfig is the buffer/shard sizing handed to stores and executors.
func (c Config) ScopeConfig() effectmodel.EffectScopeConfig {
	return effectmodel.NewEffectScopeConfig(c.Store.EffectBuffer, c.Tracker.Shards)
}
