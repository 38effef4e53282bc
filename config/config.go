// Package config holds the memory and cache sizes a simulation runs with.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/memory"
)

// Size limits accepted by Validate.
const (
	MinMemorySizeKB = 1
	MaxMemorySizeKB = 256
	MinCacheSizeKB  = 1
	MaxCacheSizeKB  = 32
	MinLinesPerSet  = 2
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the main memory and cache sizes.
type Config struct {
	// MemorySizeKB is the main memory size. Must be a power of two in
	// [1, 256].
	MemorySizeKB int `json:"memory_size_kb"`

	// CellsPerBlock is the number of 4-byte cells per block: 2, 4 or 8.
	CellsPerBlock int `json:"cells_per_block"`

	// CacheSizeKB is the cache size. Must be a power of two in [1, 32].
	CacheSizeKB int `json:"cache_size_kb"`

	// LinesPerSet is the associativity. Must be a power of two in
	// [2, TotalCacheLines/2].
	LinesPerSet int `json:"lines_per_set"`
}

// Default returns a 1KB memory with a 1KB two-way cache of 4-cell blocks.
func Default() *Config {
	return &Config{
		MemorySizeKB:  1,
		CellsPerBlock: 4,
		CacheSizeKB:   1,
		LinesPerSet:   2,
	}
}

// TotalMemoryCells returns the number of cells in main memory.
func (c *Config) TotalMemoryCells() int {
	return c.MemorySizeKB * memory.KB / memory.CellSize
}

// TotalCacheLines returns the number of lines in the cache.
func (c *Config) TotalCacheLines() int {
	if c.CellsPerBlock <= 0 {
		return 0
	}

	return c.CacheSizeKB * memory.KB / (c.CellsPerBlock * memory.CellSize)
}

// MaxLinesPerSet returns the largest associativity the cache size allows.
func (c *Config) MaxLinesPerSet() int {
	return c.TotalCacheLines() / 2
}

// Validate checks every value against its allowed range.
func (c *Config) Validate() error {
	if c.MemorySizeKB < MinMemorySizeKB || c.MemorySizeKB > MaxMemorySizeKB {
		return fmt.Errorf("%w: memory_size_kb must be in [%d, %d], got %d",
			ErrInvalidConfig, MinMemorySizeKB, MaxMemorySizeKB, c.MemorySizeKB)
	}
	if !isPowerOfTwo(c.MemorySizeKB) {
		return fmt.Errorf("%w: memory_size_kb must be a power of two, got %d",
			ErrInvalidConfig, c.MemorySizeKB)
	}
	if !validCellsPerBlock(c.CellsPerBlock) {
		return fmt.Errorf("%w: cells_per_block must be 2, 4 or 8, got %d",
			ErrInvalidConfig, c.CellsPerBlock)
	}
	if c.CacheSizeKB < MinCacheSizeKB || c.CacheSizeKB > MaxCacheSizeKB {
		return fmt.Errorf("%w: cache_size_kb must be in [%d, %d], got %d",
			ErrInvalidConfig, MinCacheSizeKB, MaxCacheSizeKB, c.CacheSizeKB)
	}
	if !isPowerOfTwo(c.CacheSizeKB) {
		return fmt.Errorf("%w: cache_size_kb must be a power of two, got %d",
			ErrInvalidConfig, c.CacheSizeKB)
	}
	if !validLinesPerSet(c.LinesPerSet, c.MaxLinesPerSet()) {
		return fmt.Errorf(
			"%w: lines_per_set must be a power of two in [%d, %d], got %d",
			ErrInvalidConfig, MinLinesPerSet, c.MaxLinesPerSet(), c.LinesPerSet)
	}

	if _, err := c.geometry(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Geometry validates the configuration and derives the cache geometry.
func (c *Config) Geometry() (cache.Geometry, error) {
	if err := c.Validate(); err != nil {
		return cache.Geometry{}, err
	}

	return c.geometry()
}

func (c *Config) geometry() (cache.Geometry, error) {
	return cache.NewGeometry(
		c.TotalMemoryCells(),
		c.CellsPerBlock,
		c.TotalCacheLines(),
		c.LinesPerSet,
	)
}

// MainMemory returns the main memory layout.
func (c *Config) MainMemory() memory.MainMemory {
	return memory.New(c.MemorySizeKB, c.CellsPerBlock)
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Load reads a configuration file. Files ending in .json are read as JSON,
// anything else as the two-line text format.
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(path)
	}

	return LoadText(path)
}

// LoadJSON loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveJSON writes the Config to a JSON file.
func (c *Config) SaveJSON(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func validCellsPerBlock(v int) bool {
	return v == 2 || v == 4 || v == 8
}

func validLinesPerSet(v, limit int) bool {
	return v >= MinLinesPerSet && v <= limit && isPowerOfTwo(v)
}
