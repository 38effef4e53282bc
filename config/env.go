package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by FromEnv.
const (
	EnvMemorySizeKB  = "CACHESIM_MEMORY_KB"
	EnvCellsPerBlock = "CACHESIM_CELLS_PER_BLOCK"
	EnvCacheSizeKB   = "CACHESIM_CACHE_KB"
	EnvLinesPerSet   = "CACHESIM_LINES_PER_SET"
)

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	return nil
}

// FromEnv builds a Config from the CACHESIM_* variables. Unset variables
// keep the values of base, or of Default if base is nil.
func FromEnv(base *Config) (*Config, error) {
	var c *Config
	if base != nil {
		c = base.Clone()
	} else {
		c = Default()
	}

	vars := []struct {
		name string
		dst  *int
	}{
		{EnvMemorySizeKB, &c.MemorySizeKB},
		{EnvCellsPerBlock, &c.CellsPerBlock},
		{EnvCacheSizeKB, &c.CacheSizeKB},
		{EnvLinesPerSet, &c.LinesPerSet},
	}

	for _, v := range vars {
		s, ok := os.LookupEnv(v.name)
		if !ok || s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, v.name, err)
		}
		*v.dst = n
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// HasEnv reports whether any CACHESIM_* size variable is set.
func HasEnv() bool {
	for _, name := range []string{
		EnvMemorySizeKB, EnvCellsPerBlock, EnvCacheSizeKB, EnvLinesPerSet,
	} {
		if os.Getenv(name) != "" {
			return true
		}
	}

	return false
}
