package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ParseText reads the classic text format. The first line holds the memory
// size in KB and the cells per block, the second the cache size in KB and
// the lines per set:
//
//	256 8
//	1 4
//
// Values are separated by any whitespace.
func ParseText(r io.Reader) (*Config, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	c := &Config{}
	fields := []struct {
		name string
		dst  *int
	}{
		{"memory_size_kb", &c.MemorySizeKB},
		{"cells_per_block", &c.CellsPerBlock},
		{"cache_size_kb", &c.CacheSizeKB},
		{"lines_per_set", &c.LinesPerSet},
	}

	for _, f := range fields {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidConfig, f.name)
		}

		v, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, f.name, err)
		}
		*f.dst = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadText reads a Config from a file in the text format.
func LoadText(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return ParseText(f)
}

// FormatText renders the Config in the text format read by ParseText.
func (c *Config) FormatText() string {
	return fmt.Sprintf("%d %d\n%d %d\n",
		c.MemorySizeKB, c.CellsPerBlock, c.CacheSizeKB, c.LinesPerSet)
}
