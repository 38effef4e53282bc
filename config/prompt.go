package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Prompt asks for every value on out and reads the answers from in. A
// question is repeated until its answer is in range. in must split its
// input into words, as with bufio.ScanWords.
func Prompt(in *bufio.Scanner, out io.Writer) (*Config, error) {
	c := &Config{}
	var err error

	c.MemorySizeKB, err = ask(in, out,
		fmt.Sprintf("Main memory size (KB, power of two, max %d): ", MaxMemorySizeKB),
		func(v int) bool {
			return v >= MinMemorySizeKB && v <= MaxMemorySizeKB && isPowerOfTwo(v)
		})
	if err != nil {
		return nil, err
	}

	c.CellsPerBlock, err = ask(in, out,
		"Cells per block (2, 4 or 8): ",
		validCellsPerBlock)
	if err != nil {
		return nil, err
	}

	c.CacheSizeKB, err = ask(in, out,
		fmt.Sprintf("Cache size (KB, power of two, max %d): ", MaxCacheSizeKB),
		func(v int) bool {
			return v >= MinCacheSizeKB && v <= MaxCacheSizeKB && isPowerOfTwo(v)
		})
	if err != nil {
		return nil, err
	}

	c.LinesPerSet, err = ask(in, out,
		fmt.Sprintf("Lines per set (power of two, min %d, max %d): ",
			MinLinesPerSet, c.MaxLinesPerSet()),
		func(v int) bool { return validLinesPerSet(v, c.MaxLinesPerSet()) })
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func ask(
	in *bufio.Scanner,
	out io.Writer,
	question string,
	accept func(int) bool,
) (int, error) {
	for {
		fmt.Fprint(out, question)

		if !in.Scan() {
			if err := in.Err(); err != nil {
				return 0, fmt.Errorf("failed to read answer: %w", err)
			}
			return 0, io.ErrUnexpectedEOF
		}

		v, err := strconv.Atoi(in.Text())
		if err == nil && accept(v) {
			return v, nil
		}
	}
}
