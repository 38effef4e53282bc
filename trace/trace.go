// Package trace reads address streams. Addresses are decimal integers
// separated by whitespace.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Sentinel ends an address stream typed at a terminal.
const Sentinel int64 = -1

// A Reader yields addresses one at a time. It returns io.EOF when the
// stream ends.
type Reader interface {
	Next() (int64, error)
}

// ParseError reports a token that is not an integer.
type ParseError struct {
	// Index is the zero-based position of the token in the stream.
	Index int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("token %d %q is not an address: %v", e.Index, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TextReader parses whitespace-separated integers.
type TextReader struct {
	scanner *bufio.Scanner
	index   int
}

// NewTextReader creates a TextReader over r.
func NewTextReader(r io.Reader) *TextReader {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	return NewScannerReader(scanner)
}

// NewScannerReader creates a TextReader over a scanner that splits on
// words. It lets a terminal share one scanner between menus and address
// input.
func NewScannerReader(scanner *bufio.Scanner) *TextReader {
	return &TextReader{scanner: scanner}
}

// Next returns the next integer.
func (r *TextReader) Next() (int64, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	token := r.scanner.Text()
	index := r.index
	r.index++

	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, &ParseError{Index: index, Token: token, Err: err}
	}

	return v, nil
}

// TerminalReader ends the stream at the Sentinel value.
type TerminalReader struct {
	src  Reader
	done bool
}

// NewTerminalReader wraps src so that Sentinel ends the stream.
func NewTerminalReader(src Reader) *TerminalReader {
	return &TerminalReader{src: src}
}

// Next returns the next address, or io.EOF once Sentinel was read.
func (r *TerminalReader) Next() (int64, error) {
	if r.done {
		return 0, io.EOF
	}

	v, err := r.src.Next()
	if err != nil {
		return 0, err
	}

	if v == Sentinel {
		r.done = true
		return 0, io.EOF
	}

	return v, nil
}

// FileReader reads addresses from a file.
type FileReader struct {
	*TextReader
	file *os.File
}

// Open opens an address file.
func Open(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open address file: %w", err)
	}

	return &FileReader{TextReader: NewTextReader(f), file: f}, nil
}

// Close closes the underlying file.
func (r *FileReader) Close() error {
	return r.file.Close()
}

// SliceReader replays a fixed list of addresses.
type SliceReader struct {
	addrs []int64
	next  int
}

// NewSliceReader creates a SliceReader over addrs.
func NewSliceReader(addrs ...int64) *SliceReader {
	return &SliceReader{addrs: addrs}
}

// Next returns the next address in the list.
func (r *SliceReader) Next() (int64, error) {
	if r.next >= len(r.addrs) {
		return 0, io.EOF
	}

	v := r.addrs[r.next]
	r.next++

	return v, nil
}

// ReadAll drains r.
func ReadAll(r Reader) ([]int64, error) {
	var addrs []int64

	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return addrs, nil
		}
		if err != nil {
			return addrs, err
		}

		addrs = append(addrs, v)
	}
}
