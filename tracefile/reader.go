package tracefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader yields the records of a trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	closers []io.Closer
}

// NewReader reads an uncompressed trace from r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{scanner: scanner}
}

// Open opens a trace file, decompressing it according to its extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	codec := CodecForPath(path)

	rc, err := codec.wrapReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s trace %s: %w", codec, path, err)
	}

	r := NewReader(rc)
	r.closers = []io.Closer{rc, f}

	return r, nil
}

// Next returns the next record, or io.EOF once the trace is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := ParseRecord(text)
		if err != nil {
			return Record{}, &ParseError{Line: r.line, Text: text, Err: err}
		}

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}

	return Record{}, io.EOF
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record

	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}

		if err != nil {
			return records, err
		}

		records = append(records, rec)
	}
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	var firstErr error

	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	r.closers = nil

	return firstErr
}
