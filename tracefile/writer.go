package tracefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Writer writes records in the trace text format.
type Writer struct {
	buf     *bufio.Writer
	closers []io.Closer
}

// NewWriter writes an uncompressed trace to w. Close flushes it.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriter(w)}
}

// Create creates a trace file, compressing it according to its extension.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	codec := CodecForPath(path)

	wc, err := codec.wrapWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create %s trace %s: %w", codec, path, err)
	}

	w := NewWriter(wc)
	w.closers = []io.Closer{wc, f}

	return w, nil
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	_, err := fmt.Fprintf(w.buf, "%d %x %x %s\n",
		rec.ThreadID, rec.PC, rec.Address, rec.Type)

	return err
}

// Close flushes the buffered records and closes what the writer owns.
func (w *Writer) Close() error {
	firstErr := w.buf.Flush()

	for _, c := range w.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	w.closers = nil

	return firstErr
}
