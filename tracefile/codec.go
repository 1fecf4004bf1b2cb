package tracefile

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec is the compression applied to a trace file.
type Codec int

// Supported codecs.
const (
	Plain Codec = iota
	Gzip
	Zstd
	LZ4
	Snappy
)

var codecNames = map[Codec]string{
	Plain:  "plain",
	Gzip:   "gzip",
	Zstd:   "zstd",
	LZ4:    "lz4",
	Snappy: "snappy",
}

func (c Codec) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}

	return "unknown"
}

// CodecForPath picks the codec from the file extension. Unknown extensions
// are read as plain text.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	case ".sz", ".snappy":
		return Snappy
	default:
		return Plain
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func (c Codec) wrapReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}

		return d.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

func (c Codec) wrapWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	case LZ4:
		return lz4.NewWriter(w), nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nopCloser{w}, nil
	}
}
