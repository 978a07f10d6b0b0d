// Package input opens log streams that may be compressed.
package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format is the framing detected at the start of a stream.
type Format uint8

const (
	Plain Format = iota
	Gzip
	Zstd
	LZ4
)

func (f Format) String() string {
	switch f {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "plain"
	}
}

var magics = []struct {
	format Format
	magic  []byte
}{
	{Gzip, []byte{0x1f, 0x8b}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{LZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// Detect returns the format of the stream buffered in br, without consuming
// any input.
func Detect(br *bufio.Reader) (Format, error) {
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return Plain, err
	}
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.format, nil
		}
	}
	return Plain, nil
}

// NewReader returns a reader producing the decompressed contents of r if r
// starts with a gzip, zstd or lz4 frame, and the contents of r unchanged
// otherwise.  Closing the returned reader releases the decompressor but does
// not close r.
func NewReader(r io.Reader) (io.ReadCloser, Format, error) {
	br := bufio.NewReader(r)
	format, err := Detect(br)
	if err != nil {
		return nil, Plain, err
	}
	switch format {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, format, nil
	case Zstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, format, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zr.IOReadCloser(), format, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), format, nil
	default:
		return io.NopCloser(br), format, nil
	}
}
