package input

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"user_id": 42, "username": "User McUserton"}
{"user_id": 43, "username": "Senor Seconduser"}
`

func compress(t *testing.T, format Format, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch format {
	case Gzip:
		w = gzip.NewWriter(&buf)
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	case LZ4:
		w = lz4.NewWriter(&buf)
	default:
		t.Fatalf("cannot compress to %s", format)
	}
	_, err := io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNewReaderDecompresses(t *testing.T) {
	for _, format := range []Format{Gzip, Zstd, LZ4} {
		t.Run(format.String(), func(t *testing.T) {
			r, detected, err := NewReader(bytes.NewReader(compress(t, format, sample)))
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, format, detected)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, sample, string(got))
		})
	}
}

func TestNewReaderPassesPlainInputThrough(t *testing.T) {
	for _, data := range []string{sample, "", "{", " \x1f"} {
		r, format, err := NewReader(strings.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, Plain, format)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, data, string(got))
		require.NoError(t, r.Close())
	}
}

func TestDetectDoesNotConsume(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader(compress(t, Gzip, sample)))
	format, err := Detect(br)
	require.NoError(t, err)
	assert.Equal(t, Gzip, format)
	head, err := br.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, head)
}

func TestNewReaderCorruptGzip(t *testing.T) {
	_, _, err := NewReader(bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	assert.Error(t, err)
}
