// Package scanner provides a buffered byte cursor over an io.Reader, with
// one byte of look back and line / column / offset tracking.
package scanner

import (
	"io"
	"slices"
)

// Pos is a position in the input.  Line and Col are 0-based, Col counts
// codepoints rather than bytes.  Offset is the number of bytes before the
// position.
type Pos struct {
	Line   int
	Col    int
	Offset int64
}

type Scanner struct {
	reader io.Reader
	buf    []byte

	// Offset in the input of buf[0]
	base int64

	// The first unfilled position in buf
	// 0 <= fillIndex <= len(buf)
	fillIndex int

	// Current position in buf
	// 0 <= currentIndex <= fillIndex
	currentIndex int

	// Line and column of the current position.  prevLine < 0 means Back()
	// cannot be called.
	line, col         int
	prevLine, prevCol int

	// Position in buf of the currently recorded token.
	// -1 means not recording a token
	// 0 means there may be token parts no longer in the buffer
	// tokenStartIndex <= currentIndex
	tokenStartIndex int

	// Parts of a token that no longer fit in the read buffer.
	tokenParts [][]byte

	err error

	// Tracks how many EOFs have been read.  This is required to make
	// Back() work after an EOF has been read.
	eofCount int
}

func NewScanner(reader io.Reader) *Scanner {
	return NewScannerSize(reader, DefaultBufSize)
}

func NewScannerSize(reader io.Reader, size int) *Scanner {
	if size < minBufSize {
		size = minBufSize
	}
	return &Scanner{
		reader:          reader,
		buf:             make([]byte, size),
		tokenStartIndex: -1,
		prevLine:        -1,
	}
}

func (s *Scanner) fillBuf() {
	if s.fillIndex == len(s.buf) {
		var shift int
		// Keep the recorded token wholly in the buffer if possible, otherwise
		// save what we have of it in tokenParts.
		if s.tokenStartIndex > 0 {
			shift = s.tokenStartIndex
			s.tokenStartIndex = 0
		} else if s.currentIndex >= lookBackSize {
			shift = s.currentIndex - lookBackSize
			if s.tokenStartIndex == 0 {
				s.tokenParts = append(s.tokenParts, slices.Clone(s.buf[:shift]))
			}
		}
		if shift > 0 {
			copy(s.buf, s.buf[shift:s.fillIndex])
			s.fillIndex -= shift
			s.currentIndex -= shift
			s.base += int64(shift)
		}
	}
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		n, err := s.reader.Read(s.buf[s.fillIndex:])
		s.fillIndex += n
		if err != nil {
			s.err = err
			return
		}
		if n > 0 {
			return
		}
	}
	s.err = io.ErrNoProgress
}

// Read consumes one byte.  At the end of the input it returns EOF and a nil
// error; any other reader failure is returned as is.
func (s *Scanner) Read() (byte, error) {
	if s.currentIndex >= s.fillIndex {
		s.fillBuf()
	}
	if s.currentIndex < s.fillIndex {
		b := s.buf[s.currentIndex]
		s.prevLine, s.prevCol = s.line, s.col
		s.advance(b)
		s.currentIndex++
		return b, nil
	}
	if s.err == io.EOF {
		s.eofCount++
		return EOF, nil
	}
	return 0, s.err
}

func (s *Scanner) advance(b byte) {
	switch {
	case b == '\n':
		s.line++
		s.col = 0
	case b < 0x80 || b >= 0xC0:
		// First byte of an utf8-encoded codepoint
		s.col++
	}
}

// Back undoes the last Read.  It can only be called once in a row.
func (s *Scanner) Back() {
	if s.eofCount > 0 {
		s.eofCount--
		return
	}
	if s.currentIndex <= 0 || s.currentIndex <= s.tokenStartIndex {
		panic("cannot go back from start")
	}
	if s.prevLine < 0 {
		panic("cannot go back twice")
	}
	s.currentIndex--
	s.line, s.col = s.prevLine, s.prevCol
	s.prevLine = -1
}

func (s *Scanner) Peek() (byte, error) {
	if s.currentIndex >= s.fillIndex {
		s.fillBuf()
	}
	if s.currentIndex < s.fillIndex {
		return s.buf[s.currentIndex], nil
	}
	return s.errOrEOF()
}

// AtEOF reports whether an EOF returned by Read or Peek marks the end of the
// input, rather than a literal 0xFF byte.
func (s *Scanner) AtEOF() bool {
	return s.eofCount > 0 || s.currentIndex >= s.fillIndex && s.err == io.EOF
}

func (s *Scanner) errOrEOF() (byte, error) {
	if s.err == io.EOF {
		return EOF, nil
	}
	return 0, s.err
}

// SkipSpaceAndPeek skips JSON whitespace and returns the next byte without
// consuming it.
func (s *Scanner) SkipSpaceAndPeek() (byte, error) {
	for {
		for i, b := range s.buf[s.currentIndex:s.fillIndex] {
			switch b {
			case '\n':
				s.line++
				s.col = 0
			case ' ', '\t', '\r':
				s.col++
			default:
				if i > 0 {
					s.prevLine = -1
				}
				s.currentIndex += i
				return b, nil
			}
		}
		s.currentIndex = s.fillIndex
		s.prevLine = -1
		s.fillBuf()
		if s.currentIndex >= s.fillIndex {
			return s.errOrEOF()
		}
	}
}

func (s *Scanner) CurrentPos() Pos {
	return Pos{Line: s.line, Col: s.col, Offset: s.Offset()}
}

// Offset returns the number of bytes consumed so far.
func (s *Scanner) Offset() int64 {
	return s.base + int64(s.currentIndex)
}

// StartToken starts recording the bytes read, until EndToken is called.
func (s *Scanner) StartToken() Pos {
	if s.tokenStartIndex >= 0 {
		panic("already in record mode")
	}
	s.tokenStartIndex = s.currentIndex
	return s.CurrentPos()
}

func (s *Scanner) EndToken() []byte {
	if s.tokenStartIndex < 0 {
		panic("not in record mode")
	}
	if s.tokenParts == nil {
		tokBytes := slices.Clone(s.buf[s.tokenStartIndex:s.currentIndex])
		s.tokenStartIndex = -1
		return tokBytes
	}
	tokLen := s.currentIndex - s.tokenStartIndex
	for _, p := range s.tokenParts {
		tokLen += len(p)
	}
	tokBytes := make([]byte, 0, tokLen)
	for _, p := range s.tokenParts {
		tokBytes = append(tokBytes, p...)
	}
	tokBytes = append(tokBytes, s.buf[s.tokenStartIndex:s.currentIndex]...)
	s.tokenStartIndex = -1
	s.tokenParts = nil
	return tokBytes
}

const (
	lookBackSize             = 1
	maxConsecutiveEmptyReads = 100
	minBufSize               = 16
	DefaultBufSize           = 8192
)

// 0xFF is a byte that should not appear in a UTF-8 encoded stream of bytes.
const EOF byte = 0xFF
