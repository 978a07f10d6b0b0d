// Package json parses JSON values one at a time from a byte stream into a
// stream of tokens.
package json

import (
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/arnodel/serverlog/internal/scanner"
	"github.com/arnodel/serverlog/token"
)

// MaxDepth is the maximum nesting of arrays and objects in a value.
const MaxDepth = 128

// Range of the second half of a UTF-16 surrogate pair.
const (
	LowSurrogateMin = 0xDC00
	LowSurrogateMax = 0xDFFF
)

// Messages for \u escapes of unpaired surrogates.
const (
	MsgLoneLeadingSurrogate  = "lone leading surrogate in \\u escape"
	MsgLoneTrailingSurrogate = "lone trailing surrogate in \\u escape"
)

// A SyntaxError reports malformed JSON at a position in the input.
type SyntaxError struct {
	Pos scanner.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at L%d,C%d: %s", e.Pos.Line+1, e.Pos.Col+1, e.Msg)
}

// A Decoder reads JSON input value by value.
type Decoder struct {
	scanr *scanner.Scanner
	depth int
}

// NewDecoder sets up a new Decoder instance to read from the given input.
func NewDecoder(in io.Reader) *Decoder {
	return &Decoder{scanr: scanner.NewScanner(in)}
}

// NewDecoderFromScanner creates a decoder using an existing scanner.
func NewDecoderFromScanner(scanr *scanner.Scanner) *Decoder {
	return &Decoder{scanr: scanr}
}

// More skips whitespace and reports whether there is another value to read.
func (d *Decoder) More() (bool, error) {
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return false, err
	}
	return b != scanner.EOF || !d.scanr.AtEOF(), nil
}

// Pos returns the current position of the decoder in the input.
func (d *Decoder) Pos() scanner.Pos {
	return d.scanr.CurrentPos()
}

// ParseValue reads a single JSON value and streams it.  It returns io.EOF if
// there is no value left in the input, a *SyntaxError if the input is invalid
// JSON and any error returned by the underlying reader.
func (d *Decoder) ParseValue(out token.WriteStream) error {
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == scanner.EOF && d.scanr.AtEOF() {
		return io.EOF
	}
	return d.parseValue(out, b)
}

func (d *Decoder) parseNestedValue(out token.WriteStream) error {
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	return d.parseValue(out, b)
}

func (d *Decoder) parseValue(out token.WriteStream, b byte) error {
	switch b {
	case '"':
		s, err := ParseString(d.scanr)
		if err != nil {
			return err
		}
		out.Put(s)
		return nil
	case '[':
		return d.parseArray(out)
	case '{':
		return d.parseObject(out)
	case 't':
		return checkLiteral(d.scanr, out, token.TrueScalar)
	case 'f':
		return checkLiteral(d.scanr, out, token.FalseScalar)
	case 'n':
		return checkLiteral(d.scanr, out, token.NullScalar)
	default:
		if b == '-' || scanner.IsDigit(b) {
			n, err := ParseNumber(d.scanr)
			if err != nil {
				return err
			}
			out.Put(n)
			return nil
		}
		return UnexpectedByte(d.scanr, "expected value, got")
	}
}

func (d *Decoder) enter() error {
	if d.depth >= MaxDepth {
		return &SyntaxError{Pos: d.scanr.CurrentPos(), Msg: "exceeded max depth"}
	}
	d.depth++
	return nil
}

func (d *Decoder) parseArray(out token.WriteStream) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer func() { d.depth-- }()
	err := ExpectByte(d.scanr, '[')
	if err != nil {
		return err
	}
	out.Put(&token.StartArray{})
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == ']' {
		d.scanr.Read()
		out.Put(&token.EndArray{})
		return nil
	}
	for {
		err = d.parseNestedValue(out)
		if err != nil {
			return err
		}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case ']':
			d.scanr.Read()
			out.Put(&token.EndArray{})
			return nil
		case ',':
			d.scanr.Read()
		default:
			return UnexpectedByte(d.scanr, "expected ']' or ',', got")
		}
	}
}

func (d *Decoder) parseObject(out token.WriteStream) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer func() { d.depth-- }()
	err := ExpectByte(d.scanr, '{')
	if err != nil {
		return err
	}
	out.Put(&token.StartObject{})
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == '}' {
		d.scanr.Read()
		out.Put(&token.EndObject{})
		return nil
	}
	for {
		key, err := ParseString(d.scanr)
		if err != nil {
			return err
		}
		key.TypeAndFlags |= token.KeyMask
		out.Put(key)
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		if b != ':' {
			return UnexpectedByte(d.scanr, "expected ':', got")
		}
		d.scanr.Read()
		err = d.parseNestedValue(out)
		if err != nil {
			return err
		}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case '}':
			d.scanr.Read()
			out.Put(&token.EndObject{})
			return nil
		case ',':
			d.scanr.Read()
			_, err = d.scanr.SkipSpaceAndPeek()
			if err != nil {
				return err
			}
		default:
			return UnexpectedByte(d.scanr, "expected '}' or ',', got")
		}
	}
}

func ExpectByte(scanr *scanner.Scanner, xb byte) error {
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b != xb {
		scanr.Back()
		return UnexpectedByte(scanr, "expected %q, got", xb)
	}
	return nil
}

// UnexpectedByte consumes the next byte and returns a *SyntaxError
// describing it, or the reader error if it cannot be read.
func UnexpectedByte(scanr *scanner.Scanner, expected string, args ...interface{}) error {
	pos := scanr.CurrentPos()
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	msg := fmt.Sprintf(expected, args...)
	if b == scanner.EOF && scanr.AtEOF() {
		return &SyntaxError{Pos: pos, Msg: msg + " <EOF>"}
	}
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf("%s %q", msg, b)}
}

func ParseString(scanr *scanner.Scanner) (*token.Scalar, error) {
	start := scanr.StartToken()
	err := ExpectByte(scanr, '"')
	if err != nil {
		scanr.EndToken()
		return nil, err
	}
	isUnescaped := true
	isASCII := true
	for {
		b, err := scanr.Read()
		if err != nil {
			scanr.EndToken()
			return nil, err
		}
		switch {
		case b == '\\':
			isUnescaped = false
			escPos := scanr.CurrentPos()
			x, err := scanr.Read()
			if err != nil {
				scanr.EndToken()
				return nil, err
			}
			switch x {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			case 'u':
				r, err := readHexEscape(scanr)
				if err == nil && utf16.IsSurrogate(r) {
					err = readLowSurrogate(scanr, r, escPos)
				}
				if err != nil {
					scanr.EndToken()
					return nil, err
				}
			default:
				scanr.Back()
				scanr.EndToken()
				return nil, UnexpectedByte(scanr, "invalid escape character")
			}
		case b == '"':
			stringBytes := scanr.EndToken()
			if !isASCII && !utf8.Valid(stringBytes) {
				return nil, &SyntaxError{Pos: start, Msg: "invalid UTF-8 in string"}
			}
			scalar := token.NewScalar(token.String, stringBytes)
			if isUnescaped {
				scalar.TypeAndFlags |= token.UnescapedMask
			}
			return scalar, nil
		case b == scanner.EOF && scanr.AtEOF():
			scanr.Back()
			scanr.EndToken()
			return nil, UnexpectedByte(scanr, "unterminated string, got")
		case scanner.IsCtrl(b):
			scanr.Back()
			scanr.EndToken()
			return nil, UnexpectedByte(scanr, "invalid control character in string")
		case b >= utf8.RuneSelf:
			isASCII = false
		}
	}
}

// readHexEscape reads the four hex digits of a \u escape.
func readHexEscape(scanr *scanner.Scanner) (rune, error) {
	var r rune
	for i := 0; i < 4; i++ {
		h, err := scanr.Read()
		if err != nil {
			return 0, err
		}
		if !scanner.IsHex(h) {
			scanr.Back()
			return 0, UnexpectedByte(scanr, "expected hex digit, got")
		}
		r = r<<4 | scanner.HexValue(h)
	}
	return r, nil
}

// readLowSurrogate reads the escape completing the surrogate pair started by
// r.  Unpaired surrogates are errors, as they do not encode any character.
func readLowSurrogate(scanr *scanner.Scanner, r rune, pos scanner.Pos) error {
	if r >= LowSurrogateMin {
		return &SyntaxError{Pos: pos, Msg: MsgLoneTrailingSurrogate}
	}
	for _, xb := range [...]byte{'\\', 'u'} {
		b, err := scanr.Read()
		if err != nil {
			return err
		}
		if b != xb {
			scanr.Back()
			return &SyntaxError{Pos: pos, Msg: MsgLoneLeadingSurrogate}
		}
	}
	lo, err := readHexEscape(scanr)
	if err != nil {
		return err
	}
	if lo < LowSurrogateMin || lo > LowSurrogateMax {
		return &SyntaxError{Pos: pos, Msg: MsgLoneLeadingSurrogate}
	}
	return nil
}

// ParseNumber parses a JSON number from the scanner.
func ParseNumber(scanr *scanner.Scanner) (*token.Scalar, error) {
	scanr.StartToken()
	err := readNumber(scanr)
	numberBytes := scanr.EndToken()
	if err != nil {
		return nil, err
	}
	return token.NewScalar(token.Number, numberBytes), nil
}

func readNumber(scanr *scanner.Scanner) error {
	var n int
	b, err := scanr.Read()
	if err != nil {
		return err
	}

	// Sign part
	if b == '-' {
		b, err = scanr.Read()
		if err != nil {
			return err
		}
	}

	// Integer part
	switch {
	case b == '0':
		b, err = scanr.Read()
	case b >= '1' && b <= '9':
		b, _, err = ReadDigits(scanr)
	default:
		scanr.Back()
		return UnexpectedByte(scanr, "expected digit, got")
	}
	if err != nil {
		return err
	}

	// Fraction part
	if b == '.' {
		b, n, err = ReadDigits(scanr)
		if err != nil {
			return err
		}
		if n == 0 {
			scanr.Back()
			return UnexpectedByte(scanr, "expected digit, got")
		}
	}

	// Exponent part
	if b == 'e' || b == 'E' {
		b, err = scanr.Peek()
		if err != nil {
			return err
		}
		if b == '-' || b == '+' {
			scanr.Read()
		}
		_, n, err = ReadDigits(scanr)
		if err != nil {
			return err
		}
		if n == 0 {
			scanr.Back()
			return UnexpectedByte(scanr, "expected digit, got")
		}
	}
	scanr.Back()
	return nil
}

// ReadDigits consumes a run of digits and the byte following it.
func ReadDigits(scanr *scanner.Scanner) (byte, int, error) {
	var n int
	for {
		b, err := scanr.Read()
		if err != nil {
			return 0, n, err
		}
		if !scanner.IsDigit(b) {
			return b, n, nil
		}
		n++
	}
}

func checkLiteral(scanr *scanner.Scanner, out token.WriteStream, lit *token.Scalar) error {
	for _, xb := range lit.Bytes {
		if err := ExpectByte(scanr, xb); err != nil {
			return err
		}
	}
	out.Put(lit)
	return nil
}
