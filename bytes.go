package serverlog

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/arnodel/serverlog/encoding/json"
	"github.com/arnodel/serverlog/internal/scanner"
	"github.com/valyala/fastjson"
)

// fastjson scanners keep a cache of parsed values that is worth reusing.
var scannerPool = sync.Pool{
	New: func() any {
		return new(fastjson.Scanner)
	},
}

// ParseBytes decodes all the records in data, with the same rules as Parse.
// Errors do not carry a line and column, only the index of the failing
// record.
func ParseBytes(data []byte) ([]Record, error) {
	sc := scannerPool.Get().(*fastjson.Scanner)
	defer scannerPool.Put(sc)
	sc.InitBytes(data)

	var (
		records = []Record{}
		raw     []byte
	)
	for sc.Next() {
		v := sc.Value()
		// Strings and keys are still raw at this point, so raw is the value
		// as it appears in data minus whitespace.
		raw = v.MarshalTo(raw[:0])
		if err := checkStrict(raw); err != nil {
			return nil, &DecodeError{Kind: SyntaxError, Record: len(records), Msg: err.Error()}
		}
		rec, err := projectFastValue(v)
		if err != nil {
			return nil, &DecodeError{Kind: SchemaError, Record: len(records), Msg: err.Error()}
		}
		records = append(records, rec)
	}
	if err := sc.Error(); err != nil {
		return nil, &DecodeError{Kind: SyntaxError, Record: len(records), Msg: err.Error()}
	}
	return records, nil
}

// checkStrict rejects what fastjson's scanner lets through but Parse does
// not: anything fastjson's validator rejects (leading zeros, bad escapes,
// control characters, NaN...), invalid UTF-8, unpaired surrogate escapes and
// nesting deeper than json.MaxDepth.
func checkStrict(raw []byte) error {
	if err := fastjson.ValidateBytes(raw); err != nil {
		return err
	}
	if !utf8.Valid(raw) {
		return errors.New("invalid UTF-8 in string")
	}
	depth := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '{', '[':
			if depth >= json.MaxDepth {
				return errors.New("exceeded max depth")
			}
			depth++
		case '}', ']':
			depth--
		case '"':
			n, err := checkStringEscapes(raw[i+1:])
			if err != nil {
				return err
			}
			i += n
		}
	}
	return nil
}

var unicodeEscape = []byte(`\u`)

// checkStringEscapes checks the surrogate escapes in s, which starts after the
// opening quote of a valid JSON string.  It returns the length of the string
// up to and including the closing quote.
func checkStringEscapes(s []byte) (int, error) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return i + 1, nil
		case '\\':
			if s[i+1] != 'u' {
				i++
				continue
			}
			r := hexRune(s[i+2 : i+6])
			i += 5
			if !utf16.IsSurrogate(r) {
				continue
			}
			if r >= json.LowSurrogateMin {
				return 0, errors.New(json.MsgLoneTrailingSurrogate)
			}
			if !bytes.HasPrefix(s[i+1:], unicodeEscape) {
				return 0, errors.New(json.MsgLoneLeadingSurrogate)
			}
			if lo := hexRune(s[i+3 : i+7]); lo < json.LowSurrogateMin || lo > json.LowSurrogateMax {
				return 0, errors.New(json.MsgLoneLeadingSurrogate)
			}
			i += 6
		}
	}
	return len(s), nil
}

func hexRune(hex []byte) rune {
	var r rune
	for _, h := range hex {
		r = r<<4 | scanner.HexValue(h)
	}
	return r
}

func projectFastValue(v *fastjson.Value) (Record, error) {
	obj, err := v.Object()
	if err != nil {
		return Record{}, fmt.Errorf("invalid type: %s, expected %s", fastKind(v), expectedRecord)
	}
	var (
		rec      Record
		fields   fieldSet
		firstErr error
	)
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if firstErr != nil {
			return
		}
		switch string(key) {
		case userIDField:
			if firstErr = fields.sawUserID(); firstErr != nil {
				return
			}
			if v.Type() != fastjson.TypeNumber {
				firstErr = invalidFieldType(userIDField, fastKind(v), expectedUserID)
				return
			}
			rec.UserID, firstErr = parseUserID(string(v.MarshalTo(nil)))
		case usernameField:
			if firstErr = fields.sawUsername(); firstErr != nil {
				return
			}
			b, err := v.StringBytes()
			if err != nil {
				firstErr = invalidFieldType(usernameField, fastKind(v), expectedUsername)
				return
			}
			rec.Username = string(b)
		}
	})
	if firstErr != nil {
		return Record{}, firstErr
	}
	if err := fields.check(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func fastKind(v *fastjson.Value) string {
	switch t := v.Type(); t {
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return "boolean"
	default:
		return t.String()
	}
}
