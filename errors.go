package serverlog

import (
	"fmt"
)

// ErrorKind tells what went wrong when decoding a stream.
type ErrorKind uint8

const (
	// SyntaxError means the input is not valid JSON.
	SyntaxError ErrorKind = iota + 1
	// SchemaError means a value is valid JSON but not a valid record.
	SchemaError
	// ReadError means the underlying reader failed.
	ReadError
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case SchemaError:
		return "schema error"
	case ReadError:
		return "read error"
	default:
		return "error"
	}
}

// A DecodeError is returned by Parse, ParseBytes and Decoder.Decode when the
// input cannot be decoded.
//
// For syntax errors the position is where the parser failed, for schema
// errors it is the start of the offending value.  Line and Column are
// 1-based; they are 0 when the position is unknown, which is the case for
// errors returned by ParseBytes.
type DecodeError struct {
	Kind   ErrorKind
	Record int // 0-based index of the value being decoded
	Line   int
	Column int
	Offset int64
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s in record %d: %s", e.Kind, e.Record, e.Msg)
	}
	return fmt.Sprintf("%s at line %d column %d: %s", e.Kind, e.Line, e.Column, e.Msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
