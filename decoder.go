package serverlog

import (
	"errors"
	"fmt"
	"io"

	"github.com/arnodel/serverlog/encoding/json"
	"github.com/arnodel/serverlog/internal/debug"
	"github.com/arnodel/serverlog/internal/scanner"
	"github.com/arnodel/serverlog/iterator"
	"github.com/arnodel/serverlog/token"
)

// Parse reads all the records in r.  Empty input gives an empty slice.  If any
// value fails to decode, Parse returns a nil slice and a *DecodeError.
//
// Parse does not close r.  Since input is buffered, bytes past the point of
// failure may have been read from r.
func Parse(r io.Reader) ([]Record, error) {
	d := NewDecoder(r)
	records := []Record{}
	for {
		rec, err := d.Decode()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// A Decoder reads records from an input stream one at a time.
type Decoder struct {
	dec   *json.Decoder
	toks  *token.AccumulatorStream
	count int
	err   error
}

// NewDecoder returns a decoder reading from r.  The decoder does its own
// buffering.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, scanner.DefaultBufSize)
}

// NewDecoderSize is like NewDecoder with a read buffer of the given size.
func NewDecoderSize(r io.Reader, size int) *Decoder {
	return &Decoder{
		dec:  json.NewDecoderFromScanner(scanner.NewScannerSize(r, size)),
		toks: token.NewAccumulatorStream(),
	}
}

// Decode returns the next record.  At the end of the input it returns io.EOF.
// Any other error is a *DecodeError and is returned again by all later calls.
func (d *Decoder) Decode() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}
	rec, err := d.decode()
	if err != nil {
		d.err = err
		return Record{}, err
	}
	d.count++
	return rec, nil
}

// More reports whether there is another value in the input.  It returns true
// if the input cannot be read, so that the error is reported by Decode.
func (d *Decoder) More() bool {
	if d.err != nil {
		return d.err != io.EOF
	}
	more, err := d.dec.More()
	if err != nil {
		d.err = d.newError(ReadError, d.dec.Pos(), err)
		return true
	}
	return more
}

// InputOffset returns the number of bytes of input consumed so far.
func (d *Decoder) InputOffset() int64 {
	return d.dec.Pos().Offset
}

func (d *Decoder) decode() (Record, error) {
	if !d.More() {
		return Record{}, io.EOF
	}
	if d.err != nil {
		return Record{}, d.err
	}
	start := d.dec.Pos()
	d.toks.Reset()
	if err := d.dec.ParseValue(d.toks); err != nil {
		var serr *json.SyntaxError
		if errors.As(err, &serr) {
			return Record{}, d.newError(SyntaxError, serr.Pos, errors.New(serr.Msg))
		}
		return Record{}, d.newError(ReadError, d.dec.Pos(), err)
	}
	it := iterator.New(token.NewSliceReadStream(d.toks.GetTokens()))
	it.Advance()
	rec, err := projectValue(it.CurrentValue())
	if err != nil {
		return Record{}, d.newError(SchemaError, start, err)
	}
	if debug.On {
		debug.Printf("record %d at offset %d: %s", d.count, start.Offset, rec)
	}
	return rec, nil
}

func (d *Decoder) newError(kind ErrorKind, pos scanner.Pos, err error) *DecodeError {
	derr := &DecodeError{
		Kind:   kind,
		Record: d.count,
		Line:   pos.Line + 1,
		Column: pos.Col + 1,
		Offset: pos.Offset,
		Msg:    err.Error(),
	}
	if kind == ReadError {
		derr.Err = err
	}
	if debug.On {
		debug.Printf("%s", derr)
	}
	return derr
}

// projectValue builds a record from a JSON value, which must be an object.
func projectValue(v iterator.Value) (Record, error) {
	obj, ok := v.(*iterator.Object)
	if !ok {
		return Record{}, fmt.Errorf("invalid type: %s, expected %s", v.Kind(), expectedRecord)
	}
	var (
		rec    Record
		fields fieldSet
	)
	for obj.Advance() {
		key, val := obj.CurrentKeyVal()
		switch {
		case key.EqualsString(userIDField):
			if err := fields.sawUserID(); err != nil {
				return Record{}, err
			}
			s, ok := val.(*iterator.Scalar)
			if !ok || s.Scalar().Type() != token.Number {
				return Record{}, invalidFieldType(userIDField, val.Kind(), expectedUserID)
			}
			id, err := parseUserID(string(s.Scalar().Bytes))
			if err != nil {
				return Record{}, err
			}
			rec.UserID = id
		case key.EqualsString(usernameField):
			if err := fields.sawUsername(); err != nil {
				return Record{}, err
			}
			s, ok := val.(*iterator.Scalar)
			if !ok || s.Scalar().Type() != token.String {
				return Record{}, invalidFieldType(usernameField, val.Kind(), expectedUsername)
			}
			rec.Username = s.Scalar().ToString()
		}
	}
	if err := fields.check(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
