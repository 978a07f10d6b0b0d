package format

import (
	"fmt"

	"github.com/arnodel/serverlog"
	"github.com/arnodel/serverlog/token"
)

// Style is the layout of a printed record.
type Style int

const (
	// JSON prints each record as a compact JSON object on its own line.
	JSON Style = iota
	// Text prints the user id and the raw username separated by a tab.
	Text
)

func (s Style) String() string {
	switch s {
	case JSON:
		return "json"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle returns the style called name.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "json":
		return JSON, nil
	case "text":
		return Text, nil
	default:
		return 0, fmt.Errorf("invalid output format: %q (use json or text)", name)
	}
}

var (
	userIDKey   = token.NewKey([]byte(`"user_id"`))
	usernameKey = token.NewKey([]byte(`"username"`))

	openBrace  = []byte{'{'}
	closeBrace = []byte{'}'}
	colon      = []byte{':'}
	comma      = []byte{','}
	tab        = []byte{'\t'}
)

// A RecordPrinter writes records one per line.
type RecordPrinter struct {
	Printer
	Colorizer *Colorizer
	Style     Style
}

// PrintRecords prints all the records and returns the first output error.
func (p *RecordPrinter) PrintRecords(records []serverlog.Record) (err error) {
	defer CatchPrinterError(&err)
	for _, rec := range records {
		p.PrintRecord(rec)
	}
	return nil
}

// PrintRecord prints one record.  It panics with a *PrinterError if the output
// fails.
func (p *RecordPrinter) PrintRecord(rec serverlog.Record) {
	id := token.Uint64Scalar(uint64(rec.UserID))
	switch p.Style {
	case Text:
		p.Colorizer.PrintScalar(p, id)
		p.PrintBytes(tab)
		p.Colorizer.PrintScalar(p, token.NewScalar(token.String, []byte(rec.Username)))
	default:
		p.PrintBytes(openBrace)
		p.Colorizer.PrintScalar(p, userIDKey)
		p.PrintBytes(colon)
		p.Colorizer.PrintScalar(p, id)
		p.PrintBytes(comma)
		p.Colorizer.PrintScalar(p, usernameKey)
		p.PrintBytes(colon)
		p.Colorizer.PrintScalar(p, token.StringScalar(rec.Username))
		p.PrintBytes(closeBrace)
	}
	p.NewLine()
}
