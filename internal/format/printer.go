// Package format writes decoded records for people and for other programs.
package format

import (
	"fmt"
	"io"
)

// The Printer interface can be used to output some structured data.
//
// NewLine() ends the current line
// PrintBytes() outputs bytes at the current position
//
// The methods do not return an error because it's assumed to be an
// exceptional case that outputting results in an error and the only sensible
// outcome is to stop printing.  Instead, implementations are expected to panic
// with a *PrinterError when they encounter an error.  A user of the Printer
// interface can use
//
//	func printingFunction(p Printer) (err error) {
//	    defer CatchPrinterError(&err)
//	    return doSomePrinting(printer)
//	}
//
// to capture such errors.
type Printer interface {
	NewLine()
	PrintBytes([]byte)
}

// CatchPrinterError can be used to capture panics caused by a Printer because
// of an error encountered while attempting to send output.  See the Printer
// interface documentation for details.
func CatchPrinterError(err *error) {
	if r := recover(); r != nil {
		perr, ok := r.(*PrinterError)
		if ok {
			*err = perr
		} else {
			panic(r)
		}
	}
}

// A PrinterError contains an error that occurred while a Printer implementation
// was sending some output.
type PrinterError struct {
	Err error
}

func (e *PrinterError) Error() string {
	return fmt.Sprintf("printer error: %s", e.Err)
}

func (e *PrinterError) Unwrap() error {
	return e.Err
}

// A Flusher pushes buffered output to its destination.
type Flusher interface {
	Flush() error
}

// DefaultPrinter implements a Printer which uses an io.Writer to send output.
// If Flusher is set, it is flushed at the end of each line so that a reader on
// the other side of a terminal or pipe sees records as soon as they are
// printed.
type DefaultPrinter struct {
	io.Writer
	Flusher Flusher
}

var _ Printer = &DefaultPrinter{}

var newLine = []byte{'\n'}

// NewLine outputs '\n'.
func (p *DefaultPrinter) NewLine() {
	p.PrintBytes(newLine)
	if p.Flusher != nil {
		if err := p.Flusher.Flush(); err != nil {
			panic(wrapError(err))
		}
	}
}

// PrintBytes sends the given bytes verbatim to the printer's writer.
func (p *DefaultPrinter) PrintBytes(b []byte) {
	_, err := p.Write(b)
	if err != nil {
		panic(wrapError(err))
	}
}

func wrapError(err error) *PrinterError {
	return &PrinterError{Err: err}
}
