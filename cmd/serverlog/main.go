// Command serverlog decodes streams of server log records and prints them.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnodel/serverlog"
	"github.com/arnodel/serverlog/internal/format"
	"github.com/arnodel/serverlog/internal/input"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const stdinName = "-"

func main() {
	// Do not handle SIGPIPE, we'll do it ourselves (see writeOutput).
	signal.Ignore(syscall.SIGPIPE)
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// A usageError means the command line was wrong.
type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

type options struct {
	backend   string
	style     format.Style
	colorizer *format.Colorizer
	count     bool
	files     []string
}

// run executes the command and returns its exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "serverlog: ", 0)

	opts, err := parseArgs(args, stdout, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			logger.Print(err)
		}
		return 2
	}

	// If we are writing to a terminal, flush after each line so user gets feedback early.
	interactive := isTerminal(stdout)

	// Set up stdout for handling colors
	if f, ok := stdout.(*os.File); ok && opts.colorizer != nil {
		stdout = colorable.NewColorable(f)
	}
	out := bufio.NewWriter(stdout)
	printer := &format.DefaultPrinter{Writer: out}
	if interactive {
		printer.Flusher = out
	}
	recordPrinter := &format.RecordPrinter{
		Printer:   printer,
		Colorizer: opts.colorizer,
		Style:     opts.style,
	}

	for _, name := range opts.files {
		records, err := readRecords(name, stdin, opts.backend)
		if err != nil {
			out.Flush()
			logger.Printf("%s: %s", displayName(name), err)
			return 1
		}
		if opts.count {
			if len(opts.files) > 1 {
				_, err = fmt.Fprintf(out, "%d\t%s\n", len(records), displayName(name))
			} else {
				_, err = fmt.Fprintf(out, "%d\n", len(records))
			}
		} else {
			err = recordPrinter.PrintRecords(records)
		}
		if err != nil {
			return writeFailed(logger, err)
		}
	}
	if err := out.Flush(); err != nil {
		return writeFailed(logger, err)
	}
	return 0
}

func parseArgs(args []string, stdout, stderr io.Writer) (*options, error) {
	var (
		opts      options
		outFormat string
		colorMode string
	)
	fs := flag.NewFlagSet("serverlog", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs) }
	fs.StringVar(&opts.backend, "backend", "stream", "decoder: stream, fastjson")
	fs.StringVar(&outFormat, "out", "json", "output format: json, text")
	fs.StringVar(&colorMode, "color", "auto", "colorize output: auto, always, never")
	fs.BoolVar(&opts.count, "count", false, "only print the number of records in each input")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch opts.backend {
	case "stream", "fastjson":
	default:
		return nil, usageError{fmt.Sprintf("invalid -backend value: %q (use stream or fastjson)", opts.backend)}
	}

	style, err := format.ParseStyle(outFormat)
	if err != nil {
		return nil, usageError{err.Error()}
	}
	opts.style = style

	switch colorMode {
	case "always":
		opts.colorizer = &format.DefaultColorizer
	case "never":
	case "auto":
		if isTerminal(stdout) {
			opts.colorizer = &format.DefaultColorizer
		}
	default:
		return nil, usageError{fmt.Sprintf("invalid -color value: %q (use auto, always, or never)", colorMode)}
	}

	opts.files = fs.Args()
	if len(opts.files) == 0 {
		opts.files = []string{stdinName}
	}
	return &opts, nil
}

// readRecords decodes all the records in the named input, which is
// decompressed first if needed.
func readRecords(name string, stdin io.Reader, backend string) ([]serverlog.Record, error) {
	var r io.Reader = stdin
	if name != stdinName {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	rc, _, err := input.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if backend == "fastjson" {
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return serverlog.ParseBytes(data)
	}
	return serverlog.Parse(rc)
}

func writeFailed(logger *log.Logger, err error) int {
	if errors.Is(err, syscall.EPIPE) {
		// stdout is a pipe and something closed it (e.g. 'head' or 'less').
		// In this case we don't want to complain.
		return 0
	}
	logger.Printf("writing output: %s", err)
	return 1
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func displayName(name string) string {
	if name == stdinName {
		return "<stdin>"
	}
	return name
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprint(fs.Output(), `serverlog - decode a stream of server log records

USAGE:
  serverlog [options] [file ...]

DESCRIPTION:
  serverlog reads JSON objects of the form

    {"user_id": 42, "username": "User McUserton"}

  concatenated with optional whitespace, checks every one of them and prints
  the records.  Other fields are ignored.  With no file, or when file is -,
  standard input is read.  Inputs compressed with gzip, zstd or lz4 are
  decompressed.

  An input is only printed if all of its records are valid.  Otherwise
  serverlog reports the first error and exits with status 1.

OPTIONS:
`)
	fs.PrintDefaults()
	fmt.Fprint(fs.Output(), `
EXAMPLES:
  # Print records as tab separated text
  serverlog -out text access.log

  # Count records in compressed logs
  serverlog -count logs/*.zst
`)
}
