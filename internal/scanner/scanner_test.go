package scanner

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func strScanner(s string) *Scanner {
	return NewScanner(strings.NewReader(s))
}

func assertRead(t *testing.T, s *Scanner, xb byte, xerr error) {
	t.Helper()
	b, err := s.Read()
	if b != xb {
		t.Fatalf("Read: expected b = %q, got %q", xb, b)
	}
	if err != xerr {
		t.Fatalf("Read: expected err = %v, got %v", xerr, err)
	}
}

func assertPeek(t *testing.T, s *Scanner, xb byte, xerr error) {
	t.Helper()
	b, err := s.Peek()
	if b != xb {
		t.Fatalf("Peek: expected b = %q, got %q", xb, b)
	}
	if err != xerr {
		t.Fatalf("Peek: expected err = %v, got %v", xerr, err)
	}
}

func assertCurrentPos(t *testing.T, s *Scanner, line, col int) {
	t.Helper()
	pos := s.CurrentPos()
	if pos.Line != line || pos.Col != col {
		t.Fatalf("CurrentPos: expected (%d, %d) got (%d, %d)", line, col, pos.Line, pos.Col)
	}
}

func assertOffset(t *testing.T, s *Scanner, offset int64) {
	t.Helper()
	if got := s.Offset(); got != offset {
		t.Fatalf("Offset: expected %d got %d", offset, got)
	}
}

func assertEndToken(t *testing.T, s *Scanner, tokStr string) {
	t.Helper()
	tok := s.EndToken()
	if string(tok) != tokStr {
		t.Fatalf("EndToken: expected %q got %q", tokStr, tok)
	}
}

func TestSimple(t *testing.T) {
	scanner := strScanner("bonjour")
	assertRead(t, scanner, 'b', nil)
	assertRead(t, scanner, 'o', nil)
	assertCurrentPos(t, scanner, 0, 2)
	assertPeek(t, scanner, 'n', nil)
	assertCurrentPos(t, scanner, 0, 2)
	assertRead(t, scanner, 'n', nil)
	assertCurrentPos(t, scanner, 0, 3)
	scanner.Back()
	assertCurrentPos(t, scanner, 0, 2)
	assertOffset(t, scanner, 2)
	assertRead(t, scanner, 'n', nil)

	pos := scanner.StartToken()
	if pos.Offset != 3 {
		t.Fatalf("StartToken: expected offset 3, got %d", pos.Offset)
	}
	for _, b := range []byte("jour") {
		assertRead(t, scanner, b, nil)
	}
	assertCurrentPos(t, scanner, 0, 7)
	assertRead(t, scanner, EOF, nil)
	scanner.Back()
	assertRead(t, scanner, EOF, nil)
	assertCurrentPos(t, scanner, 0, 7)
	assertOffset(t, scanner, 7)
	assertEndToken(t, scanner, "jour")
}

func TestEmpty(t *testing.T) {
	scanner := strScanner("")
	assertPeek(t, scanner, EOF, nil)
	assertRead(t, scanner, EOF, nil)
	scanner.Back()
	assertRead(t, scanner, EOF, nil)
	assertOffset(t, scanner, 0)
}

func TestSkipSpace(t *testing.T) {
	scanner := strScanner(" \t\r\n  \n x")
	b, err := scanner.SkipSpaceAndPeek()
	if b != 'x' || err != nil {
		t.Fatalf("SkipSpaceAndPeek: expected 'x', got %q, %v", b, err)
	}
	assertCurrentPos(t, scanner, 2, 1)
	assertOffset(t, scanner, 8)

	scanner = strScanner("   \n ")
	b, err = scanner.SkipSpaceAndPeek()
	if b != EOF || err != nil {
		t.Fatalf("SkipSpaceAndPeek: expected EOF, got %q, %v", b, err)
	}
	assertOffset(t, scanner, 5)
}

func TestColumnsCountCodepoints(t *testing.T) {
	scanner := strScanner("é€x")
	for i := 0; i < len("é€"); i++ {
		if _, err := scanner.Read(); err != nil {
			t.Fatal(err)
		}
	}
	assertCurrentPos(t, scanner, 0, 2)
	assertOffset(t, scanner, 5)
	assertRead(t, scanner, 'x', nil)
	assertCurrentPos(t, scanner, 0, 3)
}

func TestLargeInput(t *testing.T) {
	const line = "A very long string.\n"
	scanner := NewScannerSize(strings.NewReader(strings.Repeat(line, 100)), 16)
	lc := 0
	// Check we get the correct bytes after the buffer is refilled.
	var acc []byte
	for lc < 10 {
		b, err := scanner.Read()
		if err != nil {
			t.Fatal("unexpected error")
		}
		acc = append(acc, b)
		if b == '\n' {
			lc++
		}
	}
	if string(acc) != strings.Repeat(line, 10) {
		t.Fatalf("incorrect input")
	}
	assertOffset(t, scanner, int64(10*len(line)))
	// Check tokens get put together correctly and everything is cleaned up
	// after each token is returned
	for i := 1; i <= 3; i++ {
		pos := scanner.StartToken()
		if pos.Line != 10*i || pos.Col != 0 {
			t.Fatalf("StartToken: expected (%d, 0) got (%d, %d)", 10*i, pos.Line, pos.Col)
		}
		lc = 0
		for lc < 10 {
			b, err := scanner.Read()
			if err != nil {
				t.Fatal("unexpected error")
			}
			if b == '\n' {
				lc++
			}
		}
		assertEndToken(t, scanner, strings.Repeat(line, 10))
		assertOffset(t, scanner, int64(10*(i+1)*len(line)))
	}
}

func TestOneByteReader(t *testing.T) {
	scanner := NewScannerSize(iotest.OneByteReader(strings.NewReader("  {}")), 16)
	b, err := scanner.SkipSpaceAndPeek()
	if b != '{' || err != nil {
		t.Fatalf("SkipSpaceAndPeek: expected '{', got %q, %v", b, err)
	}
	assertRead(t, scanner, '{', nil)
	assertRead(t, scanner, '}', nil)
	assertRead(t, scanner, EOF, nil)
}

func TestReaderError(t *testing.T) {
	boom := errors.New("boom")
	scanner := strScanner("")
	scanner.reader = io.MultiReader(strings.NewReader("a"), iotest.ErrReader(boom))
	assertRead(t, scanner, 'a', nil)
	assertRead(t, scanner, 0, boom)
	assertPeek(t, scanner, 0, boom)
}
