package scanner

import "testing"

func TestCharClasses(t *testing.T) {
	for b := 0; b < 256; b++ {
		c := byte(b)
		digit := c >= '0' && c <= '9'
		hex := digit || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if IsDigit(c) != digit {
			t.Errorf("IsDigit(%q) = %t", c, !digit)
		}
		if IsHex(c) != hex {
			t.Errorf("IsHex(%q) = %t", c, !hex)
		}
		if IsCtrl(c) != (c < 0x20) {
			t.Errorf("IsCtrl(%q) = %t", c, c >= 0x20)
		}
	}
	for i, c := range "0123456789abcdef" {
		if HexValue(c) != rune(i) || HexValue(byte(c)) != rune(i) {
			t.Errorf("HexValue(%q) = %d", c, HexValue(c))
		}
	}
	if HexValue('F') != 15 || HexValue('A') != 10 {
		t.Error("HexValue on upper case digits")
	}
	if IsHex('g') || IsHex(rune('é')) || !IsHex(rune('F')) {
		t.Error("IsHex on runes")
	}
}
