package scanner

func IsDigit[T byte | rune](b T) bool {
	return b >= '0' && b <= '9'
}

// IsHex reports whether b is a hexadecimal digit, as allowed in \u escapes.
func IsHex[T byte | rune](b T) bool {
	return IsDigit(b) || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// IsCtrl reports whether b must be escaped inside a JSON string.
func IsCtrl[T byte | rune](b T) bool {
	return b < 32
}

// HexValue returns the value of the hexadecimal digit b, which must satisfy
// IsHex.
func HexValue[T byte | rune](b T) rune {
	switch {
	case b >= 'a':
		return rune(b-'a') + 10
	case b >= 'A':
		return rune(b-'A') + 10
	default:
		return rune(b - '0')
	}
}
