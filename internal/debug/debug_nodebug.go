//go:build !debug

package debug

func Printf(msg string, args ...any) {}

// On is false unless built with -tags debug, so callers can skip building
// trace arguments.
const On = false
