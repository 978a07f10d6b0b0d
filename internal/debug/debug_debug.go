//go:build debug

// Package debug traces decoding when built with -tags debug.
package debug

import "log"

func Printf(msg string, args ...any) {
	log.Printf("serverlog: "+msg, args...)
}

const On = true
