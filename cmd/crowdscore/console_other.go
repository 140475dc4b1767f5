//go:build !linux && !darwin

package main

import (
	"context"
	"os"
)

// listenForKeyboard reads line-buffered input where cbreak mode is not
// available; shortcuts need Enter.
func listenForKeyboard(ctx context.Context, c *console, quit func()) {
	runUntil(ctx, readKeys(os.Stdin), c, quit)
}
