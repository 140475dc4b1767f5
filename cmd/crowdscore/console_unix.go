//go:build linux || darwin

package main

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// listenForKeyboard puts the terminal in cbreak mode so keys arrive without
// Enter, and restores it on return.
func listenForKeyboard(ctx context.Context, c *console, quit func()) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		// Not a terminal
		return
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &newState); err != nil {
		return
	}
	defer unix.IoctlSetTermios(fd, ioctlSetTermios, oldState)

	runUntil(ctx, readKeys(os.Stdin), c, quit)
}
