//go:build windows

package cmd

import (
	"errors"
	"os"
)

var errAlreadyRunning = errors.New("another instance of sift is running")

// acquireLock is a no-op on Windows; concurrent sessions are not prevented.
func acquireLock(string) (*os.File, error) {
	return nil, nil
}

func releaseLock(*os.File) {}

// termWidth returns 0 on Windows; callers fall back to $COLUMNS.
func termWidth() int {
	return 0
}
