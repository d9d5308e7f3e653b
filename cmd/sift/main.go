// Package main is the entry point for the sift launcher.
package main

import (
	"os"

	"github.com/runger/sift/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
