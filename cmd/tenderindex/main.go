// Package main provides the entry point for the tenderindex CLI.
package main

import (
	"os"

	"github.com/mapletenders/tenderindex/cmd/tenderindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
