// Package main is the entry point for the nearbyd daemon.
package main

import (
	"os"

	"github.com/watchfire-io/nearby/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
