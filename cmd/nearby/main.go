// Package main is the entry point for the nearby CLI.
package main

import (
	"os"

	"github.com/watchfire-io/nearby/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
