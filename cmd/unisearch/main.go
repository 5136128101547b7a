// Package main provides the entry point for the unisearch CLI.
package main

import (
	"os"

	"github.com/openarchive/unisearch/cmd/unisearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
