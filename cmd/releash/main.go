/*
Package main provides the CLI entry point for releash.
*/
package main

import (
	"os"

	"github.com/quantstack/releash/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
