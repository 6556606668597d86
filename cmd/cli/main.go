// Package main is the entry point for the grd-pricing CLI.
package main

import (
	"os"

	"grd-pricing/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
