// Package main provides the entry point for the syncagent CLI.
package main

import (
	"os"

	"github.com/vegalabs/syncagent/cmd/syncagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
