// Package main is the entry point for expiryledger-cli, the
// command-line management tool for an expiryledger-server instance.
package main

import (
	"fmt"
	"os"

	"github.com/arvos-io/expiryledger/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
