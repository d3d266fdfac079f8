// Package main provides the entry point for tokenward-cli.
//
// tokenward-cli is the command-line management tool for tokenward. It
// mints, inspects, and revokes tokens over the server's HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/tokenward/tokenward-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
