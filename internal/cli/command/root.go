// Package command provides CLI command definitions for tokenward-cli.
//
// It uses urfave/cli/v2 for command parsing. Every command talks to a
// tokenward server over the HTTP API using the credential supplied via
// flags or environment.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tokenward/tokenward-go/internal/cli/client"
	"github.com/tokenward/tokenward-go/internal/cli/output"
	"github.com/tokenward/tokenward-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tokenward-cli",
		Usage:   "tokenward command-line management tool",
		Version: buildinfo.Get().String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tokenward server address (e.g., localhost:5780)",
			EnvVars: []string{"TOKENWARD_SERVER"},
			Value:   "localhost:5780",
		},
		&cli.StringFlag{
			Name:    "credential",
			Aliases: []string{"c"},
			Usage:   "Token credential or bootstrap credential for authentication",
			EnvVars: []string{"TOKENWARD_CREDENTIAL"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
	}
}

// apiClient builds a client from the global flags. A credential is
// required for every command.
func apiClient(c *cli.Context) (*client.Client, error) {
	credential := c.String("credential")
	if credential == "" {
		return nil, fmt.Errorf("no credential: set --credential or TOKENWARD_CREDENTIAL")
	}
	return client.New(c.String("server"), credential), nil
}

// formatter builds an output formatter from the global flags.
func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")))
}

// tableOutput reports whether the table format is selected.
func tableOutput(c *cli.Context) bool {
	format := output.Format(c.String("output"))
	return format != output.FormatJSON && format != output.FormatYAML
}
