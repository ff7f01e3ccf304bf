// Package command defines the expiryledger-cli command tree.
package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arvos-io/expiryledger/internal/cli/client"
	"github.com/arvos-io/expiryledger/internal/infra/buildinfo"
)

// requestTimeout bounds every server call made by the CLI.
const requestTimeout = 30 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "expiryledger-cli",
		Usage:   "ExpiryLedger command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
			QueryCommand(),
			SystemCommand(),
			KeyCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address (e.g. localhost:5180)",
			EnvVars: []string{"EXPIRYLEDGER_SERVER"},
			Value:   "localhost:5180",
		},
		&cli.StringFlag{
			Name:    "api-key-id",
			Aliases: []string{"k"},
			Usage:   "API key ID for authenticated calls",
			EnvVars: []string{"EXPIRYLEDGER_API_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "API key secret for authenticated calls",
			EnvVars: []string{"EXPIRYLEDGER_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "ca-cert",
			Usage:   "PEM bundle of CA certificates to trust",
			EnvVars: []string{"EXPIRYLEDGER_CA_CERT"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
	}
}

// newClient builds a client from the global flags.
func newClient(c *cli.Context) (*client.Client, error) {
	return client.New(client.Config{
		Server:   c.String("server"),
		APIKeyID: c.String("api-key-id"),
		APIKey:   c.String("api-key"),
		CACert:   c.String("ca-cert"),
		Timeout:  requestTimeout,
	})
}

func jsonOutput(c *cli.Context) bool {
	return c.String("output") == "json"
}
