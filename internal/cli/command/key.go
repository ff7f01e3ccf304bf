package command

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// KeyCommand returns the key subcommand group. These commands run
// locally; no server connection is needed.
func KeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "API key tooling",
		Subcommands: []*cli.Command{
			{
				Name:   "new",
				Usage:  "Generate a key ID, secret and config hash",
				Action: keyNew,
			},
			{
				Name:   "hash",
				Usage:  "Hash a key secret read from stdin for the config file",
				Action: keyHash,
			},
		},
	}
}

func keyNew(c *cli.Context) error {
	id, err := domain.NewAPIKeyID()
	if err != nil {
		return err
	}
	secret, hash, err := domain.NewAPIKeySecret()
	if err != nil {
		return err
	}

	fmt.Printf("key id:      %s\n", id)
	fmt.Printf("secret:      %s\n", secret)
	fmt.Printf("secret_hash: %s\n", hash)
	fmt.Println()
	fmt.Println("Store the secret now; only the hash goes into the server config.")
	return nil
}

func keyHash(c *cli.Context) error {
	reader := bufio.NewReader(os.Stdin)
	secret, err := reader.ReadString('\n')
	if err != nil && secret == "" {
		return fmt.Errorf("read secret: %w", err)
	}
	secret = strings.TrimRight(secret, "\r\n")
	if secret == "" {
		return fmt.Errorf("empty secret")
	}

	hash, err := domain.HashAPIKeySecret(secret)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
