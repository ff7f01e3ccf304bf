package command

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arvos-io/expiryledger/internal/cli/output"
	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Token administration (requires an admin API key)",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a new token type",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Token ID (0-255)", Required: true},
					&cli.StringFlag{Name: "url", Usage: "Metadata URL", Required: true},
					&cli.StringFlag{Name: "hash", Usage: "Hex SHA-256 of the metadata document"},
				},
				Action: tokenAdd,
			},
			{
				Name:  "mint",
				Usage: "Mint a balance record for a holder",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Token ID (0-255)", Required: true},
					&cli.StringFlag{Name: "owner", Usage: "Holder account (elac-...)", Required: true},
					&cli.Uint64Flag{Name: "amount", Usage: "Amount to mint", Required: true},
					&cli.StringFlag{Name: "expiry", Usage: "Absolute expiry: RFC 3339 or Unix milliseconds"},
					&cli.DurationFlag{Name: "ttl", Usage: "Expiry relative to now (e.g. 24h)"},
				},
				Action: tokenMint,
			},
			{
				Name:      "remove",
				Usage:     "Remove token types with no active balances",
				ArgsUsage: "ID [ID...]",
				Action:    tokenRemove,
			},
			{
				Name:      "metadata",
				Usage:     "Show token metadata",
				ArgsUsage: "ID [ID...]",
				Action:    tokenMetadata,
			},
		},
	}
}

func tokenAdd(c *cli.Context) error {
	id, err := domain.ParseTokenID(c.String("id"))
	if err != nil {
		return err
	}

	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	body := map[string]any{
		"tokens": []map[string]any{{
			"token_id":      id,
			"metadata_url":  c.String("url"),
			"metadata_hash": c.String("hash"),
		}},
	}
	if err := cl.Post(ctx, "/v1/tokens", body, nil); err != nil {
		return err
	}

	fmt.Printf("token %s registered\n", id)
	return nil
}

func tokenMint(c *cli.Context) error {
	id, err := domain.ParseTokenID(c.String("id"))
	if err != nil {
		return err
	}
	expiry, err := resolveExpiry(c)
	if err != nil {
		return err
	}

	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	body := map[string]any{
		"owner": c.String("owner"),
		"mints": []map[string]any{{
			"token_id": id,
			"amount":   c.Uint64("amount"),
			"expiry":   expiry,
		}},
	}
	if err := cl.Post(ctx, "/v1/tokens/mint", body, nil); err != nil {
		return err
	}

	fmt.Printf("minted %d of token %s for %s, expires %s\n",
		c.Uint64("amount"), id, c.String("owner"),
		time.UnixMilli(expiry).UTC().Format(time.RFC3339))
	return nil
}

func tokenRemove(c *cli.Context) error {
	ids, err := parseTokenIDArgs(c)
	if err != nil {
		return err
	}

	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := cl.Post(ctx, "/v1/tokens/remove", map[string]any{"token_ids": ids}, nil); err != nil {
		return err
	}

	fmt.Printf("removed %d token(s)\n", len(ids))
	return nil
}

func tokenMetadata(c *cli.Context) error {
	ids, err := parseTokenIDArgs(c)
	if err != nil {
		return err
	}

	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var result struct {
		Metadata []struct {
			URL  string `json:"url"`
			Hash string `json:"hash"`
		} `json:"metadata"`
	}
	if err := cl.Post(ctx, "/v1/queries/token-metadata", map[string]any{"token_ids": ids}, &result); err != nil {
		return err
	}

	if jsonOutput(c) {
		return output.JSON(os.Stdout, result)
	}

	table := &output.Table{Headers: []string{"TOKEN", "URL", "HASH"}}
	for i, m := range result.Metadata {
		hash := m.Hash
		if hash == "" {
			hash = "-"
		}
		table.AddRow(ids[i].String(), m.URL, hash)
	}
	return table.Render(os.Stdout)
}

// resolveExpiry turns the --expiry / --ttl flags into an absolute Unix
// millisecond instant.
func resolveExpiry(c *cli.Context) (int64, error) {
	raw := c.String("expiry")
	ttl := c.Duration("ttl")

	switch {
	case raw != "" && ttl != 0:
		return 0, fmt.Errorf("use either --expiry or --ttl, not both")
	case ttl != 0:
		return time.Now().Add(ttl).UnixMilli(), nil
	case raw == "":
		return 0, fmt.Errorf("one of --expiry or --ttl is required")
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, fmt.Errorf("expiry must be RFC 3339 or Unix milliseconds: %w", err)
	}
	return t.UnixMilli(), nil
}

func parseTokenIDArgs(c *cli.Context) ([]domain.TokenID, error) {
	if c.NArg() == 0 {
		return nil, fmt.Errorf("at least one token ID is required")
	}

	ids := make([]domain.TokenID, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		id, err := domain.ParseTokenID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
