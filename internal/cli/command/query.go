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

// QueryCommand returns the query subcommand group. Queries need no
// API key.
func QueryCommand() *cli.Command {
	holderFlags := []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Token ID (0-255)", Required: true},
		&cli.StringFlag{Name: "holder", Usage: "Holder account (elac-...)", Required: true},
	}

	return &cli.Command{
		Name:  "query",
		Usage: "Read-only ledger queries",
		Subcommands: []*cli.Command{
			{
				Name:   "balance",
				Usage:  "Show the effective balance of a holder",
				Flags:  holderFlags,
				Action: queryBalance,
			},
			{
				Name:   "expiry",
				Usage:  "Show the stored expiry of a holder's record",
				Flags:  holderFlags,
				Action: queryExpiry,
			},
		},
	}
}

func queryBalance(c *cli.Context) error {
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
		"queries": []map[string]any{{"token_id": id, "holder": c.String("holder")}},
	}
	var result struct {
		Balances []uint64 `json:"balances"`
	}
	if err := cl.Post(ctx, "/v1/queries/balance-of", body, &result); err != nil {
		return err
	}
	if len(result.Balances) != 1 {
		return fmt.Errorf("unexpected response: %d balances", len(result.Balances))
	}

	if jsonOutput(c) {
		return output.JSON(os.Stdout, result)
	}
	fmt.Println(result.Balances[0])
	return nil
}

func queryExpiry(c *cli.Context) error {
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
		"queries": []map[string]any{{"token_id": id, "holder": c.String("holder")}},
	}
	var result struct {
		Expiries []*int64 `json:"expiries"`
	}
	if err := cl.Post(ctx, "/v1/queries/expiry-of", body, &result); err != nil {
		return err
	}
	if len(result.Expiries) != 1 {
		return fmt.Errorf("unexpected response: %d expiries", len(result.Expiries))
	}

	if jsonOutput(c) {
		return output.JSON(os.Stdout, result)
	}

	expiry := result.Expiries[0]
	if expiry == nil {
		fmt.Println("no record")
		return nil
	}
	fmt.Printf("%s (%s)\n", strconv.FormatInt(*expiry, 10),
		time.UnixMilli(*expiry).UTC().Format(time.RFC3339))
	return nil
}
