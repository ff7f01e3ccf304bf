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

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the ledger status summary",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:  "events",
				Usage: "Show recent ledger events",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of events", Value: 20},
				},
				Action: systemEvents,
			},
			{
				Name:  "export",
				Usage: "Download an encrypted snapshot of the ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Output file", Required: true},
					&cli.StringFlag{
						Name:    "passphrase",
						Usage:   "Snapshot passphrase (min 8 characters)",
						EnvVars: []string{"EXPIRYLEDGER_EXPORT_PASSPHRASE"},
					},
				},
				Action: systemExport,
			},
		},
	}
}

func systemStatus(c *cli.Context) error {
	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var result struct {
		Build struct {
			Version   string `json:"version"`
			Commit    string `json:"commit"`
			BuildTime string `json:"build_time"`
		} `json:"build"`
		TokenCount     int              `json:"token_count"`
		BalanceRecords int              `json:"balance_records"`
		TokenIDs       []domain.TokenID `json:"token_ids"`
	}
	if err := cl.Get(ctx, "/admin/v1/status/summary", &result); err != nil {
		return err
	}

	if jsonOutput(c) {
		return output.JSON(os.Stdout, result)
	}

	fmt.Printf("Version:         %s (%s)\n", result.Build.Version, result.Build.Commit)
	fmt.Printf("Tokens:          %d\n", result.TokenCount)
	fmt.Printf("Balance records: %d\n", result.BalanceRecords)
	if len(result.TokenIDs) > 0 {
		fmt.Print("Token IDs:       ")
		for i, id := range result.TokenIDs {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(id)
		}
		fmt.Println()
	}
	return nil
}

func systemHealth(c *cli.Context) error {
	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var result struct {
		Status string `json:"status"`
	}
	if err := cl.Get(ctx, "/health", &result); err != nil {
		return err
	}
	fmt.Println(result.Status)
	return nil
}

func systemEvents(c *cli.Context) error {
	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var result struct {
		Events []domain.Event `json:"events"`
	}
	path := "/admin/v1/events?limit=" + strconv.Itoa(c.Int("limit"))
	if err := cl.Get(ctx, path, &result); err != nil {
		return err
	}

	if jsonOutput(c) {
		return output.JSON(os.Stdout, result)
	}

	table := &output.Table{Headers: []string{"TIME", "KIND", "TOKEN", "OWNER", "AMOUNT"}}
	for _, ev := range result.Events {
		owner := ev.Owner
		if owner == "" {
			owner = "-"
		}
		table.AddRow(
			time.UnixMilli(ev.Time).UTC().Format(time.RFC3339),
			string(ev.Kind),
			ev.TokenID.String(),
			owner,
			strconv.FormatUint(uint64(ev.Amount), 10),
		)
	}
	return table.Render(os.Stdout)
}

func systemExport(c *cli.Context) error {
	passphrase := c.String("passphrase")
	if passphrase == "" {
		return fmt.Errorf("a passphrase is required (flag or EXPIRYLEDGER_EXPORT_PASSPHRASE)")
	}

	cl, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	file, err := os.OpenFile(c.String("out"), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	body := map[string]string{"passphrase": passphrase}
	if err := cl.Download(ctx, "/admin/v1/export", body, file); err != nil {
		file.Close()
		os.Remove(c.String("out"))
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	fmt.Printf("snapshot written to %s\n", c.String("out"))
	return nil
}
