package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iyann1255/daftaren/internal/config"
	"github.com/iyann1255/daftaren/internal/database"
	"github.com/iyann1255/daftaren/internal/export"
	"github.com/iyann1255/daftaren/lib/clock"
)

func pendingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List payment proofs waiting for a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			doc, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			list := doc.OpenPayments()
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending payments")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PAYMENT\tUSER\tNAME\tWA\tTICKET\tCREATED")
			for _, p := range list {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					p.PaymentId, p.UserId, p.NameIGN, p.WA, p.Ticket, clock.Format(p.CreatedAt))
			}
			return w.Flush()
		},
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write approved participants as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			doc, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return export.WriteUsers(out, doc.ApprovedUsers())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// openStore reads only the storage settings; no bot token is needed.
func openStore(configPath string) (database.Store, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return database.New(conf.Storage, log)
}

