// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/jeremyhahn/go-passkey/pkg/account"
	"github.com/spf13/cobra"
)

// accountsCmd groups account inspection subcommands
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect registered accounts",
}

// accountsListCmd lists every known account and its enrolled credentials.
// Only useful against the file backend; the memory backend is empty in a
// fresh process.
var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts and their enrolled credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configFile)
		if err != nil {
			return err
		}

		backend, err := newBackend(cfg)
		if err != nil {
			return fmt.Errorf("initialize storage backend: %w", err)
		}
		defer func() { _ = backend.Close() }()

		records := account.NewRecordStore(backend)
		ctx := context.Background()

		usernames, err := records.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tCREDENTIALS\tLAST USED")
		for _, username := range usernames {
			rec, err := records.Load(ctx, username)
			if err != nil {
				return err
			}
			lastUsed := "-"
			for _, cred := range rec.Credentials {
				if !cred.LastUsedAt.IsZero() {
					lastUsed = cred.LastUsedAt.Format("2006-01-02 15:04:05")
				}
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", rec.Username, len(rec.Credentials), lastUsed)
		}
		return w.Flush()
	},
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
}
