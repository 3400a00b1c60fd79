package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renderinc/brewblog/internal/search"
)

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Compare database rows with search index entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			statuses, err := a.store.IndexStatuses(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== Index Statistics ===")
			fmt.Fprintf(out, "Search backend: %s (available: %t)\n", a.cfg.Search.Backend, search.Enabled(a.gateway))
			for _, s := range statuses {
				line := fmt.Sprintf("%-8s rows: %-6d indexed: %d", s.Type, s.Rows, s.Indexed)
				if s.Error != "" {
					line += "  (" + s.Error + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
