package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
)

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <type> <query>",
		Short: "Search breweries, beers or drinkers",
		Example: `  brewblog search brewery "river"
  brewblog search beer ipa`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := storage.LookupSearchableType(args[0])
			if !ok {
				return fmt.Errorf("unknown searchable type %q (want brewery, beer or drinker)", args[0])
			}
			query := strings.Join(args[1:], " ")

			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			items, total, err := t.Search(cmd.Context(), a.store, query)
			if search.IsUnavailable(err) {
				fmt.Fprintln(out, "Search is disabled (search.backend=none)")
				return nil
			}
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Fprintln(out, "No results found")
				return nil
			}

			fmt.Fprintf(out, "Found %d results (showing %d):\n\n", total, len(items))
			for i, item := range items {
				line, err := json.Marshal(item)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d. %s\n", i+1, line)
			}
			return nil
		},
	}
}
