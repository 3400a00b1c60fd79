package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
)

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [type...]",
		Short: "Rebuild the search index from the database",
		Long: `Clear and rebuild the search entries for every searchable type
(brewery, beer, drinker), or only for the types named.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := selectTypes(args)
			if err != nil {
				return err
			}

			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !search.Enabled(a.gateway) {
				fmt.Fprintln(out, "Search is disabled (search.backend=none); nothing to reindex")
				return nil
			}

			startTime := time.Now()
			total := 0

			for _, t := range types {
				rows, err := t.Count(cmd.Context(), a.store)
				if err != nil {
					return fmt.Errorf("count %s rows: %w", t.Name, err)
				}
				fmt.Fprintf(out, "Reindexing %d %s rows...\n", rows, t.Name)

				n, err := t.Reindex(cmd.Context(), a.store, func(done int) {
					fmt.Fprintf(out, "\rIndexing %s: %d/%d  ", t.Name, done, rows)
				})
				if err != nil {
					fmt.Fprintln(out)
					return err
				}
				if n > 0 {
					fmt.Fprintln(out)
				}
				total += n
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "=== Reindex Complete ===")
			fmt.Fprintf(out, "Entries indexed: %d\n", total)
			fmt.Fprintf(out, "Duration:        %v\n", time.Since(startTime).Round(time.Millisecond))
			return nil
		},
	}
}

func selectTypes(names []string) ([]storage.SearchableType, error) {
	if len(names) == 0 {
		return storage.SearchableTypes, nil
	}
	types := make([]storage.SearchableType, 0, len(names))
	for _, name := range names {
		t, ok := storage.LookupSearchableType(name)
		if !ok {
			return nil, fmt.Errorf("unknown searchable type %q (want brewery, beer or drinker)", name)
		}
		types = append(types, t)
	}
	return types, nil
}
