package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "get brewery|drinker <id>",
		Short:     "Print one record as JSON",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"brewery", "drinker"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}

			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			var record interface{}
			switch args[0] {
			case "brewery":
				b, err := a.store.GetBrewery(cmd.Context(), uint(id))
				if err != nil {
					return err
				}
				record = b.Serialize()
			case "drinker":
				d, err := a.store.GetDrinker(cmd.Context(), uint(id))
				if err != nil {
					return err
				}
				record = d.Serialize()
			default:
				return fmt.Errorf("unknown record type %q (want brewery or drinker)", args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}
}
