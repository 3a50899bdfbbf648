package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <game-id>",
		Short: "Show the trace history of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.Query.GetHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No steps recorded yet.")
				return nil
			}

			for i, entry := range entries {
				fmt.Printf("%3d. [%s] section %d (from v%d)",
					i+1, entry.Kind(), entry.SectionNumber(), entry.PreviousVersion())

				payload := entry.Payload()
				keys := make([]string, 0, len(payload))
				for k := range payload {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf(" %s=%v", k, payload[k])
				}
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}
