package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List known games",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			ids, err := c.Query.ListGames(cmd.Context())
			if err != nil {
				return err
			}

			if len(ids) == 0 {
				fmt.Println("No games yet. Start one with 'fablestep new'.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}

	return cmd
}
