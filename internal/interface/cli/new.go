package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fablestep/fablestep/internal/application/dto"
)

func newNewCmd() *cobra.Command {
	var items []string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new game at the book's first section",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.NewGame.Execute(cmd.Context(), dto.NewGameInput{
				Inventory: items,
			})
			if err != nil {
				return err
			}

			state := out.State
			fmt.Printf("Game    : %s\n", state.ID())
			fmt.Printf("Section : %d\n", state.SectionNumber())
			fmt.Printf("Version : %d\n", state.Version())
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&items, "item", nil, "Starting inventory item (repeatable)")

	return cmd
}
