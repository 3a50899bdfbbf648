package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fablestep/fablestep/internal/application/dto"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <game-id>",
		Short: "Archive a game transcript",
		Long: `Archive a game transcript.

The transcript is written to the local archive directory, or to S3 when
an archive bucket is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.Export.Execute(cmd.Context(), dto.ExportInput{GameID: args[0]})
			if err != nil {
				return err
			}

			fmt.Printf("Archived: %s (%d bytes)\n", out.StoragePath, out.Size)
			return nil
		},
	}

	return cmd
}
