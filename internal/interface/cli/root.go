// Package cli wires the fablestep commands: starting games, stepping
// through them, inspecting state and history, and exporting transcripts.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/fablestep/fablestep/internal/app"
	"github.com/fablestep/fablestep/internal/app/config"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig config.Config

// NewRoot builds the root command
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fablestep",
		Short: "Fablestep interactive fiction engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration before any command runs
			// Priority: env > setting.yml > defaults
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			globalConfig = cfg
			app.SetLogger(app.NewLogger(app.ParseLevel(cfg.StderrLevel())))
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newStepCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newGamesCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// openContainer builds the object graph for one command invocation
func openContainer() (*Container, error) {
	return NewContainer(globalConfig, app.GetLogger())
}
