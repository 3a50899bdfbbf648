package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StatusOutput is the JSON shape of the status command
type StatusOutput struct {
	Ts      string         `json:"ts"`
	GameID  string         `json:"game_id"`
	Section int            `json:"section"`
	Version int            `json:"version"`
	Stats   map[string]int `json:"stats"`
	Items   []string       `json:"items"`
	Ok      bool           `json:"ok"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <game-id>",
		Short: "Show the current committed state of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			state, err := c.Query.GetState(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				output := StatusOutput{
					Ts:      time.Now().Format(time.RFC3339Nano),
					GameID:  state.ID().String(),
					Section: state.SectionNumber(),
					Version: state.Version(),
					Stats:   state.Stats().Values(),
					Items:   state.Inventory().Items(),
					Ok:      true,
				}
				b, err := json.Marshal(output)
				if err != nil {
					return fmt.Errorf("marshal json: %w", err)
				}
				fmt.Println(string(b))
				return nil
			}

			fmt.Printf("Game    : %s\n", state.ID())
			fmt.Printf("Section : %d\n", state.SectionNumber())
			fmt.Printf("Version : %d\n", state.Version())
			printVitals(state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status in JSON format")

	return cmd
}
