package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fablestep/fablestep/internal/application/dto"
	"github.com/fablestep/fablestep/internal/domain/model/dice"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
)

func newStepCmd() *cobra.Command {
	var (
		choice  string
		version int
		roll    bool
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "step <game-id>",
		Short: "Advance a game by one step",
		Long: `Advance a game by one step.

A section whose rules demand a dice roll suspends the step and reports
the pending request; rerun with --roll to resolve it. Pass --version to
pin the step to a specific committed version instead of the current one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			in := dto.StepInput{
				GameID:        args[0],
				Choice:        choice,
				TargetVersion: version,
			}

			out, err := c.Step.Execute(cmd.Context(), in)
			if err != nil {
				return err
			}

			if !out.Committed && roll {
				out, err = resolveDice(cmd, c, in, out, seed)
				if err != nil {
					return err
				}
			}

			printStepResult(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&choice, "choice", "", "Player choice for this step")
	cmd.Flags().IntVar(&version, "version", step.TargetHead, "Committed version to step from (default: current)")
	cmd.Flags().BoolVar(&roll, "roll", false, "Roll automatically when the section demands dice")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Dice seed (0 generates a random one)")

	return cmd
}

// resolveDice rolls the pending dice request of a suspended step and
// reruns the step with the outcome
func resolveDice(cmd *cobra.Command, c *Container, in dto.StepInput, suspended *dto.StepOutput, seed int64) (*dto.StepOutput, error) {
	req, ok := suspended.State.PendingDice()
	if !ok {
		return nil, fmt.Errorf("step suspended without a pending dice request")
	}

	if seed == 0 {
		var err error
		seed, err = dice.NewSeed()
		if err != nil {
			return nil, err
		}
	}

	outcome, err := dice.Roll(req, seed)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Rolled  : %s = %d (draws %v)\n", req.Kind(), outcome.Value(), outcome.Draws())

	in.Dice = &outcome
	return c.Step.Execute(cmd.Context(), in)
}

func printStepResult(out *dto.StepOutput) {
	state := out.State

	if !out.Committed {
		req, _ := state.PendingDice()
		fmt.Printf("Awaiting: %s roll", req.Kind())
		if req.Modifier() != 0 {
			fmt.Printf(" (modifier %+d)", req.Modifier())
		}
		fmt.Println()
		fmt.Println("Rerun with --roll to resolve.")
		return
	}

	fmt.Printf("Section : %d\n", state.SectionNumber())
	fmt.Printf("Version : %d\n", state.Version())
	if narrative := state.Narrative(); narrative != "" {
		fmt.Printf("\n%s\n", narrative)
	}
	printVitals(state)
}

func printVitals(state *game.State) {
	stats := state.Stats()
	for _, name := range stats.Names() {
		v, _ := stats.Value(name)
		m, _ := stats.Maximum(name)
		fmt.Printf("%-8s: %d/%d\n", name, v, m)
	}
	if items := state.Inventory().Items(); len(items) > 0 {
		fmt.Printf("Items   : %v\n", items)
	}
}
