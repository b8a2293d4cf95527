package cli

import (
	"strings"

	"churchplan/internal/mutate"
	"churchplan/internal/timeline"

	"github.com/spf13/cobra"
)

func newStepsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Step commands (titled groups of items)",
	}
	cmd.AddCommand(newStepsAddCmd(app))
	cmd.AddCommand(newStepsRenameCmd(app))
	cmd.AddCommand(newStepsDeleteCmd(app))
	cmd.AddCommand(newStepsMoveCmd(app))
	return cmd
}

func newStepsAddCmd(app *App) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a step to the current event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.AddStep(s.tl, s.anchor(), id, strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Step id (default: generated)")
	return cmd
}

func newStepsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <step-id> <title>",
		Short: "Rename a step",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.RenameStep(s.tl, s.anchor(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
}

func newStepsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <step-id>",
		Short: "Delete a step and all of its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.DeleteStep(s.tl, s.anchor(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
}

func newStepsMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <step-id> <up|down>",
		Short: "Swap a step with its neighbour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := timeline.ParseDirection(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.MoveStep(s.tl, s.anchor(), args[0], dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
}
