package cli

import (
	"errors"
	"strings"

	"churchplan/internal/model"
	"churchplan/internal/mutate"
	"churchplan/internal/timeline"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands (entries in a step's running order)",
	}
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsEditCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsReorderCmd(app))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var in mutate.ItemInput
	var at int

	cmd := &cobra.Command{
		Use:   "add <step-id> <title>",
		Short: "Add an item to a step",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args[1:], " ")
			if cmd.Flags().Changed("at") {
				pos := at
				in.At = &pos
			}
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.AddItem(s.tl, s.anchor(), args[0], in)
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "Item id (default: generated)")
	cmd.Flags().StringVar(&in.Subtitle, "subtitle", "", "Secondary label")
	cmd.Flags().StringVar(&in.ExplicitTime, "time", "", "Pin the item to a clock time (HH:MM)")
	cmd.Flags().IntVar(&in.DurationMinutes, "duration", 0, "Duration in minutes")
	cmd.Flags().StringArrayVar(&in.Participants, "participant", nil, "Participant (repeatable)")
	cmd.Flags().IntVar(&at, "at", 0, "Insert position within the step (0-based; default: end)")
	return cmd
}

func newItemsEditCmd(app *App) *cobra.Command {
	var title string
	var subtitle string
	var at string
	var clearTime bool
	var duration int
	var participants []string
	var clearParticipants bool

	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Edit an item's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if clearTime && flags.Changed("time") {
				return writeErr(cmd, errors.New("use either --time or --clear-time"))
			}
			if clearParticipants && flags.Changed("participant") {
				return writeErr(cmd, errors.New("use either --participant or --clear-participants"))
			}

			var f model.ItemFields
			if flags.Changed("title") {
				f.Title = &title
			}
			if flags.Changed("subtitle") {
				f.Subtitle = &subtitle
			}
			if flags.Changed("time") {
				f.ExplicitTime = &at
			}
			if clearTime {
				empty := ""
				f.ExplicitTime = &empty
			}
			if flags.Changed("duration") {
				f.DurationMinutes = &duration
			}
			if flags.Changed("participant") {
				f.Participants = &participants
			}
			if clearParticipants {
				none := []string{}
				f.Participants = &none
			}
			if f.Empty() {
				return writeErr(cmd, errors.New("nothing to edit; pass at least one field flag"))
			}

			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.EditItem(s.tl, s.anchor(), args[0], f)
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "New subtitle (empty clears)")
	cmd.Flags().StringVar(&at, "time", "", "Pin to a clock time (HH:MM)")
	cmd.Flags().BoolVar(&clearTime, "clear-time", false, "Remove the pinned time")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")
	cmd.Flags().StringArrayVar(&participants, "participant", nil, "Replace participants (repeatable)")
	cmd.Flags().BoolVar(&clearParticipants, "clear-participants", false, "Remove all participants")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.DeleteItem(s.tl, s.anchor(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
}

func newItemsMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <item-id> <up|down>",
		Short: "Move an item one slot (crosses into the neighbouring step at the edges)",
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
			res, err := mutate.MoveItem(s.tl, s.anchor(), args[0], dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
}

func newItemsReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <step-id> <item-id>...",
		Short: "Set the full item order of a step",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			res, err := mutate.ReorderItems(s.tl, s.anchor(), args[0], args[1:])
			if err != nil {
				return writeErr(cmd, err)
			}
			return s.commit(cmd, res)
		},
	}
}
