package cli

import (
	"time"

	"churchplan/internal/model"
	"churchplan/internal/plan"
	"churchplan/internal/store"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "import <plan.yaml>",
		Short: "Create an event from a YAML plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.Load(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			startsAt, err := p.StartsAt()
			if err != nil {
				return writeErr(cmd, err)
			}

			// A plan that fails to apply must not leave an event row behind.
			ev, err := store.NewEvent(p.Title, startsAt, time.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := p.Apply(model.Timeline{EventID: ev.ID}, ev.AnchorMinutes())
			if err != nil {
				return writeErr(cmd, err)
			}

			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()
			if err := st.InsertEvent(cmd.Context(), ev); err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if err := useEvent(app, ev.ID); err != nil {
					return writeErr(cmd, err)
				}
			}

			s := &session{app: app, st: st, ev: ev, tl: model.Timeline{EventID: ev.ID}}
			return s.commit(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Make the imported event current")
	return cmd
}
