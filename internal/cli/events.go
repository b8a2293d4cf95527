package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"churchplan/internal/mutate"
	"churchplan/internal/store"
	"churchplan/internal/timecode"

	"github.com/spf13/cobra"
)

const startsLayout = "2006-01-02 15:04"

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Event commands (a service and its start time)",
	}
	cmd.AddCommand(newEventsCreateCmd(app))
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsUseCmd(app))
	cmd.AddCommand(newEventsSetStartCmd(app))
	return cmd
}

func newEventsCreateCmd(app *App) *cobra.Command {
	var title string
	var starts string
	var use bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return writeErr(cmd, errors.New("missing --title"))
			}
			startsAt, err := time.Parse(startsLayout, strings.TrimSpace(starts))
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid --starts %q (expected YYYY-MM-DD HH:MM)", starts))
			}
			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			ev, err := st.CreateEvent(cmd.Context(), title, startsAt, time.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if err := useEvent(app, ev.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": ev})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Event title")
	cmd.Flags().StringVar(&starts, "starts", "", "Start (YYYY-MM-DD HH:MM, local clock)")
	cmd.Flags().BoolVar(&use, "use", false, "Make this the current event")
	return cmd
}

func newEventsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()
			evs, err := st.ListEvents(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
}

func newEventsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <event-id>",
		Short: "Set the current event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()
			ev, err := st.GetEvent(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := useEvent(app, ev.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ev})
		},
	}
}

// newEventsSetStartCmd moves the anchor; every non-pinned item shifts with it.
func newEventsSetStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-start <HH:MM>",
		Short: "Change the event start time (keeps the date)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := timecode.ParseMinutes(args[0])
			if !ok || m >= timecode.MinutesPerDay {
				return writeErr(cmd, mutate.InvalidTimeError{Value: args[0]})
			}
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			d := s.ev.StartsAt
			startsAt := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()).Add(time.Duration(m) * time.Minute)
			ev, err := s.st.SetEventStart(cmd.Context(), s.ev.ID, startsAt)
			if err != nil {
				return writeErr(cmd, err)
			}
			s.ev = ev
			return s.commit(cmd, mutate.Reanchor(s.tl, ev.AnchorMinutes()))
		},
	}
}

func useEvent(app *App, eventID string) error {
	cfg := app.cfg
	if cfg == nil {
		c, err := store.LoadConfig()
		if err != nil {
			return err
		}
		cfg = c
	}
	cfg.CurrentEventID = eventID
	app.cfg = cfg
	return store.SaveConfig(cfg)
}
