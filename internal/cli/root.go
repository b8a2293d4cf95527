package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"churchplan/internal/format"
	"churchplan/internal/model"
	"churchplan/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	EventID    string
	PrettyJSON bool
	Format     string
	LogLevel   string

	logger *slog.Logger
	cfg    *store.GlobalConfig
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "churchplan",
		Short:        "Plan a service's running order: steps, items, and their times",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create an event and make it current
  churchplan events create --title "Culto de Domingo" --starts "2025-03-09 19:00" --use

  # Build the running order
  churchplan steps add Abertura
  churchplan items add <step-id> "Oferta" --duration 10 --time 19:20

  # See computed times
  churchplan timeline show --format text
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd.ErrOrStderr(), app.LogLevel)
		if err != nil {
			return err
		}
		app.logger = logger
		cfg, err := store.LoadConfig()
		if err != nil {
			return err
		}
		app.cfg = cfg
		if !cmd.Flags().Changed("format") && os.Getenv("CHURCHPLAN_FORMAT") == "" && cfg.Output != "" {
			app.Format = cfg.Output
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("CHURCHPLAN_DIR", ""), "Path to the data dir (default: ~/.churchplan/data)")
	cmd.PersistentFlags().StringVar(&app.EventID, "event", envOr("CHURCHPLAN_EVENT", ""), "Event id (default: currentEventId from config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CHURCHPLAN_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("CHURCHPLAN_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newStepsCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newTimelineCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func openStore(ctx context.Context, app *App) (*store.Store, error) {
	dir := app.Dir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		app.Dir = dir
	}
	return store.Open(ctx, dir, app.logger)
}

// currentEvent resolves --event, then the config's currentEventId.
func currentEvent(ctx context.Context, app *App, st *store.Store) (model.Event, error) {
	id := strings.TrimSpace(app.EventID)
	if id == "" && app.cfg != nil {
		id = strings.TrimSpace(app.cfg.CurrentEventID)
	}
	if id == "" {
		return model.Event{}, errors.New("no current event; run `churchplan events use <event-id>` (or pass --event)")
	}
	return st.GetEvent(ctx, id)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
