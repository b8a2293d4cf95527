package cli

import (
	"fmt"
	"os"

	"churchplan/internal/format"
	"churchplan/internal/plan"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newTimelineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show or export the current event's running order",
	}
	cmd.AddCommand(newTimelineShowCmd(app))
	cmd.AddCommand(newTimelineExportCmd(app))
	return cmd
}

func newTimelineShowCmd(app *App) *cobra.Command {
	var color string
	var width int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the timeline with computed times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			view := format.NewTimelineView(s.ev, s.tl)
			if app.Format != "text" {
				return writeOut(cmd, app, map[string]any{"data": view})
			}
			useColor, err := wantColor(cmd, color)
			if err != nil {
				return writeErr(cmd, err)
			}
			return format.WriteTimelineText(cmd.OutOrStdout(), view, format.TextOptions{Width: width, Color: useColor})
		},
	}
	cmd.Flags().StringVar(&color, "color", "auto", "Color text output (auto|always|never)")
	cmd.Flags().IntVar(&width, "width", 0, "Line width for text output (default 72)")
	return cmd
}

// newTimelineExportCmd writes the running order as a plan file `import` accepts.
func newTimelineExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the timeline as a YAML plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			b, err := plan.FromTimeline(s.ev, s.tl).Marshal()
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": out, "eventId": s.ev.ID}})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func wantColor(cmd *cobra.Command, mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		f, ok := cmd.OutOrStdout().(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("invalid --color %q (expected auto|always|never)", mode)
	}
}
