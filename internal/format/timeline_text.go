package format

import (
	"fmt"
	"io"
	"strings"

	"churchplan/internal/model"
	"churchplan/internal/timecode"
	"churchplan/internal/timeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// TimelineView is what `timeline show` prints.
type TimelineView struct {
	Event    model.Event    `json:"event"`
	Timeline model.Timeline `json:"timeline"`
	EndsAt   string         `json:"endsAt"`
}

func NewTimelineView(ev model.Event, tl model.Timeline) TimelineView {
	return TimelineView{
		Event:    ev,
		Timeline: tl,
		EndsAt:   timecode.FormatMinutes(timeline.EndMinutes(tl, ev.AnchorMinutes())),
	}
}

type TextOptions struct {
	// Width caps each line; 0 means 72.
	Width int
	// Color enables ANSI styling (respecting NO_COLOR / CLICOLOR via termenv).
	Color bool
}

const pinGlyph = "•"

// WriteTimelineText renders the running order as an aligned, optionally colored list.
func WriteTimelineText(w io.Writer, v TimelineView, opts TextOptions) error {
	width := opts.Width
	if width <= 0 {
		width = 72
	}
	profile := termenv.Ascii
	if opts.Color {
		profile = termenv.EnvColorProfile()
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)

	header := r.NewStyle().Bold(true)
	stepStyle := r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"})
	timeStyle := r.NewStyle().Width(6)
	pinStyle := r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"})
	dimStyle := r.NewStyle().Faint(true)

	var b strings.Builder
	start := timecode.FormatMinutes(v.Event.AnchorMinutes())
	title := ansi.Truncate(v.Event.Title, width-16, "…")
	fmt.Fprintf(&b, "%s  %s-%s\n", header.Render(title), start, v.EndsAt)

	// time(6) + pin(2) + title + duration(6)
	titleWidth := width - 14
	if titleWidth < 8 {
		titleWidth = 8
	}
	for _, s := range v.Timeline.Steps {
		b.WriteString("\n")
		b.WriteString(stepStyle.Render(strings.ToUpper(ansi.Truncate(s.Title, width, "…"))))
		b.WriteString("\n")
		if len(s.Items) == 0 {
			b.WriteString(dimStyle.Render("  (empty)"))
			b.WriteString("\n")
			continue
		}
		for _, it := range s.Items {
			pin := "  "
			if strings.TrimSpace(it.ExplicitTime) != "" {
				pin = pinStyle.Render(pinGlyph) + " "
			}
			line := ansi.Truncate(it.Title, titleWidth, "…")
			if it.Subtitle != "" {
				line += dimStyle.Render(" · " + ansi.Truncate(it.Subtitle, max(titleWidth-ansi.StringWidth(line)-3, 0), "…"))
			}
			dur := ""
			if it.DurationMinutes > 0 {
				dur = fmt.Sprintf("%dm", it.DurationMinutes)
			}
			pad := titleWidth - ansi.StringWidth(line)
			if pad < 1 {
				pad = 1
			}
			fmt.Fprintf(&b, "%s%s%s%s%6s\n", timeStyle.Render(it.InferredTime), pin, line, strings.Repeat(" ", pad), dur)
			if len(it.Participants) > 0 {
				b.WriteString(dimStyle.Render("        " + ansi.Truncate(strings.Join(it.Participants, ", "), titleWidth, "…")))
				b.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
