// Package plan reads and writes service plans as YAML so a running order can be
// authored in a text editor and imported in one go.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"churchplan/internal/model"
	"churchplan/internal/mutate"
	"churchplan/internal/timeline"

	"gopkg.in/yaml.v3"
)

const startsLayout = "2006-01-02 15:04"

type Plan struct {
	Title  string `yaml:"title"`
	Starts string `yaml:"starts"`
	Steps  []Step `yaml:"steps"`
}

type Step struct {
	Title string `yaml:"title"`
	Items []Item `yaml:"items,omitempty"`
}

type Item struct {
	Title        string   `yaml:"title"`
	Subtitle     string   `yaml:"subtitle,omitempty"`
	Time         string   `yaml:"time,omitempty"`
	Duration     int      `yaml:"duration,omitempty"`
	Participants []string `yaml:"participants,omitempty"`
}

// Parse decodes a plan, rejecting unknown keys so typos do not silently drop data.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, errors.New("plan title is required")
	}
	if _, err := p.StartsAt(); err != nil {
		return nil, err
	}
	return &p, nil
}

func Load(path string) (*Plan, error) {
	if path == "" {
		return nil, errors.New("plan path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (p Plan) StartsAt() (time.Time, error) {
	t, err := time.Parse(startsLayout, strings.TrimSpace(p.Starts))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid starts %q (expected YYYY-MM-DD HH:MM)", p.Starts)
	}
	return t, nil
}

// Apply appends the plan's steps and items to tl. The returned Result carries one set of
// upserts for the whole plan, stamped with the final revision.
func (p Plan) Apply(tl model.Timeline, anchorMinutes int) (mutate.Result, error) {
	cur := tl
	for si, s := range p.Steps {
		res, err := mutate.AddStep(cur, anchorMinutes, "", s.Title)
		if err != nil {
			return mutate.Result{}, fmt.Errorf("step %d: %w", si+1, err)
		}
		cur = res.Timeline
		stepID := cur.Steps[len(cur.Steps)-1].ID
		for ii, it := range s.Items {
			res, err := mutate.AddItem(cur, anchorMinutes, stepID, mutate.ItemInput{
				Title:           it.Title,
				Subtitle:        it.Subtitle,
				ExplicitTime:    it.Time,
				DurationMinutes: it.Duration,
				Participants:    it.Participants,
			})
			if err != nil {
				return mutate.Result{}, fmt.Errorf("step %d item %d: %w", si+1, ii+1, err)
			}
			cur = res.Timeline
		}
	}
	ups := timeline.Diff(tl, cur)
	if len(ups) == 0 {
		return mutate.Result{Timeline: tl}, nil
	}
	return mutate.Result{Timeline: cur, Changed: true, Upserts: ups}, nil
}

// FromTimeline exports an event's running order. Inferred times are not exported; only
// pins are, so re-importing reproduces the same schedule.
func FromTimeline(ev model.Event, tl model.Timeline) Plan {
	p := Plan{Title: ev.Title, Starts: ev.StartsAt.Format(startsLayout)}
	for _, s := range tl.Steps {
		ps := Step{Title: s.Title}
		for _, it := range s.Items {
			ps.Items = append(ps.Items, Item{
				Title:        it.Title,
				Subtitle:     it.Subtitle,
				Time:         it.ExplicitTime,
				Duration:     it.DurationMinutes,
				Participants: append([]string(nil), it.Participants...),
			})
		}
		p.Steps = append(p.Steps, ps)
	}
	return p
}

func (p Plan) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
