package plan

import (
	"reflect"
	"testing"

	"churchplan/internal/model"
)

func TestLoadAndApply(t *testing.T) {
	t.Parallel()

	p, err := Load("testdata/culto.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	starts, err := p.StartsAt()
	if err != nil {
		t.Fatalf("starts: %v", err)
	}
	ev := model.Event{ID: "evt-1", Title: p.Title, StartsAt: starts}

	res, err := p.Apply(model.Timeline{EventID: ev.ID}, ev.AnchorMinutes())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	tl := res.Timeline
	if len(tl.Steps) != 3 || len(tl.Steps[2].Items) != 0 {
		t.Fatalf("unexpected shape: %+v", tl.Steps)
	}
	var got []string
	for _, it := range tl.Sequence() {
		got = append(got, it.InferredTime)
	}
	if want := []string{"19:00", "19:20", "19:30"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("times = %v; want %v", got, want)
	}
	for _, u := range res.Upserts {
		if u.Revision != tl.Revision {
			t.Fatalf("upsert revision %d; want %d", u.Revision, tl.Revision)
		}
		if u.Kind != model.UpsertStepCreate && u.Kind != model.UpsertItemCreate {
			t.Fatalf("import into an empty timeline should only create; got %s", u.Kind)
		}
	}
	if len(res.Upserts) != 6 {
		t.Fatalf("expected 6 creates; got %d", len(res.Upserts))
	}

	// Export and re-parse yields the same plan (pins normalized).
	out, err := FromTimeline(ev, tl).Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, out)
	}
	if back.Steps[0].Items[1].Time != "19:20" {
		t.Fatalf("pin not exported: %+v", back.Steps[0].Items[1])
	}
	if back.Starts != "2025-03-09 19:00" || len(back.Steps) != 3 {
		t.Fatalf("unexpected round trip: %+v", back)
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown key":  "title: X\nstarts: \"2025-01-01 10:00\"\nsteps: []\ncolor: red\n",
		"no title":     "starts: \"2025-01-01 10:00\"\n",
		"bad starts":   "title: X\nstarts: tomorrow\n",
		"bad duration": "title: X\nstarts: \"2025-01-01 10:00\"\nsteps:\n  - title: A\n    items:\n      - title: B\n        duration: long\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApply_InvalidPin(t *testing.T) {
	t.Parallel()

	p := Plan{Title: "X", Starts: "2025-01-01 10:00", Steps: []Step{{Title: "A", Items: []Item{{Title: "B", Time: "25h"}}}}}
	if _, err := p.Apply(model.Timeline{EventID: "evt-1"}, 600); err == nil {
		t.Fatalf("expected invalid time error")
	}
}
