package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"churchplan/internal/model"
	"churchplan/internal/plan"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// cliEnv isolates config and data for one test.
func cliEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("CHURCHPLAN_CONFIG_DIR", t.TempDir())
	t.Setenv("CHURCHPLAN_DIR", "")
	t.Setenv("CHURCHPLAN_EVENT", "")
	t.Setenv("CHURCHPLAN_FORMAT", "")
	t.Setenv("CHURCHPLAN_LOG_LEVEL", "")
	return t.TempDir()
}

func mustRun(t *testing.T, args ...string) []byte {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: churchplan %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	return stdout
}

type editEnvelope struct {
	Data struct {
		Event    model.Event    `json:"event"`
		Timeline model.Timeline `json:"timeline"`
		EndsAt   string         `json:"endsAt"`
	} `json:"data"`
	Meta editMeta `json:"meta"`
}

func decodeEdit(t *testing.T, b []byte) editEnvelope {
	t.Helper()
	var env editEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, b)
	}
	return env
}

func createEvent(t *testing.T, dir string) string {
	t.Helper()
	out := mustRun(t, "--dir", dir, "events", "create", "--title", "Culto", "--starts", "2025-03-09 19:00", "--use")
	var env struct {
		Data model.Event `json:"data"`
	}
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if env.Data.ID == "" {
		t.Fatalf("expected event id; got %s", out)
	}
	return env.Data.ID
}

func inferred(tl model.Timeline) []string {
	var out []string
	for _, it := range tl.Sequence() {
		out = append(out, it.Title+"@"+it.InferredTime)
	}
	return out
}

func TestCLITimelineFlow(t *testing.T) {
	dir := cliEnv(t)
	mustRun(t, "--dir", dir, "init")
	createEvent(t, dir)

	env := decodeEdit(t, mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Abertura"))
	if !env.Meta.Changed || env.Meta.Revision != 1 || env.Meta.BatchID == "" {
		t.Fatalf("unexpected meta: %+v", env.Meta)
	}
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s2", "Palavra")
	mustRun(t, "--dir", dir, "items", "add", "s1", "Abertura", "--id", "a", "--duration", "5")
	mustRun(t, "--dir", dir, "items", "add", "s1", "Oferta", "--id", "b", "--time", "1920", "--duration", "10")
	env = decodeEdit(t, mustRun(t, "--dir", dir, "items", "add", "s2", "Pregação", "--id", "c", "--duration", "30", "--participant", "Pr. João"))

	want := []string{"Abertura@19:00", "Oferta@19:20", "Pregação@19:30"}
	if got := inferred(env.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("inferred: got %v want %v", got, want)
	}
	if env.Data.EndsAt != "20:00" {
		t.Fatalf("endsAt: got %q", env.Data.EndsAt)
	}

	// A fresh process sees the persisted state.
	var show struct {
		Data struct {
			Timeline model.Timeline `json:"timeline"`
		} `json:"data"`
	}
	out := mustRun(t, "--dir", dir, "timeline", "show")
	if err := json.Unmarshal(out, &show); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got := inferred(show.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("reloaded: got %v want %v", got, want)
	}
	if show.Data.Timeline.Revision != 5 {
		t.Fatalf("revision: got %d want 5", show.Data.Timeline.Revision)
	}

	// Clearing the pin lets Oferta follow Abertura.
	env = decodeEdit(t, mustRun(t, "--dir", dir, "items", "edit", "b", "--clear-time"))
	want = []string{"Abertura@19:00", "Oferta@19:05", "Pregação@19:15"}
	if got := inferred(env.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("after clear: got %v want %v", got, want)
	}

	// Moving the last item of s1 down crosses into s2.
	env = decodeEdit(t, mustRun(t, "--dir", dir, "items", "move", "b", "down"))
	if ids := env.Data.Timeline.Steps[1].Items; len(ids) != 2 || ids[0].ID != "b" {
		t.Fatalf("expected b first in s2; got %+v", env.Data.Timeline.Steps[1])
	}

	// Moving the very first item up is a no-op.
	env = decodeEdit(t, mustRun(t, "--dir", dir, "items", "move", "a", "up"))
	if env.Meta.Changed || env.Meta.Upserts != 0 {
		t.Fatalf("expected no-op; got %+v", env.Meta)
	}

	// Moving the event start shifts every unpinned item.
	env = decodeEdit(t, mustRun(t, "--dir", dir, "events", "set-start", "18:30"))
	want = []string{"Abertura@18:30", "Oferta@18:35", "Pregação@18:45"}
	if got := inferred(env.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("after set-start: got %v want %v", got, want)
	}
	if env.Data.Event.StartsAt.Format("2006-01-02") != "2025-03-09" {
		t.Fatalf("expected date to be kept; got %v", env.Data.Event.StartsAt)
	}
}

func TestCLIStepDeleteAndReorder(t *testing.T) {
	dir := cliEnv(t)
	createEvent(t, dir)
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Louvor")
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s2", "Avisos")
	for _, id := range []string{"x", "y", "z"} {
		mustRun(t, "--dir", dir, "items", "add", "s1", "Song "+id, "--id", id, "--duration", "4")
	}

	env := decodeEdit(t, mustRun(t, "--dir", dir, "items", "reorder", "s1", "z", "x", "y"))
	want := []string{"Song z@19:00", "Song x@19:04", "Song y@19:08"}
	if got := inferred(env.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("reorder: got %v want %v", got, want)
	}

	env = decodeEdit(t, mustRun(t, "--dir", dir, "steps", "move", "s2", "up"))
	if env.Data.Timeline.Steps[0].ID != "s2" {
		t.Fatalf("expected s2 first; got %+v", env.Data.Timeline.Steps)
	}

	mustRun(t, "--dir", dir, "steps", "rename", "s1", "Louvor", "e", "Adoração")
	env = decodeEdit(t, mustRun(t, "--dir", dir, "steps", "delete", "s1"))
	if len(env.Data.Timeline.Steps) != 1 || len(env.Data.Timeline.Sequence()) != 0 {
		t.Fatalf("expected only s2 left; got %+v", env.Data.Timeline.Steps)
	}

	// Deleted items do not come back on reload.
	var show struct {
		Data struct {
			Timeline model.Timeline `json:"timeline"`
		} `json:"data"`
	}
	out := mustRun(t, "--dir", dir, "timeline", "show")
	if err := json.Unmarshal(out, &show); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(show.Data.Timeline.Steps) != 1 || show.Data.Timeline.Steps[0].Title != "Avisos" {
		t.Fatalf("unexpected reload: %+v", show.Data.Timeline)
	}
}

func TestCLIErrors(t *testing.T) {
	dir := cliEnv(t)

	if _, stderr, err := runCLI(t, []string{"--dir", dir, "timeline", "show"}); err == nil || !strings.Contains(string(stderr), "no current event") {
		t.Fatalf("expected no current event error; err=%v stderr=%s", err, stderr)
	}

	createEvent(t, dir)
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Abertura")

	cases := [][]string{
		{"items", "add", "s1", "Bad", "--time", "19:75"},
		{"items", "add", "missing", "Title"},
		{"items", "add", "s1", "Neg", "--duration", "-3"},
		{"items", "edit", "nope", "--title", "X"},
		{"steps", "move", "s1", "sideways"},
		{"events", "set-start", "7pm"},
	}
	for _, c := range cases {
		args := append([]string{"--dir", dir}, c...)
		if _, _, err := runCLI(t, args); err == nil {
			t.Fatalf("expected error for %v", c)
		}
	}

	mustRun(t, "--dir", dir, "items", "add", "s1", "Ok", "--id", "ok")
	if _, stderr, err := runCLI(t, []string{"--dir", dir, "items", "edit", "ok"}); err == nil || !strings.Contains(string(stderr), "nothing to edit") {
		t.Fatalf("expected nothing to edit; err=%v stderr=%s", err, stderr)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "items", "edit", "ok", "--time", "19:00", "--clear-time"}); err == nil {
		t.Fatalf("expected conflicting flags error")
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "--log-level", "loud", "events", "list"}); err == nil {
		t.Fatalf("expected invalid log level error")
	}
}

func TestCLITextOutput(t *testing.T) {
	dir := cliEnv(t)
	createEvent(t, dir)
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Abertura")
	mustRun(t, "--dir", dir, "items", "add", "s1", "Oferta", "--time", "19:20", "--duration", "10")

	out := string(mustRun(t, "--dir", dir, "--format", "text", "timeline", "show", "--color", "never"))
	for _, want := range []string{"Culto  19:00-19:30", "ABERTURA", "19:20", "Oferta", "10m"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes:\n%s", out)
	}
}

func TestCLIImportExport(t *testing.T) {
	dir := cliEnv(t)
	src := filepath.Join("..", "plan", "testdata", "culto.yaml")

	env := decodeEdit(t, mustRun(t, "--dir", dir, "import", src, "--use"))
	want := []string{"Abertura@19:00", "Oferta@19:20", "Pregação@19:30"}
	if got := inferred(env.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("import: got %v want %v", got, want)
	}
	if len(env.Data.Timeline.Steps) != 3 || env.Meta.BatchID == "" {
		t.Fatalf("unexpected import result: %+v", env)
	}

	exported := filepath.Join(t.TempDir(), "out.yaml")
	mustRun(t, "--dir", dir, "timeline", "export", "-o", exported)
	p, err := plan.Load(exported)
	if err != nil {
		t.Fatalf("load export: %v", err)
	}
	if p.Title != "Culto de Domingo" || p.Starts != "2025-03-09 19:00" || len(p.Steps) != 3 {
		t.Fatalf("unexpected export: %+v", p)
	}
	if got := p.Steps[0].Items[1]; got.Time != "19:20" || got.Duration != 10 {
		t.Fatalf("expected pinned Oferta in export; got %+v", got)
	}
	if got := p.Steps[1].Items[0].Participants; len(got) != 1 || got[0] != "Pr. João" {
		t.Fatalf("participants: got %v", got)
	}

	// Re-importing the export reproduces the same schedule.
	env = decodeEdit(t, mustRun(t, "--dir", dir, "import", exported))
	if got := inferred(env.Data.Timeline); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("re-import: got %v want %v", got, want)
	}

	var list struct {
		Data []model.Event `json:"data"`
	}
	out := mustRun(t, "--dir", dir, "events", "list")
	if err := json.Unmarshal(out, &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("expected 2 events; got %d", len(list.Data))
	}
}

func showTimeline(t *testing.T, args ...string) model.Timeline {
	t.Helper()
	var show struct {
		Data struct {
			Timeline model.Timeline `json:"timeline"`
		} `json:"data"`
	}
	out := mustRun(t, append(args, "timeline", "show")...)
	if err := json.Unmarshal(out, &show); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	return show.Data.Timeline
}

func TestCLIReusesDeletedIDs(t *testing.T) {
	dir := cliEnv(t)
	first := createEvent(t, dir)
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Abertura")
	mustRun(t, "--dir", dir, "items", "add", "s1", "Oração", "--id", "a", "--duration", "5")
	mustRun(t, "--dir", dir, "steps", "delete", "s1")

	env := decodeEdit(t, mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Louvor"))
	if len(env.Meta.SyncErrors) != 0 {
		t.Fatalf("unexpected sync errors: %v", env.Meta.SyncErrors)
	}
	mustRun(t, "--dir", dir, "items", "add", "s1", "Hino", "--id", "a", "--duration", "4")

	tl := showTimeline(t, "--dir", dir)
	if len(tl.Steps) != 1 || tl.Steps[0].Title != "Louvor" || len(tl.Steps[0].Items) != 1 || tl.Steps[0].Items[0].Title != "Hino" {
		t.Fatalf("reused ids not persisted: %+v", tl)
	}

	// A second event can use the same ids without touching the first.
	second := createEvent(t, dir)
	mustRun(t, "--dir", dir, "steps", "add", "--id", "s1", "Abertura")
	mustRun(t, "--dir", dir, "items", "add", "s1", "Boas-vindas", "--id", "a")

	tl = showTimeline(t, "--dir", dir, "--event", second)
	if len(tl.Steps) != 1 || tl.Steps[0].Title != "Abertura" || tl.Steps[0].Items[0].Title != "Boas-vindas" {
		t.Fatalf("second event: %+v", tl)
	}
	tl = showTimeline(t, "--dir", dir, "--event", first)
	if len(tl.Steps) != 1 || tl.Steps[0].Title != "Louvor" || tl.Steps[0].Items[0].Title != "Hino" {
		t.Fatalf("first event changed: %+v", tl)
	}
}

func TestCLIImportFailureLeavesNoEvent(t *testing.T) {
	dir := cliEnv(t)
	src := filepath.Join(t.TempDir(), "bad.yaml")
	bad := "title: Bad\nstarts: \"2025-03-09 19:00\"\nsteps:\n  - title: Abertura\n    items:\n      - title: Oração\n        time: \"25h\"\n"
	if err := os.WriteFile(src, []byte(bad), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "import", src, "--use"}); err == nil {
		t.Fatalf("expected import to fail")
	}

	var list struct {
		Data []model.Event `json:"data"`
	}
	out := mustRun(t, "--dir", dir, "events", "list")
	if err := json.Unmarshal(out, &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list.Data) != 0 {
		t.Fatalf("expected no events after failed import; got %+v", list.Data)
	}
}

func TestCLISetStartKeepsDate(t *testing.T) {
	dir := cliEnv(t)
	createEvent(t, dir)

	for _, bad := range []string{"24:00", "25:00", "2500"} {
		if _, _, err := runCLI(t, []string{"--dir", dir, "events", "set-start", bad}); err == nil {
			t.Fatalf("expected set-start %s to fail", bad)
		}
	}
	env := decodeEdit(t, mustRun(t, "--dir", dir, "events", "set-start", "23:59"))
	if got := env.Data.Event.StartsAt.Format("2006-01-02 15:04"); got != "2025-03-09 23:59" {
		t.Fatalf("startsAt: got %s", got)
	}
}
