package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"conswol/internal/buildpipeline"
	"conswol/internal/diag"
	"conswol/internal/matcher"
	"conswol/internal/project"
	"conswol/internal/session"
)

type manualStarter struct {
	ch    chan buildpipeline.State
	calls int
}

func (s *manualStarter) Start(context.Context, buildpipeline.CommandConfig, *matcher.Matcher) *buildpipeline.Handle {
	s.calls++
	s.ch = make(chan buildpipeline.State, 2)
	return buildpipeline.NewHandle("0123456789abcdef", s.ch)
}

func newTestModel(t *testing.T) (*Model, *manualStarter) {
	t.Helper()
	build := buildpipeline.CommandConfig{Command: "make", Args: []string{"-k"}}
	p := &project.Project{Dir: "/src/demo", Build: &build}
	st := &manualStarter{}
	loop := session.New(session.Config{Build: p.Build, Starter: st})
	return NewModel(context.Background(), p, loop, time.Millisecond), st
}

func press(m *Model, msg tea.KeyMsg) {
	m.Update(msg)
}

func tick(m *Model) tea.Cmd {
	_, cmd := m.Update(tickMsg(time.Now()))
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyLookup(t *testing.T) {
	km := defaultKeyMap()
	tests := []struct {
		msg  tea.KeyMsg
		want session.Key
	}{
		{runes("q"), session.KeyQuit},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, session.KeyQuit},
		{runes("b"), session.KeyBuild},
		{tea.KeyMsg{Type: tea.KeyF5}, session.KeyBuild},
		{runes("k"), session.KeyUp},
		{tea.KeyMsg{Type: tea.KeyUp}, session.KeyUp},
		{runes("j"), session.KeyDown},
		{tea.KeyMsg{Type: tea.KeyDown}, session.KeyDown},
		{runes("x"), session.KeyNone},
		{tea.KeyMsg{Type: tea.KeyEnter}, session.KeyNone},
	}
	for _, tt := range tests {
		if got := km.lookup(tt.msg); got != tt.want {
			t.Errorf("lookup(%q) = %v, want %v", tt.msg.String(), got, tt.want)
		}
	}
}

func TestModelKeysApplyOnTick(t *testing.T) {
	m, starter := newTestModel(t)
	press(m, runes("b"))
	if starter.calls != 0 {
		t.Fatal("key must not be applied before the next cycle")
	}
	tick(m)
	if starter.calls != 1 || !buildpipeline.IsInProgress(m.State().Build) {
		t.Fatalf("calls=%d state=%#v", starter.calls, m.State().Build)
	}
	if !strings.HasPrefix(m.Status(), "in progress 01234567") {
		t.Fatalf("status = %q", m.Status())
	}
	if !strings.Contains(m.View(), "building (attempt 01234567)") {
		t.Fatalf("view while building:\n%s", m.View())
	}

	press(m, runes("b"))
	tick(m)
	if starter.calls != 1 || m.State().Rejected != 1 {
		t.Fatalf("second build request: calls=%d rejected=%d", starter.calls, m.State().Rejected)
	}

	starter.ch <- buildpipeline.Finished{
		Attempt: "0123456789abcdef",
		Result: buildpipeline.Result{
			ExitCode: 2,
			Diagnostics: []diag.Diagnostic{
				{Severity: diag.SevError, File: "a.c", Line: 3, Column: 5, HasFile: true, HasLine: true, HasColumn: true, Content: "a.c:3:5: error: bad\n"},
				{Severity: diag.SevWarning, File: "b.c", HasFile: true, Content: "b.c: warning: meh\n"},
			},
		},
	}
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	tick(m)
	sel := m.State().Selection
	if !sel.Valid || sel.Index != 1 {
		t.Fatalf("selection = %+v, want index 1", sel)
	}
	view := m.View()
	for _, want := range []string{"exit 2", "1 errors", "1 warnings", "a.c:3:5", "b.c: warning: meh"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if m.Status() != "finished exit=2 diagnostics=2" {
		t.Fatalf("status = %q", m.Status())
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	cmd := tick(m)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if !m.State().Quit {
		t.Fatal("state should record quit")
	}
}

func TestViewStates(t *testing.T) {
	km := defaultKeyMap()
	base := frame{keys: km, width: 80, height: 24, spinner: "*"}

	f := base
	f.state = session.Initial()
	if !strings.Contains(render(f), "Project is not built!") {
		t.Fatalf("NoBuild view:\n%s", render(f))
	}

	f.state.Build = buildpipeline.InvocationFailed{Err: buildpipeline.ErrSpawn}
	out := render(f)
	if !strings.Contains(out, "build could not be started") || !strings.Contains(out, buildpipeline.ErrSpawn.Error()) {
		t.Fatalf("InvocationFailed view:\n%s", out)
	}

	f.state.Build = buildpipeline.Finished{Result: buildpipeline.Result{ExitCode: buildpipeline.ExitUnknown}}
	out = render(f)
	if !strings.Contains(out, "exit unknown") || !strings.Contains(out, "no diagnostics") {
		t.Fatalf("Finished view:\n%s", out)
	}

	f.state = session.Initial()
	f.state.Notice = session.ErrNoBuildCommand.Error()
	f.project = &project.Project{Dir: "/p"}
	out = render(f)
	if !strings.Contains(out, "no build command configured") || !strings.Contains(out, "(none)") {
		t.Fatalf("notice view:\n%s", out)
	}
	if !strings.Contains(out, "b build") || !strings.Contains(out, "q quit") {
		t.Fatalf("help line missing:\n%s", out)
	}
}

func TestWindowKeepsSelectionVisible(t *testing.T) {
	tests := []struct {
		sel        session.Selection
		n, rows    int
		start, end int
	}{
		{session.Selection{}, 3, 10, 0, 3},
		{session.Selection{Index: 0, Valid: true}, 20, 5, 0, 5},
		{session.Selection{Index: 4, Valid: true}, 20, 5, 0, 5},
		{session.Selection{Index: 5, Valid: true}, 20, 5, 1, 6},
		{session.Selection{Index: 19, Valid: true}, 20, 5, 15, 20},
		{session.Selection{Index: 2, Valid: true}, 20, 0, 2, 3},
	}
	for _, tt := range tests {
		start, end := window(tt.sel, tt.n, tt.rows)
		if start != tt.start || end != tt.end {
			t.Errorf("window(%+v, %d, %d) = [%d,%d), want [%d,%d)", tt.sel, tt.n, tt.rows, start, end, tt.start, tt.end)
		}
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		d    diag.Diagnostic
		want string
	}{
		{diag.Diagnostic{}, ""},
		{diag.Diagnostic{File: "a.c", HasFile: true}, "a.c"},
		{diag.Diagnostic{File: "a.c", HasFile: true, Line: 4, HasLine: true}, "a.c:4"},
		{diag.Diagnostic{File: "a.c", HasFile: true, Line: 4, HasLine: true, Column: 2, HasColumn: true}, "a.c:4:2"},
		{diag.Diagnostic{Line: 4, HasLine: true}, ""},
	}
	for _, tt := range tests {
		if got := location(&tt.d); got != tt.want {
			t.Errorf("location(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
	got := truncate("日本語テキスト", 7)
	if got != "日本..." || runewidth.StringWidth(got) != 7 {
		t.Fatalf("truncate wide = %q", got)
	}
}

func TestQuitSurvivesFullQueue(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < 100; i++ {
		press(m, runes("j"))
	}
	press(m, runes("q"))
	if cmd := tick(m); cmd == nil {
		t.Fatal("expected a command after quit")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.Quit after quit overflowed the queue")
	}
	if !m.State().Quit {
		t.Fatal("quit key was lost")
	}
}
