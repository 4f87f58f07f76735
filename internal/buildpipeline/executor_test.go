package buildpipeline

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"conswol/internal/diag"
	"conswol/internal/matcher"
	"conswol/internal/trace"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func gccMatcher() *matcher.Matcher {
	return matcher.MustCompile(matcher.Spec{
		Pattern:       `(\S+):(\d+):(\d+): (\w+): (.*)`,
		FileGroup:     1,
		LineGroup:     2,
		ColGroup:      3,
		SeverityGroup: 4,
	})
}

func shell(script string) CommandConfig {
	return CommandConfig{Command: "sh", Args: []string{"-c", script}}
}

func finished(t *testing.T, st State) Result {
	t.Helper()
	f, ok := st.(Finished)
	if !ok {
		t.Fatalf("state = %T (%v), want Finished", st, st)
	}
	return f.Result
}

func TestStartEndToEnd(t *testing.T) {
	requireShell(t)
	h := Start(context.Background(), shell("echo err.c:3:5: error: bad"), gccMatcher())

	var states []State
	for {
		st, status := h.Poll()
		if status == PollClosed {
			break
		}
		if status == PollState {
			states = append(states, st)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	if len(states) != 2 {
		t.Fatalf("got %d transitions, want 2: %v", len(states), states)
	}
	if _, ok := states[0].(InProgress); !ok {
		t.Fatalf("first transition = %T, want InProgress", states[0])
	}
	res := finished(t, states[1])
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	want := diag.Diagnostic{
		Severity:  diag.SevError,
		File:      "err.c",
		Line:      3,
		Column:    5,
		Content:   "err.c:3:5: error: bad\n",
		HasFile:   true,
		HasLine:   true,
		HasColumn: true,
	}
	if d != want {
		t.Fatalf("diagnostic = %+v, want %+v", d, want)
	}
	if Attempt(states[0]) != h.ID || Attempt(states[1]) != h.ID {
		t.Fatalf("attempt ids do not match handle %q", h.ID)
	}
}

func TestSpawnFailureIsInvocationFailed(t *testing.T) {
	st := Start(context.Background(), CommandConfig{Command: "/nonexistent-binary"}, nil).Wait()
	failed, ok := st.(InvocationFailed)
	if !ok {
		t.Fatalf("final state = %T, want InvocationFailed", st)
	}
	if !errors.Is(failed.Err, ErrSpawn) {
		t.Fatalf("error %v is not marked ErrSpawn", failed.Err)
	}

	if _, ok := Run(context.Background(), CommandConfig{}, nil).(InvocationFailed); !ok {
		t.Fatal("empty command should fail to spawn")
	}
}

func TestStdoutPrecedesStderr(t *testing.T) {
	requireShell(t)
	script := "echo b.c:1:1: error: from stderr >&2; echo a.c:2:2: warning: from stdout"
	res := finished(t, Run(context.Background(), shell(script), gccMatcher()))
	if len(res.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(res.Diagnostics))
	}
	if res.Diagnostics[0].File != "a.c" || res.Diagnostics[1].File != "b.c" {
		t.Fatalf("order = %s, %s; want stdout (a.c) before stderr (b.c)",
			res.Diagnostics[0].File, res.Diagnostics[1].File)
	}
}

func TestExitCodes(t *testing.T) {
	requireShell(t)
	res := finished(t, Run(context.Background(), shell("echo nothing; exit 3"), gccMatcher()))
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %d", len(res.Diagnostics))
	}

	res = finished(t, Run(context.Background(), shell("kill -9 $$"), nil))
	if res.ExitCode != ExitUnknown {
		t.Fatalf("signalled exit code = %d, want %d", res.ExitCode, ExitUnknown)
	}
}

func TestUndecodableOutputDegradesToPlaceholder(t *testing.T) {
	requireShell(t)
	res := finished(t, Run(context.Background(), shell(`printf '\377\376'; exit 1`), gccMatcher()))
	if res.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", res.ExitCode)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Content != PlaceholderContent {
		t.Fatalf("diagnostics = %+v, want placeholder", res.Diagnostics)
	}
}

func TestWorkingDirAndEnv(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	cfg := CommandConfig{
		WorkingDir: dir,
		Command:    "sh",
		Args:       []string{"-c", `pwd; echo "$CONSWOL_TEST_VALUE"`},
		Env:        []string{"CONSWOL_TEST_VALUE=42"},
	}
	res := finished(t, Run(context.Background(), cfg, nil))
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want dump", len(res.Diagnostics))
	}
	lines := strings.Split(strings.TrimSpace(res.Diagnostics[0].Content), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected output %q", res.Diagnostics[0].Content)
	}
	wantDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	gotDir, err := filepath.EvalSymlinks(lines[0])
	if err != nil {
		t.Fatal(err)
	}
	if gotDir != wantDir {
		t.Fatalf("pwd = %q, want %q", gotDir, wantDir)
	}
	if lines[1] != "42" {
		t.Fatalf("env value = %q, want 42", lines[1])
	}
	if len(res.Phases) != 3 {
		t.Fatalf("phases = %+v, want spawn, wait, extract", res.Phases)
	}
}

func TestPollIsNonBlocking(t *testing.T) {
	ch := make(chan State, 1)
	h := NewHandle("manual", ch)
	if st, status := h.Poll(); status != PollEmpty || st != nil {
		t.Fatalf("Poll on idle handle = %v, %v", st, status)
	}
	ch <- InProgress{Attempt: "manual"}
	if st, status := h.Poll(); status != PollState || !IsInProgress(st) {
		t.Fatalf("Poll = %v, %v; want InProgress", st, status)
	}
	close(ch)
	if _, status := h.Poll(); status != PollClosed {
		t.Fatalf("Poll after close = %v, want PollClosed", status)
	}
}

func TestBuildIsTraced(t *testing.T) {
	requireShell(t)
	ring := trace.NewRingTracer(32, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	finished(t, Run(ctx, shell("echo x.c:1:1: error: y"), gccMatcher()))

	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Kind.String()+":"+ev.Name)
	}
	got := strings.Join(names, " ")
	for _, want := range []string{"begin:build", "begin:extract", "end:extract", "end:build"} {
		if !strings.Contains(got, want) {
			t.Fatalf("trace %q missing %q", got, want)
		}
	}
}

func TestCommandConfigClone(t *testing.T) {
	orig := CommandConfig{Command: "make", Args: []string{"-k"}, Env: []string{"A=1"}}
	cp := orig.Clone()
	cp.Args[0] = "-j"
	cp.Env[0] = "A=2"
	if orig.Args[0] != "-k" || orig.Env[0] != "A=1" {
		t.Fatal("Clone shares backing arrays")
	}
	if orig.Dir() != DefaultWorkingDir {
		t.Fatalf("Dir() = %q, want default", orig.Dir())
	}
	if orig.String() != "make -k" {
		t.Fatalf("String() = %q", orig.String())
	}
}

func TestDiagnosticsOfState(t *testing.T) {
	items := []diag.Diagnostic{{Content: "x"}}
	cases := []struct {
		state State
		want  int
	}{
		{NoBuild{}, 0},
		{InProgress{}, 0},
		{InvocationFailed{}, 0},
		{Finished{Result: Result{Diagnostics: items}}, 1},
	}
	for _, tc := range cases {
		if got := len(Diagnostics(tc.state)); got != tc.want {
			t.Errorf("Diagnostics(%v) len = %d, want %d", tc.state, got, tc.want)
		}
	}
}
