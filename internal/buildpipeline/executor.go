package buildpipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"conswol/internal/diag"
	"conswol/internal/matcher"
	"conswol/internal/observ"
	"conswol/internal/trace"
)

// PollStatus is the outcome of a non-blocking Handle.Poll.
type PollStatus uint8

const (
	// PollEmpty means no transition is available yet.
	PollEmpty PollStatus = iota
	// PollState means a transition was received.
	PollState
	// PollClosed means the attempt's channel is closed.
	PollClosed
)

// Handle delivers the state transitions of one build attempt.
type Handle struct {
	ID     string
	states <-chan State
}

// NewHandle wraps an existing transition channel.
func NewHandle(id string, states <-chan State) *Handle {
	return &Handle{ID: id, states: states}
}

// Poll returns the next transition without blocking.
func (h *Handle) Poll() (State, PollStatus) {
	select {
	case st, ok := <-h.states:
		if !ok {
			return nil, PollClosed
		}
		return st, PollState
	default:
		return nil, PollEmpty
	}
}

// Wait blocks until the attempt's channel closes and returns the last state
// received, or nil if none was sent.
func (h *Handle) Wait() State {
	var last State
	for st := range h.states {
		last = st
	}
	return last
}

// Start launches cmd on its own goroutine. The returned handle receives
// InProgress followed by exactly one of InvocationFailed or Finished, after
// which its channel is closed. The child process is never killed: ctx only
// carries the tracer.
func Start(ctx context.Context, cmd CommandConfig, m *matcher.Matcher) *Handle {
	// InProgress + terminal state: the goroutine never blocks on a slow reader.
	ch := make(chan State, 2)
	h := NewHandle(uuid.NewString(), ch)
	cfg := cmd.Clone()
	go func() {
		defer close(ch)
		execute(ctx, h.ID, cfg, m, ChannelSink{Ch: ch})
	}()
	return h
}

// Run executes cmd synchronously and returns its terminal state.
func Run(ctx context.Context, cmd CommandConfig, m *matcher.Matcher) State {
	var last State = NoBuild{}
	execute(ctx, uuid.NewString(), cmd.Clone(), m, FuncSink(func(st State) { last = st }))
	return last
}

func execute(ctx context.Context, attempt string, cfg CommandConfig, m *matcher.Matcher, sink Sink) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeBuild, "build", trace.ParentSpan(ctx))
	span.WithExtra("attempt", attempt).WithExtra("command", cfg.String()).WithExtra("dir", cfg.Dir())

	sink.OnState(InProgress{Attempt: attempt})

	started := time.Now()
	timer := observ.NewTimer()
	out, exitCode, err := capture(tracer, span.ID(), cfg, timer)
	if err != nil {
		span.End(err.Error())
		sink.OnState(InvocationFailed{Attempt: attempt, Err: err})
		return
	}

	idx := timer.Begin("extract")
	extractSpan := trace.Begin(tracer, trace.ScopeExtract, "extract", span.ID())
	diags := extract(out, m)
	extractSpan.WithExtra("bytes", strconv.Itoa(len(out))).End(fmt.Sprintf("%d diagnostics", len(diags)))
	timer.End(idx, fmt.Sprintf("%d diagnostics", len(diags)))

	span.WithExtra("exit", strconv.Itoa(exitCode)).End("finished")
	sink.OnState(Finished{
		Attempt: attempt,
		Result: Result{
			ExitCode:    exitCode,
			Diagnostics: diags,
			Elapsed:     time.Since(started),
			Phases:      timer.Phases(),
		},
	})
}

// capture runs the process and returns stdout followed by stderr.
// A non-nil error means the process could not be started.
func capture(tracer trace.Tracer, parent uint64, cfg CommandConfig, timer *observ.Timer) ([]byte, int, error) {
	spawnIdx := timer.Begin("spawn")
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir()
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ExitUnknown, errors.Mark(errors.Wrap(err, "stdout pipe"), ErrSpawn)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, ExitUnknown, errors.Mark(errors.Wrap(err, "stderr pipe"), ErrSpawn)
	}
	if err := cmd.Start(); err != nil {
		timer.End(spawnIdx, "failed")
		return nil, ExitUnknown, errors.Mark(errors.Wrapf(err, "start %q in %s", cfg.Command, cmd.Dir), ErrSpawn)
	}
	timer.End(spawnIdx, "pid "+strconv.Itoa(cmd.Process.Pid))

	waitIdx := timer.Begin("wait")
	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return errors.Wrap(err, "read stdout")
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return errors.Wrap(err, "read stderr")
	})
	// Pipes must be drained before Wait closes them.
	if err := g.Wait(); err != nil {
		trace.Point(tracer, trace.ScopeExtract, "capture", err.Error(), parent)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			trace.Point(tracer, trace.ScopeExtract, "wait", err.Error(), parent)
		}
	}
	exitCode := exitStatus(cmd.ProcessState)
	timer.End(waitIdx, "exit "+strconv.Itoa(exitCode))

	out := make([]byte, 0, stdout.Len()+stderr.Len())
	out = append(out, stdout.Bytes()...)
	out = append(out, stderr.Bytes()...)
	return out, exitCode, nil
}

func exitStatus(ps *os.ProcessState) int {
	if ps == nil {
		return ExitUnknown
	}
	// ExitCode is -1 when the process was terminated by a signal.
	return ps.ExitCode()
}

// extract never fails: undecodable output degrades to a placeholder so the
// exit code still reaches the caller.
func extract(out []byte, m *matcher.Matcher) []diag.Diagnostic {
	text, err := matcher.Decode(out)
	if err != nil {
		return []diag.Diagnostic{{Content: PlaceholderContent}}
	}
	return m.Extract(text)
}
