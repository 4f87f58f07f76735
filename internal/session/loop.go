package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"conswol/internal/buildpipeline"
	"conswol/internal/matcher"
	"conswol/internal/trace"
)

var (
	// ErrNoBuildCommand is reported when a build is requested without a build command.
	ErrNoBuildCommand = errors.New("no build command configured")
	// ErrBuildInProgress is reported when a build is requested while one is running.
	ErrBuildInProgress = errors.New("a build is already in progress")
)

// Starter launches one build attempt.
type Starter interface {
	Start(ctx context.Context, cmd buildpipeline.CommandConfig, m *matcher.Matcher) *buildpipeline.Handle
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(ctx context.Context, cmd buildpipeline.CommandConfig, m *matcher.Matcher) *buildpipeline.Handle

func (f StarterFunc) Start(ctx context.Context, cmd buildpipeline.CommandConfig, m *matcher.Matcher) *buildpipeline.Handle {
	return f(ctx, cmd, m)
}

// Config wires the loop to a project.
type Config struct {
	// Build is nil when the project has no build command.
	Build   *buildpipeline.CommandConfig
	Matcher *matcher.Matcher
	// Starter defaults to buildpipeline.Start.
	Starter Starter
}

// State is everything the loop owns between cycles.
type State struct {
	Build     buildpipeline.State
	Tracker   Tracker
	Selection Selection
	// Notice is a one-line message for the operator, cleared by the next build.
	Notice string
	Quit   bool
	// Rejected counts build requests ignored because a build was running.
	Rejected int
	// Started counts build attempts launched.
	Started int

	pending *buildpipeline.Handle
}

// Initial returns the state before any build.
func Initial() State {
	return State{Build: buildpipeline.NoBuild{}}
}

// Pending reports whether an attempt is outstanding.
func (s State) Pending() bool { return s.pending != nil }

// Loop reconciles key input and build transitions once per cycle.
type Loop struct {
	cfg Config
}

// New creates a Loop.
func New(cfg Config) *Loop {
	if cfg.Starter == nil {
		cfg.Starter = StarterFunc(buildpipeline.Start)
	}
	return &Loop{cfg: cfg}
}

// Step applies keys to st, recomputes the selection and absorbs at most one
// pending build transition. It never blocks.
func (l *Loop) Step(ctx context.Context, st State, keys []Key) State {
	tracer := trace.FromContext(ctx)
	if st.Build == nil {
		st.Build = buildpipeline.NoBuild{}
	}

	for _, k := range keys {
		trace.Point(tracer, trace.ScopeInput, "key", k.String(), trace.ParentSpan(ctx))
		switch k {
		case KeyQuit:
			st.Quit = true
			return st
		case KeyBuild:
			st = l.requestBuild(ctx, st)
		case KeyUp:
			st.Tracker.Up()
		case KeyDown:
			st.Tracker.Down()
		}
	}

	st.Selection = st.Tracker.Select(len(buildpipeline.Diagnostics(st.Build)))

	if st.pending != nil {
		var changed bool
		st, changed = absorb(st)
		if changed {
			trace.Point(tracer, trace.ScopeSession, "state", st.Build.String(), trace.ParentSpan(ctx))
			st.Selection = st.Tracker.Select(len(buildpipeline.Diagnostics(st.Build)))
		}
	}
	return st
}

func (l *Loop) requestBuild(ctx context.Context, st State) State {
	tracer := trace.FromContext(ctx)
	if buildpipeline.IsInProgress(st.Build) || st.pending != nil {
		st.Rejected++
		st.Notice = ErrBuildInProgress.Error()
		trace.Point(tracer, trace.ScopeSession, "build rejected", st.Notice, trace.ParentSpan(ctx))
		return st
	}
	if l.cfg.Build == nil {
		st.Notice = ErrNoBuildCommand.Error()
		trace.Point(tracer, trace.ScopeSession, "build ignored", st.Notice, trace.ParentSpan(ctx))
		return st
	}
	h := l.cfg.Starter.Start(ctx, l.cfg.Build.Clone(), l.cfg.Matcher)
	st.pending = h
	st.Build = buildpipeline.InProgress{Attempt: h.ID}
	st.Notice = ""
	st.Started++
	return st
}

// absorb takes at most one transition from the pending attempt.
func absorb(st State) (State, bool) {
	next, status := st.pending.Poll()
	switch status {
	case buildpipeline.PollState:
		st.Build = next
		if !buildpipeline.IsInProgress(next) {
			st.pending = nil
		}
		return st, true
	case buildpipeline.PollClosed:
		st.Build = buildpipeline.InvocationFailed{
			Attempt: st.pending.ID,
			Err:     buildpipeline.ErrAbandoned,
		}
		st.pending = nil
		return st, true
	}
	return st, false
}

// Renderer draws the loop state once per cycle.
type Renderer interface {
	Render(st State) error
}

// Run drives the loop until a quit key arrives or ctx is done: render, drain
// the queue, step, wait for the next tick.
func (l *Loop) Run(ctx context.Context, q *Queue, r Renderer, interval time.Duration) (State, error) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeSession, "session", trace.ParentSpan(ctx))
	ctx = trace.WithParent(ctx, span)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	st := Initial()
	for {
		if err := r.Render(st); err != nil {
			span.End(err.Error())
			return st, errors.Wrap(err, "render")
		}
		st = l.Step(ctx, st, q.Drain())
		if st.Quit {
			span.End("quit")
			return st, nil
		}
		select {
		case <-ctx.Done():
			span.End("cancelled")
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}
