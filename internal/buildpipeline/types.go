package buildpipeline

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"conswol/internal/diag"
	"conswol/internal/observ"
)

// DefaultWorkingDir is used when a command does not set one.
const DefaultWorkingDir = "./"

// ExitUnknown is reported when the process ended without an exit status,
// e.g. it was killed by a signal.
const ExitUnknown = -1

// PlaceholderContent replaces the diagnostics of a build whose output could
// not be decoded.
const PlaceholderContent = "<build output could not be decoded>"

var (
	// ErrSpawn marks failures to start the build process.
	ErrSpawn = errors.New("failed to start build command")
	// ErrAbandoned is reported when an attempt ends without a terminal state.
	ErrAbandoned = errors.New("build attempt ended without a result")
)

// CommandConfig describes one external command.
type CommandConfig struct {
	WorkingDir string
	Command    string
	Args       []string
	// Env holds extra KEY=VALUE pairs added to the inherited environment.
	Env []string
}

// Clone returns a deep copy so each invocation owns its arguments.
func (c CommandConfig) Clone() CommandConfig {
	out := c
	if c.Args != nil {
		out.Args = append([]string(nil), c.Args...)
	}
	if c.Env != nil {
		out.Env = append([]string(nil), c.Env...)
	}
	return out
}

// Dir returns the working directory, defaulting to DefaultWorkingDir.
func (c CommandConfig) Dir() string {
	if c.WorkingDir == "" {
		return DefaultWorkingDir
	}
	return c.WorkingDir
}

// String renders the command line for display.
func (c CommandConfig) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// Result is produced once per completed build attempt.
type Result struct {
	ExitCode    int
	Diagnostics []diag.Diagnostic
	Elapsed     time.Duration
	Phases      []observ.Phase
}

// State is the build lifecycle. The set of variants is closed:
// NoBuild, InProgress, InvocationFailed and Finished.
type State interface {
	isState()
	String() string
}

// NoBuild is the initial state before any build was requested.
type NoBuild struct{}

// InProgress means an attempt is running.
type InProgress struct {
	Attempt string
}

// InvocationFailed means the attempt could not produce a result.
type InvocationFailed struct {
	Attempt string
	Err     error
}

// Finished carries the result of a completed attempt.
type Finished struct {
	Attempt string
	Result  Result
}

func (NoBuild) isState()          {}
func (InProgress) isState()       {}
func (InvocationFailed) isState() {}
func (Finished) isState()         {}

func (NoBuild) String() string          { return "no build" }
func (InProgress) String() string       { return "in progress" }
func (InvocationFailed) String() string { return "invocation failed" }
func (Finished) String() string         { return "finished" }

// Diagnostics returns the diagnostic list implied by s: empty unless Finished.
func Diagnostics(s State) []diag.Diagnostic {
	if f, ok := s.(Finished); ok {
		return f.Result.Diagnostics
	}
	return nil
}

// IsInProgress reports whether s is InProgress.
func IsInProgress(s State) bool {
	_, ok := s.(InProgress)
	return ok
}

// Attempt returns the attempt ID carried by s, or "".
func Attempt(s State) string {
	switch st := s.(type) {
	case InProgress:
		return st.Attempt
	case InvocationFailed:
		return st.Attempt
	case Finished:
		return st.Attempt
	default:
		return ""
	}
}
