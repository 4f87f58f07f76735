package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"conswol/internal/trace"
)

type tracing struct {
	tracer    trace.Tracer
	heartbeat time.Duration
	cleanup   func()
}

// ring returns the in-memory ring of the active tracer, if any.
func (t tracing) ring() *trace.RingTracer {
	switch tr := t.tracer.(type) {
	case *trace.RingTracer:
		return tr
	case *trace.MultiTracer:
		return tr.Ring()
	}
	return nil
}

// setupTracing inspects trace-related flags, initializes the tracer and
// attaches it to the command context.
func setupTracing(cmd *cobra.Command) (tracing, error) {
	root := cmd.Root()
	disabled := tracing{tracer: trace.Nop, cleanup: func() {}}

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return disabled, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return disabled, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return disabled, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return disabled, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	heartbeat, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return disabled, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return disabled, err
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return disabled, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return disabled, err
	}

	// Stream output needs a destination; a ring alone is kept in memory.
	if level == trace.LevelOff || (traceOutput == "" && mode != trace.ModeRing) {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return disabled, nil
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		Heartbeat:  heartbeat,
	})
	if err != nil {
		return disabled, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	return tracing{
		tracer:    tracer,
		heartbeat: heartbeat,
		cleanup: func() {
			if err := tracer.Flush(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
			}
			if err := tracer.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
			}
		},
	}, nil
}
