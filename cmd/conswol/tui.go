package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conswol/internal/project"
	"conswol/internal/session"
	"conswol/internal/trace"
	"conswol/internal/ui"
)

func init() {
	rootCmd.Flags().String("ui", "auto", "interactive UI (auto|on|off)")
	rootCmd.Flags().Duration("interval", ui.DefaultInterval, "redraw interval of the interactive UI")
}

// sessionExecution is the root command: the interactive session, or a plain
// build when no terminal is attached.
func sessionExecution(cmd *cobra.Command, args []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}

	p, err := project.Discover(startDir(args))
	if err != nil {
		return err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer tr.cleanup()

	if !shouldUseTUI(mode) {
		return buildOnce(cmd, p, tr, false)
	}

	ctx := cmd.Context()
	span := trace.Begin(tr.tracer, trace.ScopeSession, "session", 0).WithExtra("project", p.Path)
	ctx = trace.WithParent(ctx, span)

	loop := session.New(session.Config{Build: p.Build, Matcher: p.Matcher})
	model := ui.NewModel(ctx, p, loop, interval)

	hb := trace.StartHeartbeat(tr.tracer, tr.heartbeat, model.Status)
	final, err := ui.Run(ctx, model)
	hb.Stop()
	span.End(fmt.Sprintf("builds=%d rejected=%d", final.Started, final.Rejected))
	if err != nil {
		dumpRing(cmd, tr)
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
