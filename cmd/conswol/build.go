package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conswol/internal/buildpipeline"
	"conswol/internal/project"
	"conswol/internal/trace"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Run the configured build once and print its diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Bool("timings", false, "print spawn/wait/extract timings")
}

func runBuild(cmd *cobra.Command, args []string) error {
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
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

	return buildOnce(cmd, p, tr, timings)
}

// buildOnce runs the project's build synchronously and prints the outcome.
func buildOnce(cmd *cobra.Command, p *project.Project, tr tracing, timings bool) error {
	if p.Build == nil {
		return fmt.Errorf("%s: no build command configured", p.Path)
	}

	status := "building " + p.Build.String()
	hb := trace.StartHeartbeat(tr.tracer, tr.heartbeat, func() string { return status })
	st := buildpipeline.Run(cmd.Context(), *p.Build, p.Matcher)
	hb.Stop()

	err := printOutcome(cmd.OutOrStdout(), st, timings)
	if err != nil {
		dumpRing(cmd, tr)
	}
	return err
}

// dumpRing writes the in-memory trace buffer to stderr after a failure.
func dumpRing(cmd *cobra.Command, tr tracing) {
	ring := tr.ring()
	if ring == nil {
		return
	}
	if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}

func startDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
