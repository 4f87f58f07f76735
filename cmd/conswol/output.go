package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"conswol/internal/buildpipeline"
	"conswol/internal/diag"
	"conswol/internal/observ"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	otherColor   = color.New(color.FgCyan)
	locColor     = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return otherColor
	}
}

func location(d *diag.Diagnostic) string {
	if !d.HasFile {
		return ""
	}
	loc := d.File
	if d.HasLine {
		loc += fmt.Sprintf(":%d", d.Line)
		if d.HasColumn {
			loc += fmt.Sprintf(":%d", d.Column)
		}
	}
	return loc
}

// printDiagnostics writes one header line per diagnostic followed by the
// remaining lines of its content, indented.
func printDiagnostics(out io.Writer, items []diag.Diagnostic) {
	for i := range items {
		d := &items[i]
		var head []string
		if loc := location(d); loc != "" {
			head = append(head, locColor.Sprint(loc))
		}
		if d.Severity != diag.SevNone {
			head = append(head, severityColor(d.Severity).Sprint(d.Severity.String()))
		}
		if len(head) > 0 {
			fmt.Fprintf(out, "%s\n", strings.Join(head, " "))
		}
		body := strings.TrimRight(d.Content, "\r\n")
		for _, line := range strings.Split(body, "\n") {
			fmt.Fprintf(out, "  %s\n", strings.TrimRight(line, "\r"))
		}
	}
}

// printOutcome prints the terminal state of a build and returns the error
// the command should fail with, if any.
func printOutcome(out io.Writer, st buildpipeline.State, timings bool) error {
	switch s := st.(type) {
	case buildpipeline.InvocationFailed:
		fmt.Fprintf(out, "%s %v\n", errorColor.Sprint("build could not be started:"), s.Err)
		return fmt.Errorf("build invocation failed: %w", s.Err)
	case buildpipeline.Finished:
		printDiagnostics(out, s.Result.Diagnostics)
		counts := diag.Count(s.Result.Diagnostics)
		exit := "exit unknown"
		if s.Result.ExitCode != buildpipeline.ExitUnknown {
			exit = fmt.Sprintf("exit %d", s.Result.ExitCode)
		}
		fmt.Fprintf(out, "%s: %s, %s, %d other, elapsed %s\n",
			exit,
			errorColor.Sprintf("%d errors", counts.Errors),
			warningColor.Sprintf("%d warnings", counts.Warnings),
			counts.Other+counts.Unknown,
			s.Result.Elapsed.Round(time.Millisecond),
		)
		if timings && len(s.Result.Phases) > 0 {
			fmt.Fprint(out, dimColor.Sprint(observ.SummaryOf(s.Result.Phases)))
		}
		if s.Result.ExitCode != 0 {
			return fmt.Errorf("build failed (%s)", exit)
		}
		return nil
	default:
		return fmt.Errorf("build ended in unexpected state %s", st)
	}
}
