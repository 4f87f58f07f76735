package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conswol/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Validate conswol.toml and its problem matcher",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Discover(startDir(args))
		if err != nil {
			return err
		}
		printProject(cmd, p)
		return nil
	},
}

func printProject(cmd *cobra.Command, p *project.Project) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", locColor.Sprint("manifest:"), p.Path)
	fmt.Fprintf(out, "%s %s\n", locColor.Sprint("dir:     "), p.Dir)
	if p.Build != nil {
		fmt.Fprintf(out, "%s %s (in %s)\n", locColor.Sprint("build:   "), p.Build, p.Build.Dir())
	} else {
		fmt.Fprintf(out, "%s %s\n", locColor.Sprint("build:   "), warningColor.Sprint("(none)"))
	}
	if p.Run != nil {
		fmt.Fprintf(out, "%s %s (in %s)\n", locColor.Sprint("run:     "), p.Run, p.Run.Dir())
	}
	if p.Matcher != nil {
		fmt.Fprintf(out, "%s %s\n", locColor.Sprint("matcher: "), p.Matcher.Pattern())
	} else {
		fmt.Fprintf(out, "%s %s\n", locColor.Sprint("matcher: "), dimColor.Sprint("(none, whole output is one diagnostic)"))
	}
}
