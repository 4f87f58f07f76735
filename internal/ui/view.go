package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"conswol/internal/buildpipeline"
	"conswol/internal/diag"
	"conswol/internal/project"
	"conswol/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

type frame struct {
	state   session.State
	project *project.Project
	keys    keyMap
	spinner string
	width   int
	height  int
}

// render lays out the build results panel over the project panel.
func render(f frame) string {
	width := f.width
	if width < 30 {
		width = 30
	}
	height := f.height
	if height < 12 {
		height = 12
	}
	// Two borders per panel plus the help line.
	resultsRows := height/2 - 2
	projectRows := height - resultsRows - 5
	inner := width - 4

	results := panelStyle.Width(width - 2).Height(resultsRows).
		Render(buildResults(f.state, f.spinner, inner, resultsRows))
	proj := panelStyle.Width(width - 2).Height(projectRows).
		Render(projectPanel(f.project, f.state.Notice, inner, projectRows))

	return lipgloss.JoinVertical(lipgloss.Left, results, proj, helpLine(f.keys, width))
}

func buildResults(st session.State, spin string, width, rows int) string {
	lines := []string{titleStyle.Render("Build Results")}
	switch b := st.Build.(type) {
	case buildpipeline.InProgress:
		lines = append(lines, fmt.Sprintf("%s building (attempt %s)", spin, shortID(b.Attempt)))
	case buildpipeline.InvocationFailed:
		lines = append(lines, failStyle.Render("build could not be started"))
		if b.Err != nil {
			lines = append(lines, truncate(b.Err.Error(), width))
		}
	case buildpipeline.Finished:
		lines = append(lines, resultHeader(b.Result))
		lines = append(lines, diagnosticRows(b.Result.Diagnostics, st.Selection, width, rows-len(lines))...)
	default:
		msg := "Project is not built!"
		pad := (width - runewidth.StringWidth(msg)) / 2
		if pad < 0 {
			pad = 0
		}
		lines = append(lines, strings.Repeat(" ", pad)+msg)
	}
	return strings.Join(lines, "\n")
}

func resultHeader(res buildpipeline.Result) string {
	c := diag.Count(res.Diagnostics)
	exit := "exit " + strconv.Itoa(res.ExitCode)
	if res.ExitCode == buildpipeline.ExitUnknown {
		exit = "exit unknown"
	}
	header := fmt.Sprintf("%s · %d errors · %d warnings · %s", exit, c.Errors, c.Warnings, res.Elapsed.Round(time.Millisecond))
	if res.ExitCode != 0 || c.Errors > 0 {
		return failStyle.Render(header)
	}
	return dimStyle.Render(header)
}

func diagnosticRows(items []diag.Diagnostic, sel session.Selection, width, rows int) []string {
	if len(items) == 0 {
		return []string{dimStyle.Render("no diagnostics")}
	}
	start, end := window(sel, len(items), rows)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := diagnosticRow(&items[i], width)
		if sel.Valid && sel.Index == i {
			row = selectedStyle.Render(runewidth.FillRight(row, width))
		}
		out = append(out, row)
	}
	return out
}

func diagnosticRow(d *diag.Diagnostic, width int) string {
	sev := fmt.Sprintf("%-7s", strings.ToLower(d.Severity.String()))
	text := strings.TrimSpace(d.Summary())
	loc := location(d)
	if loc != "" {
		text = loc + " " + text
	}
	return severityStyle(d.Severity).Render(sev) + " " + truncate(text, width-8)
}

// window returns the [start, end) range of n rows to show in rows lines,
// keeping the selection visible.
func window(sel session.Selection, n, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	start := 0
	if sel.Valid && sel.Index >= rows {
		start = sel.Index - rows + 1
	}
	return start, start + rows
}

func location(d *diag.Diagnostic) string {
	if !d.HasFile {
		return ""
	}
	loc := d.File
	if d.HasLine {
		loc += ":" + strconv.FormatUint(uint64(d.Line), 10)
		if d.HasColumn {
			loc += ":" + strconv.FormatUint(uint64(d.Column), 10)
		}
	}
	return loc
}

func projectPanel(p *project.Project, notice string, width, rows int) string {
	lines := []string{titleStyle.Render("Project")}
	if p != nil {
		lines = append(lines,
			field("dir", p.Dir, width),
			field("build", commandLine(p.Build), width),
			field("run", commandLine(p.Run), width),
			field("matcher", p.Matcher.Pattern(), width),
		)
	}
	if notice != "" {
		lines = append(lines, noticeStyle.Render(truncate(notice, width)))
	}
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return strings.Join(lines, "\n")
}

func field(name, value string, width int) string {
	if value == "" {
		value = dimStyle.Render("(none)")
	} else {
		value = truncate(value, width-10)
	}
	return fmt.Sprintf("%-9s %s", name+":", value)
}

func commandLine(c *buildpipeline.CommandConfig) string {
	if c == nil {
		return ""
	}
	return c.String() + "  [" + c.Dir() + "]"
}

func helpLine(km keyMap, width int) string {
	parts := make([]string, 0, 4)
	for _, b := range km.bindings() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(truncate(strings.Join(parts, " · "), width))
}

func severityStyle(s diag.Severity) lipgloss.Style {
	switch s {
	case diag.SevError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case diag.SevWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case diag.SevOther:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

// statusLine summarises st for the trace heartbeat.
func statusLine(st session.State) string {
	switch b := st.Build.(type) {
	case buildpipeline.InProgress:
		return "in progress " + shortID(b.Attempt)
	case buildpipeline.Finished:
		return fmt.Sprintf("finished exit=%d diagnostics=%d", b.Result.ExitCode, len(b.Result.Diagnostics))
	case nil:
		return ""
	default:
		return b.String()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
