package matcher

import (
	"testing"

	"github.com/cockroachdb/errors"

	"conswol/internal/diag"
	"conswol/internal/testkit"
)

const gccPattern = `(\S+):(\d+):(\d+): (\w+): (.*)`

func gccSpec() Spec {
	return Spec{Pattern: gccPattern, FileGroup: 1, LineGroup: 2, ColGroup: 3, SeverityGroup: 4}
}

func TestExtractWithoutSpecDumpsEverything(t *testing.T) {
	inputs := []string{
		"",
		"plain output\n",
		"a.c:1:1: error: x\nb.c:2:2: warning: y\n",
		"ünïcödé ✓\n\tindented",
	}
	for _, input := range inputs {
		got, err := Extract([]byte(input), nil)
		if err != nil {
			t.Fatalf("Extract(%q, nil) error: %v", input, err)
		}
		if len(got) != 1 {
			t.Fatalf("Extract(%q, nil) returned %d diagnostics, want 1", input, len(got))
		}
		if got[0] != diag.Dump(input) {
			t.Fatalf("Extract(%q, nil) = %+v, want dump", input, got[0])
		}
	}
}

func TestExtractNoMatchesIsEmpty(t *testing.T) {
	spec := gccSpec()
	got, err := Extract([]byte("Build succeeded.\nnothing to see\n"), &spec)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestExtractNextMatchStartSlicing(t *testing.T) {
	raw := "make: entering\n" +
		"a.c:3:5: error: bad thing\n" +
		"    int x = ;\n" +
		"            ^\n" +
		"b.c:10:1: warning: unused\n" +
		"c.c:7:2: note: see here\n" +
		"make: leaving\n"
	m := MustCompile(gccSpec())
	got := m.Extract(raw)
	if len(got) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(got))
	}
	wantContents := []string{
		"a.c:3:5: error: bad thing\n    int x = ;\n            ^\n",
		"b.c:10:1: warning: unused\n",
		"c.c:7:2: note: see here\nmake: leaving\n",
	}
	for i, want := range wantContents {
		if got[i].Content != want {
			t.Errorf("diagnostic %d content = %q, want %q", i, got[i].Content, want)
		}
	}
	offset, err := testkit.CheckTiling(raw, got)
	if err != nil {
		t.Fatal(err)
	}
	if offset != len("make: entering\n") {
		t.Fatalf("first diagnostic offset = %d, want %d", offset, len("make: entering\n"))
	}

	first := got[0]
	if !first.HasFile || first.File != "a.c" {
		t.Errorf("file = %q (has=%v), want a.c", first.File, first.HasFile)
	}
	if !first.HasLine || first.Line != 3 || !first.HasColumn || first.Column != 5 {
		t.Errorf("position = %d:%d (has=%v,%v), want 3:5", first.Line, first.Column, first.HasLine, first.HasColumn)
	}
	if first.Severity != diag.SevError {
		t.Errorf("severity = %v, want error", first.Severity)
	}
	if got[1].Severity != diag.SevWarning {
		t.Errorf("second severity = %v, want warning", got[1].Severity)
	}
	if got[2].Severity != diag.SevNone {
		t.Errorf("note severity = %v, want none", got[2].Severity)
	}
}

func TestExtractSeverityResolution(t *testing.T) {
	tests := []struct {
		name     string
		mapper   map[string]diag.Severity
		captured string
		want     diag.Severity
	}{
		{"mapped", map[string]diag.Severity{"ERR": diag.SevError}, "ERR", diag.SevError},
		{"mapper is case sensitive", map[string]diag.Severity{"ERR": diag.SevError}, "err", diag.SevNone},
		{"unmapped token", map[string]diag.Severity{"ERR": diag.SevError}, "WARN", diag.SevNone},
		{"mapped other", map[string]diag.Severity{"NOTE": diag.SevOther}, "NOTE", diag.SevOther},
		{"fallback warning", nil, "Warning", diag.SevWarning},
		{"fallback error upper", nil, "ERROR", diag.SevError},
		{"fallback unknown", nil, "oops", diag.SevNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MustCompile(Spec{Pattern: `\[(\w+)\] (.*)`, SeverityGroup: 1, SeverityMap: tt.mapper})
			got := m.Extract("[" + tt.captured + "] message\n")
			if len(got) != 1 {
				t.Fatalf("got %d diagnostics, want 1", len(got))
			}
			if got[0].Severity != tt.want {
				t.Fatalf("severity = %v, want %v", got[0].Severity, tt.want)
			}
		})
	}
}

func TestExtractNonNumericPositionIsAbsent(t *testing.T) {
	m := MustCompile(Spec{Pattern: `(\S+):(\w+):(\w+):`, FileGroup: 1, LineGroup: 2, ColGroup: 3})
	got := m.Extract("x.go:twelve:99999999999:\n")
	if len(got) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(got))
	}
	d := got[0]
	if !d.HasFile || d.File != "x.go" {
		t.Fatalf("file = %q, want x.go", d.File)
	}
	if d.HasLine {
		t.Fatalf("non-numeric line should be absent, got %d", d.Line)
	}
	if d.HasColumn {
		t.Fatalf("column overflowing uint32 should be absent, got %d", d.Column)
	}
}

func TestExtractOptionalGroupNotParticipating(t *testing.T) {
	m := MustCompile(Spec{Pattern: `(\S+\.c)(?::(\d+))?: `, FileGroup: 1, LineGroup: 2})
	got := m.Extract("a.c: no line\nb.c:4: with line\n")
	if len(got) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(got))
	}
	if got[0].HasLine {
		t.Fatalf("first diagnostic should have no line")
	}
	if !got[1].HasLine || got[1].Line != 4 {
		t.Fatalf("second line = %d (has=%v), want 4", got[1].Line, got[1].HasLine)
	}
	if got[0].HasColumn || got[0].Severity != diag.SevNone {
		t.Fatalf("undeclared groups should stay absent: %+v", got[0])
	}
}

func TestExtractDecodeError(t *testing.T) {
	spec := gccSpec()
	_, err := Extract([]byte{'a', 0xff, 0xfe, '\n'}, &spec)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	_, err = Extract([]byte{0xc3}, nil)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode without spec, got %v", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"bad regexp", Spec{Pattern: `(unclosed`}},
		{"file group out of range", Spec{Pattern: `(a)`, FileGroup: 2}},
		{"negative group", Spec{Pattern: `(a)`, LineGroup: -1}},
		{"severity group out of range", Spec{Pattern: `a`, SeverityGroup: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.spec)
			if !errors.Is(err, ErrPatternCompile) {
				t.Fatalf("Compile(%+v) error = %v, want ErrPatternCompile", tt.spec, err)
			}
			spec := tt.spec
			if _, err := Extract([]byte("a"), &spec); !errors.Is(err, ErrPatternCompile) {
				t.Fatalf("Extract should propagate compile error, got %v", err)
			}
		})
	}
}

func TestExtractZeroWidthMatches(t *testing.T) {
	tests := []struct {
		pattern string
		raw     string
		want    []string
	}{
		{`a*`, "xay", []string{"x", "ay"}},
		{``, "ab", []string{"a", "b"}},
		{`\bx?`, "ab cd", []string{"ab", " ", "cd"}},
	}
	for _, tt := range tests {
		m, err := Compile(Spec{Pattern: tt.pattern})
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.pattern, err)
		}
		got := m.Extract(tt.raw)
		if len(got) != len(tt.want) {
			t.Fatalf("Extract(%q) with %q = %d diagnostics, want %d", tt.raw, tt.pattern, len(got), len(tt.want))
		}
		for i := range got {
			if got[i].Content != tt.want[i] {
				t.Fatalf("Extract(%q) with %q [%d] = %q, want %q", tt.raw, tt.pattern, i, got[i].Content, tt.want[i])
			}
		}
		if _, err := testkit.CheckTiling(tt.raw, got); err != nil {
			t.Fatalf("tiling with %q: %v", tt.pattern, err)
		}
	}
}

func TestCompileCopiesSeverityMap(t *testing.T) {
	mapper := map[string]diag.Severity{"E": diag.SevError}
	m := MustCompile(Spec{Pattern: `(\w):`, SeverityGroup: 1, SeverityMap: mapper})
	mapper["E"] = diag.SevOther
	got := m.Extract("E: x")
	if got[0].Severity != diag.SevError {
		t.Fatalf("severity = %v, want error", got[0].Severity)
	}
}

func TestNilMatcherPattern(t *testing.T) {
	var m *Matcher
	if m.Pattern() != "" {
		t.Fatalf("nil matcher pattern = %q", m.Pattern())
	}
	if got := MustCompile(gccSpec()).Pattern(); got != gccPattern {
		t.Fatalf("Pattern() = %q, want %q", got, gccPattern)
	}
}
