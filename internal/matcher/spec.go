package matcher

import (
	"regexp"

	"github.com/cockroachdb/errors"

	"conswol/internal/diag"
)

var (
	// ErrPatternCompile marks errors caused by a malformed pattern specification.
	ErrPatternCompile = errors.New("invalid problem matcher pattern")
	// ErrDecode marks build output that is not valid UTF-8 text.
	ErrDecode = errors.New("build output is not valid text")
)

// Spec describes how to slice diagnostics out of raw output.
// A group index of 0 means the field is not captured.
type Spec struct {
	Pattern       string
	FileGroup     int
	LineGroup     int
	ColGroup      int
	SeverityGroup int
	// SeverityMap maps captured severity text to a Severity. Lookups are
	// case-sensitive. A nil map selects the built-in error/warning fallback.
	SeverityMap map[string]diag.Severity
}

// Matcher is a compiled Spec. It is immutable and safe for concurrent use.
type Matcher struct {
	spec Spec
	re   *regexp.Regexp
}

// Compile validates spec and compiles its pattern.
func Compile(spec Spec) (*Matcher, error) {
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "compile pattern %q", spec.Pattern), ErrPatternCompile)
	}
	groups := re.NumSubexp()
	for _, g := range []struct {
		name string
		idx  int
	}{
		{"file", spec.FileGroup},
		{"line", spec.LineGroup},
		{"column", spec.ColGroup},
		{"severity", spec.SeverityGroup},
	} {
		if g.idx < 0 || g.idx > groups {
			return nil, errors.Mark(
				errors.Newf("%s group %d out of range: pattern %q has %d capture groups", g.name, g.idx, spec.Pattern, groups),
				ErrPatternCompile,
			)
		}
	}
	if spec.SeverityMap != nil {
		mapped := make(map[string]diag.Severity, len(spec.SeverityMap))
		for k, v := range spec.SeverityMap {
			mapped[k] = v
		}
		spec.SeverityMap = mapped
	}
	return &Matcher{spec: spec, re: re}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level defaults.
func MustCompile(spec Spec) *Matcher {
	m, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the source pattern, or "" for a nil Matcher.
func (m *Matcher) Pattern() string {
	if m == nil {
		return ""
	}
	return m.spec.Pattern
}
