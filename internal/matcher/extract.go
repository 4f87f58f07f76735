package matcher

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/cockroachdb/errors"

	"conswol/internal/diag"
)

// Decode converts the combined output stream to text. The stream is decoded
// once; invalid UTF-8 anywhere fails the whole stream.
func Decode(out []byte) (string, error) {
	if !utf8.Valid(out) {
		return "", errors.Mark(errors.Newf("%d bytes of output are not valid UTF-8", len(out)), ErrDecode)
	}
	return string(out), nil
}

// Extract compiles spec (if any), decodes raw and slices it into diagnostics.
func Extract(raw []byte, spec *Spec) ([]diag.Diagnostic, error) {
	var m *Matcher
	if spec != nil {
		var err error
		m, err = Compile(*spec)
		if err != nil {
			return nil, err
		}
	}
	text, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return m.Extract(text), nil
}

// Extract slices raw into diagnostics. A nil Matcher yields a single
// diagnostic carrying the whole output; no matches yields an empty list.
func (m *Matcher) Extract(raw string) []diag.Diagnostic {
	if m == nil {
		return []diag.Diagnostic{diag.Dump(raw)}
	}
	locs := m.re.FindAllStringSubmatchIndex(raw, -1)
	out := make([]diag.Diagnostic, 0, len(locs))
	for i, loc := range locs {
		start, end := loc[0], len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := raw[start:end]
		if content == "" || !utf8.ValidString(content) {
			continue
		}
		d := diag.Diagnostic{Content: content}
		if s, ok := group(raw, loc, m.spec.FileGroup); ok {
			d.File, d.HasFile = s, true
		}
		if s, ok := group(raw, loc, m.spec.LineGroup); ok {
			d.Line, d.HasLine = parseUint32(s)
		}
		if s, ok := group(raw, loc, m.spec.ColGroup); ok {
			d.Column, d.HasColumn = parseUint32(s)
		}
		if s, ok := group(raw, loc, m.spec.SeverityGroup); ok {
			d.Severity = m.severity(s)
		}
		out = append(out, d)
	}
	return out
}

// severity resolves captured text. Unmapped text yields SevNone.
func (m *Matcher) severity(text string) diag.Severity {
	if m.spec.SeverityMap != nil {
		return m.spec.SeverityMap[text]
	}
	switch {
	case strings.EqualFold(text, "error"):
		return diag.SevError
	case strings.EqualFold(text, "warning"):
		return diag.SevWarning
	default:
		return diag.SevNone
	}
}

// group returns the text of capture group g if it was declared and participated.
func group(raw string, loc []int, g int) (string, bool) {
	if g <= 0 {
		return "", false
	}
	i := 2 * g
	if i+1 >= len(loc) || loc[i] < 0 || loc[i+1] < 0 {
		return "", false
	}
	return raw[loc[i]:loc[i+1]], true
}

func parseUint32(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, false
	}
	return v, true
}
