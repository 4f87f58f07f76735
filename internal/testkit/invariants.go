package testkit

import (
	"fmt"
	"strings"

	"conswol/internal/diag"
)

// CheckTiling verifies the next-match-start layout of extracted diagnostics:
// 1) every diagnostic has non-empty content
// 2) contents are contiguous slices of raw, in order
// 3) the last diagnostic runs to the end of raw
//
// It returns the offset of the first diagnostic inside raw.
func CheckTiling(raw string, items []diag.Diagnostic) (int, error) {
	if len(items) == 0 {
		return len(raw), nil
	}
	var joined strings.Builder
	for i := range items {
		if items[i].Content == "" {
			return 0, fmt.Errorf("diagnostic %d has empty content", i)
		}
		joined.WriteString(items[i].Content)
	}
	tail := joined.String()
	if !strings.HasSuffix(raw, tail) {
		return 0, fmt.Errorf("diagnostics do not tile the end of the output: %q is not a suffix of %q", tail, raw)
	}
	return len(raw) - len(tail), nil
}
