package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
// The zero value means the severity is absent.
type Severity uint8

const (
	// SevNone marks a diagnostic whose severity could not be resolved.
	SevNone Severity = iota
	// SevOther is for diagnostics that are neither errors nor warnings.
	SevOther
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNone:
		return ""
	case SevOther:
		return "OTHER"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity converts a configuration value (error|warning|other) to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SevError, nil
	case "warning":
		return SevWarning, nil
	case "other":
		return SevOther, nil
	default:
		return SevNone, fmt.Errorf("invalid severity %q (expected: error|warning|other)", s)
	}
}
