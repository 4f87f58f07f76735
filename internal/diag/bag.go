package diag

// Counts summarises a diagnostic list by severity.
type Counts struct {
	Errors   int
	Warnings int
	Other    int
	Unknown  int
}

// Count tallies diagnostics by severity.
func Count(items []Diagnostic) Counts {
	var c Counts
	for i := range items {
		switch items[i].Severity {
		case SevError:
			c.Errors++
		case SevWarning:
			c.Warnings++
		case SevOther:
			c.Other++
		default:
			c.Unknown++
		}
	}
	return c
}

// HasErrors returns true if at least one diagnostic is an error.
func HasErrors(items []Diagnostic) bool {
	for i := range items {
		if items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if at least one diagnostic is a warning or worse.
func HasWarnings(items []Diagnostic) bool {
	for i := range items {
		if items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}
