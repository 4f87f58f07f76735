package diag

// Diagnostic is one record sliced out of build output.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     uint32
	Column   uint32
	// Content is the full slice of raw output attributed to this diagnostic.
	Content string

	HasFile   bool
	HasLine   bool
	HasColumn bool
}

// Dump returns the fallback diagnostic that carries the whole output.
func Dump(raw string) Diagnostic {
	return Diagnostic{Content: raw}
}

// Summary returns the first line of Content without the trailing newline.
func (d *Diagnostic) Summary() string {
	for i := 0; i < len(d.Content); i++ {
		if d.Content[i] == '\n' {
			end := i
			if end > 0 && d.Content[end-1] == '\r' {
				end--
			}
			return d.Content[:end]
		}
	}
	return d.Content
}
