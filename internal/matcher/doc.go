// Package matcher slices structured diagnostics out of raw build output.
//
// A Spec pairs a regular expression with capture-group indices for the file,
// line, column and severity fields. Every match of the pattern starts a new
// diagnostic whose content runs up to the start of the next match (or to the
// end of the output for the last one), so continuation lines such as code
// snippets and caret markers stay attached to the header that introduced them.
//
// Without a Spec the whole output becomes a single diagnostic.
package matcher
