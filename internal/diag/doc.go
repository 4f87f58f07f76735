// Package diag defines the diagnostic model shared by the matcher, the build
// pipeline and the UI.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – optional tri-level enum (Error, Warning, Other); SevNone
//     means the severity group was not declared or did not resolve.
//   - File, Line, Column – optional location, each guarded by a Has* flag so
//     that an empty capture or a zero line stays distinguishable from absence.
//   - Content – the raw slice of build output attributed to the diagnostic.
//     It is always populated.
//
// # Scope
//
// Package diag does not perform any formatting, IO or matching. Extraction
// lives in internal/matcher and rendering in internal/ui and cmd/conswol.
package diag
