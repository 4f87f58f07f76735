// Package trace provides structured tracing for conswol.
//
// The terminal belongs to the UI while a session runs, so trace output is
// written to a file (or kept in memory) instead of the screen.
//
// # Usage
//
//	conswol --trace=conswol.trace --trace-level=detail
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer, dumped when the session fails
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only ring dumps
//   - LevelPhase: Session and build boundaries
//   - LevelDetail: Extraction and process phases
//   - LevelDebug: Everything including key input
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeBuild, "build", parentID)
//	defer span.End("")
package trace
