// Package tracing provides hooks that observe replacement engines: a counter
// that tallies decisions in memory and a tracer that records every decision
// and update into a data recorder.
package tracing
