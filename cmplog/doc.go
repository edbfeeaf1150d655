// Package cmplog captures runtime comparison operands for coverage-guided
// fuzzing.
//
// While a target program executes under dynamic binary instrumentation,
// this runtime intercepts comparison-class instructions (cmp, sub, the
// string scan/compare families) and call instructions, recovers the actual
// operand values involved, and records them into a bounded, lock-free,
// process-wide trace map keyed by hashed code location. A mutation engine
// later mines the map to synthesize inputs that satisfy hard-to-guess
// comparisons (magic constants, string prefixes) that random mutation
// would essentially never hit.
//
// # Quick start
//
// The instrumentation engine drives everything. At code-discovery time it
// hands every decoded instruction to Instrument; eligible instructions get
// an inline callout that runs on every dynamic execution:
//
//	store := cmplog.NewMap()
//	cl := cmplog.New(store,
//		cmplog.WithMemory(cmplog.HostMemory(engine.RangeReadable)),
//	)
//
//	// engine compilation loop, once per discovered instruction:
//	cl.Instrument(decoded, iterator)
//
// The engine's iterator receives a Callout; at execution time it must
// invoke the callout with a live register snapshot (Context). Resolved
// operand pairs land in the store; unresolvable events (unreadable memory,
// suspicious pointers) are silently dropped.
//
// # The trace map
//
// Map is a fixed table of 65536 code-location slots, each a small header
// plus an overwrite-on-wrap ring of the most recent operand pairs. It is
// lossy on purpose: hash collisions alias slots, category switches discard
// history, concurrent writers race. The map is a heuristic channel for the
// mutation engine, not a faithful trace, and it carries no synchronization
// so that probes add as little overhead as possible to every comparison
// the target executes.
//
// Map serializes to a stable little-endian image via WriteTo/ReadFrom; the
// cmptrace CLI inspects such snapshots offline.
//
// # What never happens at probe time
//
// Callouts do not allocate, block, lock, or log. Failures at execution
// time are per-event drops. The only fatal paths in the runtime are
// planning-time contract breaches between the decoder and the planner
// (unsupported operand kinds or widths), which panic with a diagnostic:
// they indicate a miswired engine, not a data condition.
package cmplog
