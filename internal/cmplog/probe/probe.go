// Package probe wires classification, resolution and logging into the
// instrumentation engine.
//
// The engine calls CmpLog.Instrument once per static instruction while
// compiling target code. When the planner yields a plan, Instrument
// registers a callout with the engine's iterator; the engine then invokes
// that callout with a fresh register-context snapshot on every dynamic
// execution of the instruction. Callouts are the only code that runs on
// the target's execution path, and they stay allocation-free and
// non-blocking.
package probe

import (
	"github.com/rs/zerolog"

	"github.com/kolkov/cmptrace/internal/cmplog/logwriter"
	"github.com/kolkov/cmptrace/internal/cmplog/operand"
	"github.com/kolkov/cmptrace/internal/cmplog/planner"
	"github.com/kolkov/cmptrace/internal/cmplog/resolver"
	"github.com/kolkov/cmptrace/internal/cmplog/tracestore"
)

// Callout is an inline probe body. The instrumentation engine invokes it
// with a live register-context snapshot at every dynamic execution of the
// instruction it was planted on.
type Callout func(ctx resolver.Context)

// Iterator is the engine's per-instruction insertion point, exposed while
// it compiles a block of target code. PutCallout arranges for fn to run
// inline immediately before the current instruction executes.
type Iterator interface {
	PutCallout(fn Callout)
}

// CmpLog is the instrumentation entry point: one per harness, shared by
// every compilation thread the engine runs.
//
// The trace store is referenced, not owned; the harness allocates it
// before instrumentation begins. A CmpLog with a nil store is valid and
// turns Instrument into a no-op, which is how the feature is disabled.
type CmpLog struct {
	store *tracestore.Map
	mem   resolver.Memory
	log   zerolog.Logger
}

// New builds an entry point over the given store and target memory.
// The logger is used at planning time only (probe placement debug lines
// and fatal diagnostics); callouts never log.
func New(store *tracestore.Map, mem resolver.Memory, log zerolog.Logger) *CmpLog {
	return &CmpLog{store: store, mem: mem, log: log}
}

// Enabled reports whether a trace store is attached.
func (c *CmpLog) Enabled() bool {
	return c != nil && c.store != nil
}

// Store returns the attached trace store, or nil when disabled. Intended
// for the harness side (snapshotting, statistics), not for probes.
func (c *CmpLog) Store() *tracestore.Map {
	if c == nil {
		return nil
	}
	return c.store
}

// Instrument classifies one decoded instruction and, when it is a capture
// candidate, plants the matching callout.
//
// Called at code-discovery time, never on the execution path, so logging
// and plan allocation are fine here.
func (c *CmpLog) Instrument(insn *operand.Instruction, it Iterator) {
	if !c.Enabled() {
		return
	}

	plan := planner.Build(insn)
	if plan == nil {
		return
	}

	switch plan.Kind() {
	case planner.ProbeCompare:
		it.PutCallout(c.compareCallout(plan))
	case planner.ProbeCall:
		it.PutCallout(c.callCallout(plan))
	}

	c.log.Debug().
		Uint64("addr", plan.Addr()).
		Stringer("kind", plan.Kind()).
		Msg("planted probe")
}

// compareCallout binds a compare plan to the store. The returned closure
// captures only immutable plan data and the two shared references, so the
// engine may invoke it from any thread.
func (c *CmpLog) compareCallout(plan *planner.Plan) Callout {
	op1, op2 := plan.Operands()
	store, mem := c.store, c.mem
	addr := plan.Addr()
	width := op1.Width

	return func(ctx resolver.Context) {
		v0, ok := resolver.Operand(ctx, mem, op1)
		if !ok {
			return
		}
		v1, ok := resolver.Operand(ctx, mem, op2)
		if !ok {
			return
		}
		logwriter.Compare(store, addr, width, v0, v1)
	}
}

// callCallout binds a call plan to the store.
func (c *CmpLog) callCallout(plan *planner.Plan) Callout {
	store, mem := c.store, c.mem
	addr := plan.Addr()

	return func(ctx resolver.Context) {
		var v0, v1 [tracestore.CallPayloadLen]byte
		if !resolver.CallPayloads(ctx, mem, &v0, &v1) {
			return
		}
		logwriter.Call(store, addr, &v0, &v1)
	}
}
