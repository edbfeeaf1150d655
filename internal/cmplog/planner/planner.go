// Package planner classifies decoded instructions into probe plans.
//
// The instrumentation engine calls Build once per static instruction the
// first time it compiles the surrounding code. Build inspects only the
// decoder's static metadata, never the running target, and returns either
// nil ("do not instrument") or an immutable Plan that the engine keeps in
// its compiled-code cache and hands to every dynamic execution's callout.
//
// Ineligible instructions are skipped silently; that is the common case
// and carries no signal. A decoded operand whose kind falls outside the
// supported universe is different: it means the decoder and this planner
// disagree about what instructions look like, and nothing downstream can
// be trusted. Those paths panic with a diagnostic rather than return an
// error, because no caller has a meaningful way to recover.
package planner

import (
	"fmt"

	"github.com/kolkov/cmptrace/internal/cmplog/operand"
)

// Kind discriminates the two probe families.
type Kind uint8

const (
	// ProbeCompare captures the two operand values of a comparison-class
	// instruction.
	ProbeCompare Kind = iota + 1

	// ProbeCall captures the buffers behind the two argument registers at
	// a call site.
	ProbeCall
)

// String returns the probe kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case ProbeCompare:
		return "compare"
	case ProbeCall:
		return "call"
	}
	return "probe(?)"
}

// Plan is an immutable probe plan for one static instruction.
//
// A compare plan carries the two operand descriptors copied out of the
// decoder's output; a call plan carries no descriptors, since call capture
// always reads the designated argument registers. Plans are built once,
// owned by the instrumentation engine's code cache, and shared read-only
// with every concurrent execution of the probe, so nothing here is ever
// mutated after Build returns.
type Plan struct {
	kind Kind
	addr uint64
	op1  operand.Descriptor
	op2  operand.Descriptor
}

// Kind reports which probe family the plan belongs to.
func (p *Plan) Kind() Kind { return p.kind }

// Addr is the code address of the planned instruction.
func (p *Plan) Addr() uint64 { return p.addr }

// Operands returns the two operand descriptors of a compare plan. The
// pointers refer into the plan and must be treated as read-only.
func (p *Plan) Operands() (op1, op2 *operand.Descriptor) {
	return &p.op1, &p.op2
}

// Build produces the probe plan for a decoded instruction, or nil when the
// instruction is not a capture candidate.
func Build(insn *operand.Instruction) *Plan {
	if insn.ID == operand.IDCall {
		return buildCall(insn)
	}
	return buildCompare(insn)
}

// buildCall plans a routine-call probe.
//
// Eligible: call instructions with exactly one non-invalid operand.
// Memory-operand calls with a segment override are excluded: their
// addressing semantics are out of scope, and the call simply goes
// uncaptured.
func buildCall(insn *operand.Instruction) *Plan {
	if len(insn.Operands) != 1 {
		return nil
	}
	op := &insn.Operands[0]
	if op.Kind == operand.KindInvalid {
		return nil
	}
	if op.Kind == operand.KindMemory && op.Mem.Segment != operand.RegInvalid {
		return nil
	}
	return &Plan{kind: ProbeCall, addr: insn.Addr}
}

// buildCompare plans a value-compare probe for the comparison-class
// instruction families: explicit compares, subtraction, and string
// scan/compare.
//
// Eligible: exactly two non-invalid operands, first operand wider than one
// byte. One-byte comparisons are deliberately never instrumented; the
// behavior is kept as-is.
func buildCompare(insn *operand.Instruction) *Plan {
	switch insn.ID {
	case operand.IDCmp, operand.IDSub,
		operand.IDScasB, operand.IDScasW, operand.IDScasD, operand.IDScasQ,
		operand.IDCmpsB, operand.IDCmpsW, operand.IDCmpsD, operand.IDCmpsQ,
		operand.IDCmpsS:
	default:
		return nil
	}

	if len(insn.Operands) != 2 {
		return nil
	}
	op1 := &insn.Operands[0]
	op2 := &insn.Operands[1]

	if op1.Kind == operand.KindInvalid || op2.Kind == operand.KindInvalid {
		return nil
	}

	// Both operands share the first operand's size.
	if op1.Width == 1 {
		return nil
	}

	p := &Plan{kind: ProbeCompare, addr: insn.Addr}
	capture(&p.op1, op1)
	capture(&p.op2, op2)
	return p
}

// capture copies one decoder operand into a plan-owned descriptor.
//
// Only the payload selected by the kind tag is copied; the rest of the
// descriptor stays zero. An unsupported kind here is fatal: eligibility
// checks above have already filtered KindInvalid, so reaching the default
// arm means the decoder emitted a kind this planner has never heard of.
func capture(dst *operand.Descriptor, op *operand.Operand) {
	dst.Kind = op.Kind
	dst.Width = op.Width
	switch op.Kind {
	case operand.KindRegister:
		dst.Reg = op.Reg
	case operand.KindImmediate:
		dst.Imm = op.Imm
	case operand.KindMemory:
		dst.Mem = op.Mem
	default:
		panic(fmt.Sprintf("cmplog: unsupported operand kind %d at planning time", op.Kind))
	}
}
