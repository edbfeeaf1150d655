// Package resolver recovers concrete operand values from a live register
// context at probe execution time.
//
// Everything here runs inline in the instrumented target's own threads, in
// the middle of foreign control flow. The resolution functions are pure
// over their inputs, never block, never allocate, and never touch memory
// the readability oracle has not approved. A resolution either yields a
// value or reports failure; failure means the single event is dropped and
// nothing else happens.
package resolver

import (
	"fmt"
	"math"

	"github.com/kolkov/cmptrace/internal/cmplog/operand"
	"github.com/kolkov/cmptrace/internal/cmplog/tracestore"
)

// Context is a live register snapshot supplied by the instrumentation
// engine for one dynamic execution of a probed instruction.
//
// Register must return the current 64-bit value of the named register
// (sub-width registers zero-extended). It never fails: every register the
// planner can name is present in an engine snapshot.
type Context interface {
	Register(r operand.Reg) uint64
}

// Memory is guarded access to the target's address space.
//
// Readable is the memory-readability oracle: it reports whether the range
// [addr, addr+length) can be dereferenced without faulting. It must be
// side-effect-free and must not itself fault.
//
// Read copies len(buf) bytes starting at addr into buf. Callers must only
// invoke it on ranges Readable has just approved; Read has no failure
// path of its own.
type Memory interface {
	Readable(addr uint64, length int) bool
	Read(addr uint64, buf []byte)
}

// Operand resolves one operand descriptor against a live context.
//
// Register and immediate operands always resolve. Memory operands compute
// the effective address from the descriptor's addressing formula, ask the
// oracle, and on approval read exactly the declared width, zero-extended
// into a uint64. ok is false only for an unreadable memory operand, which
// is an expected, silent per-event drop.
//
// A descriptor kind outside the supported set is a planner/decoder
// contract breach and panics; by construction the planner cannot emit one.
//
//go:nosplit
func Operand(ctx Context, mem Memory, d *operand.Descriptor) (val uint64, ok bool) {
	switch d.Kind {
	case operand.KindRegister:
		return ctx.Register(d.Reg), true
	case operand.KindImmediate:
		return d.Imm, true
	case operand.KindMemory:
		return memoryOperand(ctx, mem, d)
	}
	panic(fmt.Sprintf("cmplog: resolving unsupported operand kind %v", d.Kind))
}

// memoryOperand computes base + index*scale + disp, checks readability,
// and reads the operand's declared width.
//
//go:nosplit
func memoryOperand(ctx Context, mem Memory, d *operand.Descriptor) (uint64, bool) {
	var base, index uint64
	if d.Mem.Base != operand.RegInvalid {
		base = ctx.Register(d.Mem.Base)
	}
	if d.Mem.Index != operand.RegInvalid {
		index = ctx.Register(d.Mem.Index)
	}
	addr := base + index*uint64(d.Mem.Scale) + uint64(d.Mem.Disp)

	if !mem.Readable(addr, int(d.Width)) {
		return 0, false
	}

	var buf [8]byte
	switch d.Width {
	case 1:
		mem.Read(addr, buf[:1])
		return uint64(buf[0]), true
	case 2:
		mem.Read(addr, buf[:2])
		return uint64(buf[0]) | uint64(buf[1])<<8, true
	case 4:
		mem.Read(addr, buf[:4])
		return uint64(buf[0]) | uint64(buf[1])<<8 |
			uint64(buf[2])<<16 | uint64(buf[3])<<24, true
	case 8:
		mem.Read(addr, buf[:8])
		return uint64(buf[0]) | uint64(buf[1])<<8 |
			uint64(buf[2])<<16 | uint64(buf[3])<<24 |
			uint64(buf[4])<<32 | uint64(buf[5])<<40 |
			uint64(buf[6])<<48 | uint64(buf[7])<<56, true
	}
	panic(fmt.Sprintf("cmplog: invalid operand width %d", d.Width))
}

// CallPayloads captures the two routine-call argument payloads.
//
// The designated argument registers are read as candidate pointers. Before
// dereferencing, each pointer is checked for address-space overflow (a
// value within CallPayloadLen of the top of the address space cannot hold
// a full payload) and for readability of the full payload length. If
// either pointer fails either check the event is dropped: ok is false and
// the buffers are untouched.
//
//go:nosplit
func CallPayloads(ctx Context, mem Memory, v0, v1 *[tracestore.CallPayloadLen]byte) (ok bool) {
	p0 := ctx.Register(operand.ArgReg0)
	p1 := ctx.Register(operand.ArgReg1)

	if math.MaxUint64-p0 < tracestore.CallPayloadLen || math.MaxUint64-p1 < tracestore.CallPayloadLen {
		return false
	}
	if !mem.Readable(p0, tracestore.CallPayloadLen) || !mem.Readable(p1, tracestore.CallPayloadLen) {
		return false
	}

	mem.Read(p0, v0[:])
	mem.Read(p1, v1[:])
	return true
}
