// Package cmplog provides the public API for the cmptrace comparison
// operand capture runtime.
//
// See doc.go for detailed documentation and examples.
package cmplog

import (
	"github.com/rs/zerolog"

	"github.com/kolkov/cmptrace/internal/cmplog/operand"
	"github.com/kolkov/cmptrace/internal/cmplog/probe"
	"github.com/kolkov/cmptrace/internal/cmplog/resolver"
	"github.com/kolkov/cmptrace/internal/cmplog/tracestore"
)

// Instrumentation-engine-facing types. These aliases re-export the model
// that external decoders and engines exchange with the runtime; they are
// the same types, not copies.
type (
	// Instruction is one statically decoded instruction handed to
	// Instrument by the instrumentation engine.
	Instruction = operand.Instruction

	// Operand is a decoded machine operand inside an Instruction.
	Operand = operand.Operand

	// Mem is a memory operand's addressing formula.
	Mem = operand.Mem

	// Reg identifies a machine register.
	Reg = operand.Reg

	// Kind discriminates operand forms.
	Kind = operand.Kind

	// ID is the decoder's instruction identity tag.
	ID = operand.ID

	// Context is a live register snapshot for one dynamic execution.
	Context = resolver.Context

	// Memory is guarded access to the target's address space.
	Memory = resolver.Memory

	// ReadableFunc is a host-address-space readability oracle.
	ReadableFunc = resolver.ReadableFunc

	// Iterator is the engine's callout insertion point.
	Iterator = probe.Iterator

	// Callout is an inline probe body planted through an Iterator.
	Callout = probe.Callout

	// Map is the shared trace store the probes write into.
	Map = tracestore.Map

	// Header is a trace-store slot header.
	Header = tracestore.Header

	// Category tags what a trace-store slot holds.
	Category = tracestore.Category

	// ComparePair is one value-compare ring entry.
	ComparePair = tracestore.ComparePair

	// CallOperands is one routine-call ring entry.
	CallOperands = tracestore.CallOperands

	// Stats summarizes trace-store occupancy.
	Stats = tracestore.Stats
)

// Register identifiers.
const (
	RegInvalid = operand.RegInvalid
	RegRAX     = operand.RegRAX
	RegRBX     = operand.RegRBX
	RegRCX     = operand.RegRCX
	RegRDX     = operand.RegRDX
	RegRSI     = operand.RegRSI
	RegRDI     = operand.RegRDI
	RegRBP     = operand.RegRBP
	RegRSP     = operand.RegRSP
	RegR8      = operand.RegR8
	RegR9      = operand.RegR9
	RegR10     = operand.RegR10
	RegR11     = operand.RegR11
	RegR12     = operand.RegR12
	RegR13     = operand.RegR13
	RegR14     = operand.RegR14
	RegR15     = operand.RegR15
	RegRIP     = operand.RegRIP
	RegCS      = operand.RegCS
	RegSS      = operand.RegSS
	RegDS      = operand.RegDS
	RegES      = operand.RegES
	RegFS      = operand.RegFS
	RegGS      = operand.RegGS
)

// Operand kinds.
const (
	KindInvalid   = operand.KindInvalid
	KindRegister  = operand.KindRegister
	KindImmediate = operand.KindImmediate
	KindMemory    = operand.KindMemory
)

// Instruction identities.
const (
	IDOther = operand.IDOther
	IDCall  = operand.IDCall
	IDCmp   = operand.IDCmp
	IDSub   = operand.IDSub
	IDScasB = operand.IDScasB
	IDScasW = operand.IDScasW
	IDScasD = operand.IDScasD
	IDScasQ = operand.IDScasQ
	IDCmpsB = operand.IDCmpsB
	IDCmpsW = operand.IDCmpsW
	IDCmpsD = operand.IDCmpsD
	IDCmpsQ = operand.IDCmpsQ
	IDCmpsS = operand.IDCmpsS
)

// Trace-store layout constants and category tags.
const (
	SlotCount      = tracestore.SlotCount
	CompareRingLen = tracestore.CompareRingLen
	CallRingLen    = tracestore.CallRingLen
	CallPayloadLen = tracestore.CallPayloadLen
	CallShape      = tracestore.CallShape

	CatEmpty        = tracestore.CatEmpty
	CatValueCompare = tracestore.CatValueCompare
	CatRoutineCall  = tracestore.CatRoutineCall
)

// CmpLog is the instrumentation entry point. See New.
type CmpLog = probe.CmpLog

// NewMap allocates a zeroed trace store. The harness owns the map and
// keeps it for the life of the process; probes only reference it.
func NewMap() *Map {
	return tracestore.New()
}

// SlotIndex exposes the pure code-address-to-slot hash, mainly for
// downstream consumers that mine the map and need to correlate slots with
// known code addresses.
func SlotIndex(addr uint64) uint32 {
	return tracestore.SlotIndex(addr)
}

// Option configures a CmpLog built by New.
type Option func(*config)

type config struct {
	mem resolver.Memory
	log zerolog.Logger
}

// WithMemory supplies the guarded target-memory access used by memory
// operand resolution and call-payload capture. Engines that run the
// target in-process usually pass HostMemory; emulator-backed engines pass
// their own implementation.
func WithMemory(mem Memory) Option {
	return func(c *config) { c.mem = mem }
}

// WithLogger sets the planning-time logger. Probe callouts never log, so
// this only affects instrumentation-time diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// HostMemory returns target-memory access over the probe's own address
// space, guarded by the given readability oracle.
func HostMemory(readable ReadableFunc) Memory {
	return resolver.NewHostMemory(readable)
}

// New builds an instrumentation entry point over the given trace store.
//
// A nil store disables the runtime: Instrument becomes a no-op for every
// instruction, which is how a harness runs with the feature off without
// special-casing its instrumentation loop.
//
// By default the entry point has no target-memory access, meaning memory
// operands and call payloads never resolve (register and immediate
// operands still do); pass WithMemory for full capture. The default
// logger is disabled.
func New(store *Map, opts ...Option) *CmpLog {
	c := config{
		mem: noMemory{},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return probe.New(store, c.mem, c.log)
}

// noMemory is the default Memory: nothing is readable. It keeps the
// resolver's dereference paths unreachable rather than making mem a nil
// check on the hot path.
type noMemory struct{}

func (noMemory) Readable(uint64, int) bool { return false }
func (noMemory) Read(uint64, []byte)       {}
