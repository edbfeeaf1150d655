// Package operand defines the static instruction model that the probe
// planner consumes.
//
// The dynamic instrumentation engine walks the target's machine code and,
// for every discovered instruction, hands the planner an Instruction value
// produced by its decoder: the instruction's identity, its code address,
// and one Operand per machine operand. Nothing in this package touches the
// running target; everything here is instrumentation-time metadata.
//
// Descriptor is the plan-owned copy of an Operand. Operands belong to the
// decoder and may be reused between instructions; a Descriptor is copied
// out of them exactly once, when a probe plan is built, and is immutable
// afterwards.
package operand

// Reg identifies a machine register in decoder output and in register
// context snapshots. The set below covers the x86-64 registers the capture
// engine can name: the sixteen general-purpose registers, the instruction
// pointer, and the six segment registers (segment registers only ever
// appear as memory-operand overrides, never as value sources).
type Reg uint16

const (
	// RegInvalid marks an absent register, e.g. a memory operand with no
	// index, or no segment override.
	RegInvalid Reg = iota

	RegRAX
	RegRBX
	RegRCX
	RegRDX
	RegRSI
	RegRDI
	RegRBP
	RegRSP
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15
	RegRIP

	RegCS
	RegSS
	RegDS
	RegES
	RegFS
	RegGS
)

// Designated argument registers for routine-call capture.
//
// Call probes always read the first two integer argument registers of the
// SysV AMD64 calling convention as candidate pointer values. This matches
// the common shape of the string/memory comparison routines the capture is
// aimed at (strcmp, memcmp and friends take both operands in RDI/RSI).
const (
	ArgReg0 = RegRDI
	ArgReg1 = RegRSI
)

// regNames is indexed by Reg. Kept in a table so String stays allocation
// free for known registers.
var regNames = [...]string{
	RegInvalid: "invalid",
	RegRAX:     "rax",
	RegRBX:     "rbx",
	RegRCX:     "rcx",
	RegRDX:     "rdx",
	RegRSI:     "rsi",
	RegRDI:     "rdi",
	RegRBP:     "rbp",
	RegRSP:     "rsp",
	RegR8:      "r8",
	RegR9:      "r9",
	RegR10:     "r10",
	RegR11:     "r11",
	RegR12:     "r12",
	RegR13:     "r13",
	RegR14:     "r14",
	RegR15:     "r15",
	RegRIP:     "rip",
	RegCS:      "cs",
	RegSS:      "ss",
	RegDS:      "ds",
	RegES:      "es",
	RegFS:      "fs",
	RegGS:      "gs",
}

// String returns the conventional lower-case register mnemonic.
func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "reg(?)"
}

// Kind discriminates the three supported operand forms plus the decoder's
// "invalid" sentinel.
type Kind uint8

const (
	// KindInvalid is the decoder's sentinel for a missing operand.
	// The planner treats it as "do not instrument", never as an error.
	KindInvalid Kind = iota

	// KindRegister is a direct register operand.
	KindRegister

	// KindImmediate is a constant encoded in the instruction.
	KindImmediate

	// KindMemory is a memory operand described by an addressing formula.
	KindMemory
)

// String returns the operand kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindRegister:
		return "register"
	case KindImmediate:
		return "immediate"
	case KindMemory:
		return "memory"
	}
	return "kind(?)"
}

// Mem is the addressing formula of a memory operand:
//
//	effective address = base + index*scale + disp
//
// Absent registers are RegInvalid and contribute zero. Segment is the
// segment-override register, or RegInvalid when the operand has none;
// segment-relative addressing is never resolved by this engine.
type Mem struct {
	Segment Reg
	Base    Reg
	Index   Reg
	Scale   int32
	Disp    int64
}

// Operand is one decoded machine operand as supplied by the decoder.
// Width is the operand size in bytes (1, 2, 4 or 8 for everything the
// planner accepts). Exactly one of Reg, Imm and Mem is meaningful,
// selected by Kind.
type Operand struct {
	Kind  Kind
	Width uint8

	Reg Reg
	Imm uint64
	Mem Mem
}

// Descriptor is the immutable, plan-owned copy of an Operand.
//
// It carries exactly the fields the runtime resolver needs to recover the
// operand's concrete value from a live register context: the kind tag, the
// declared width, and the kind-specific payload. Descriptors are built by
// the planner at instrumentation time and are never mutated afterwards, so
// they are safe to share with every concurrent execution of the probe.
type Descriptor struct {
	Kind  Kind
	Width uint8

	Reg Reg
	Imm uint64
	Mem Mem
}

// ID is the decoder's instruction identity tag, restricted to the
// instruction universe this engine cares about. Anything else is IDOther
// and is never instrumented.
type ID uint16

const (
	IDOther ID = iota

	// IDCall is a near or indirect call.
	IDCall

	// Value-compare candidates: explicit compares, subtraction, and the
	// implicit compares performed by the string-scan/string-compare
	// instruction families.
	IDCmp
	IDSub
	IDScasB
	IDScasW
	IDScasD
	IDScasQ
	IDCmpsB
	IDCmpsW
	IDCmpsD
	IDCmpsQ
	IDCmpsS
)

var idNames = [...]string{
	IDOther: "other",
	IDCall:  "call",
	IDCmp:   "cmp",
	IDSub:   "sub",
	IDScasB: "scasb",
	IDScasW: "scasw",
	IDScasD: "scasd",
	IDScasQ: "scasq",
	IDCmpsB: "cmpsb",
	IDCmpsW: "cmpsw",
	IDCmpsD: "cmpsd",
	IDCmpsQ: "cmpsq",
	IDCmpsS: "cmpss",
}

// String returns the instruction mnemonic for diagnostics.
func (id ID) String() string {
	if int(id) < len(idNames) {
		return idNames[id]
	}
	return "insn(?)"
}

// Instruction is one statically decoded instruction: its code address, its
// identity, and its decoded operands in encoding order.
//
// The Operands slice is owned by the decoder and is only valid for the
// duration of the planner call; plans copy what they need.
type Instruction struct {
	Addr     uint64
	ID       ID
	Operands []Operand
}
