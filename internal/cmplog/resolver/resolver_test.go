package resolver

import (
	"math"
	"runtime"
	"testing"
	"unsafe"

	"github.com/kolkov/cmptrace/internal/cmplog/operand"
	"github.com/kolkov/cmptrace/internal/cmplog/tracestore"
)

// regContext is a register snapshot backed by a plain map; absent
// registers read as zero, like a zeroed engine context.
type regContext map[operand.Reg]uint64

func (c regContext) Register(r operand.Reg) uint64 { return c[r] }

// sparseMemory is target memory backed by a byte-per-address map. A range
// is readable iff every byte of it was populated.
type sparseMemory map[uint64]byte

func (m sparseMemory) Readable(addr uint64, length int) bool {
	for i := 0; i < length; i++ {
		if _, ok := m[addr+uint64(i)]; !ok {
			return false
		}
	}
	return true
}

func (m sparseMemory) Read(addr uint64, buf []byte) {
	for i := range buf {
		buf[i] = m[addr+uint64(i)]
	}
}

// fill populates memory with consecutive bytes starting at addr.
func (m sparseMemory) fill(addr uint64, data []byte) {
	for i, b := range data {
		m[addr+uint64(i)] = b
	}
}

// TestRegisterOperand verifies direct register reads never fail.
func TestRegisterOperand(t *testing.T) {
	ctx := regContext{operand.RegRBX: 0xcafebabe}
	d := &operand.Descriptor{Kind: operand.KindRegister, Width: 8, Reg: operand.RegRBX}

	v, ok := Operand(ctx, sparseMemory{}, d)
	if !ok {
		t.Fatal("register operand did not resolve")
	}
	if v != 0xcafebabe {
		t.Errorf("value = %#x, want 0xcafebabe", v)
	}
}

// TestImmediateOperand verifies the statically captured constant comes
// back untouched.
func TestImmediateOperand(t *testing.T) {
	d := &operand.Descriptor{Kind: operand.KindImmediate, Width: 4, Imm: 0x1337}

	v, ok := Operand(regContext{}, sparseMemory{}, d)
	if !ok {
		t.Fatal("immediate operand did not resolve")
	}
	if v != 0x1337 {
		t.Errorf("value = %#x, want 0x1337", v)
	}
}

// TestMemoryOperandFormula verifies base + index*scale + disp addressing
// and little-endian reads at every supported width.
func TestMemoryOperandFormula(t *testing.T) {
	ctx := regContext{
		operand.RegRBP: 0x1000,
		operand.RegRCX: 0x10,
	}
	mem := sparseMemory{}
	// base 0x1000 + index 0x10 * scale 4 + disp 8 = 0x1048.
	mem.fill(0x1048, []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88})

	formula := operand.Mem{
		Base:  operand.RegRBP,
		Index: operand.RegRCX,
		Scale: 4,
		Disp:  8,
	}

	tests := []struct {
		width uint8
		want  uint64
	}{
		{1, 0x11},
		{2, 0x2211},
		{4, 0x44332211},
		{8, 0x8877665544332211},
	}

	for _, tt := range tests {
		d := &operand.Descriptor{Kind: operand.KindMemory, Width: tt.width, Mem: formula}
		v, ok := Operand(ctx, mem, d)
		if !ok {
			t.Fatalf("width-%d memory operand did not resolve", tt.width)
		}
		if v != tt.want {
			t.Errorf("width %d: value = %#x, want %#x", tt.width, v, tt.want)
		}
	}
}

// TestMemoryOperandAbsentRegisters verifies absent base and index default
// to zero in the address computation.
func TestMemoryOperandAbsentRegisters(t *testing.T) {
	mem := sparseMemory{}
	mem.fill(0x2000, []byte{0xaa, 0xbb})

	// Pure displacement: no base, no index.
	d := &operand.Descriptor{
		Kind:  operand.KindMemory,
		Width: 2,
		Mem:   operand.Mem{Disp: 0x2000},
	}

	v, ok := Operand(regContext{}, mem, d)
	if !ok {
		t.Fatal("displacement-only memory operand did not resolve")
	}
	if v != 0xbbaa {
		t.Errorf("value = %#x, want 0xbbaa", v)
	}
}

// TestMemoryOperandNegativeDisp verifies negative displacements wrap the
// unsigned address arithmetic the same way the hardware does.
func TestMemoryOperandNegativeDisp(t *testing.T) {
	ctx := regContext{operand.RegRSP: 0x3000}
	mem := sparseMemory{}
	mem.fill(0x2ff8, []byte{0x01, 0x02, 0x03, 0x04})

	d := &operand.Descriptor{
		Kind:  operand.KindMemory,
		Width: 4,
		Mem:   operand.Mem{Base: operand.RegRSP, Disp: -8},
	}

	v, ok := Operand(ctx, mem, d)
	if !ok {
		t.Fatal("negative-displacement operand did not resolve")
	}
	if v != 0x04030201 {
		t.Errorf("value = %#x, want 0x04030201", v)
	}
}

// TestMemoryUnreadableDrops verifies an oracle rejection is a silent
// per-event drop, not an error and not a crash.
func TestMemoryUnreadableDrops(t *testing.T) {
	mem := sparseMemory{}
	mem.fill(0x4000, []byte{0x01, 0x02}) // only 2 of 4 bytes present

	d := &operand.Descriptor{
		Kind:  operand.KindMemory,
		Width: 4,
		Mem:   operand.Mem{Disp: 0x4000},
	}

	if _, ok := Operand(regContext{}, mem, d); ok {
		t.Error("partially readable memory operand resolved, want drop")
	}
}

// TestInvalidWidthFatal verifies a width outside {1,2,4,8} is a contract
// violation, never a runtime skip.
func TestInvalidWidthFatal(t *testing.T) {
	mem := sparseMemory{}
	mem.fill(0x5000, []byte{1, 2, 3})

	d := &operand.Descriptor{
		Kind:  operand.KindMemory,
		Width: 3,
		Mem:   operand.Mem{Disp: 0x5000},
	}

	defer func() {
		if recover() == nil {
			t.Error("width-3 memory operand did not panic")
		}
	}()
	Operand(regContext{}, mem, d)
}

// TestUnsupportedKindFatal verifies a descriptor kind outside the
// supported set panics.
func TestUnsupportedKindFatal(t *testing.T) {
	d := &operand.Descriptor{Kind: operand.Kind(77), Width: 4}

	defer func() {
		if recover() == nil {
			t.Error("unsupported descriptor kind did not panic")
		}
	}()
	Operand(regContext{}, sparseMemory{}, d)
}

// TestCallPayloads verifies the happy path: both argument registers point
// at readable buffers and both payloads are captured in full.
func TestCallPayloads(t *testing.T) {
	mem := sparseMemory{}
	want0 := make([]byte, tracestore.CallPayloadLen)
	want1 := make([]byte, tracestore.CallPayloadLen)
	copy(want0, "secret-token-the-target-checks")
	copy(want1, "whatever-the-fuzzer-sent-it")
	mem.fill(0x6000, want0)
	mem.fill(0x7000, want1)

	ctx := regContext{
		operand.ArgReg0: 0x6000,
		operand.ArgReg1: 0x7000,
	}

	var v0, v1 [tracestore.CallPayloadLen]byte
	if !CallPayloads(ctx, mem, &v0, &v1) {
		t.Fatal("CallPayloads dropped a fully readable event")
	}

	if string(v0[:]) != string(want0) {
		t.Errorf("v0 = %q, want %q", v0[:], want0)
	}
	if string(v1[:]) != string(want1) {
		t.Errorf("v1 = %q, want %q", v1[:], want1)
	}
}

// TestCallPayloadOverflowGuard verifies a pointer within the payload
// length of address-space overflow drops the event before any oracle
// query or read.
func TestCallPayloadOverflowGuard(t *testing.T) {
	ctx := regContext{
		operand.ArgReg0: math.MaxUint64 - tracestore.CallPayloadLen + 1,
		operand.ArgReg1: 0x7000,
	}
	mem := sparseMemory{}
	mem.fill(0x7000, make([]byte, tracestore.CallPayloadLen))

	var v0, v1 [tracestore.CallPayloadLen]byte
	if CallPayloads(ctx, mem, &v0, &v1) {
		t.Error("CallPayloads captured a near-overflow pointer, want drop")
	}
}

// TestCallPayloadUnreadableGuard verifies an unreadable pointer on either
// side drops the whole event.
func TestCallPayloadUnreadableGuard(t *testing.T) {
	mem := sparseMemory{}
	mem.fill(0x6000, make([]byte, tracestore.CallPayloadLen))
	// 0x7000 left unmapped.

	ctx := regContext{
		operand.ArgReg0: 0x6000,
		operand.ArgReg1: 0x7000,
	}

	var v0, v1 [tracestore.CallPayloadLen]byte
	if CallPayloads(ctx, mem, &v0, &v1) {
		t.Error("CallPayloads captured with an unreadable second pointer, want drop")
	}
}

// hostRange returns the host-address range occupied by b.
func hostRange(b []byte) (base, limit uint64) {
	base = uint64(uintptr(unsafe.Pointer(&b[0])))
	return base, base + uint64(len(b))
}

// TestHostMemoryReadsOwnAddressSpace exercises the unsafe host-memory
// path against a buffer this test owns, with an oracle that only approves
// that buffer.
func TestHostMemoryReadsOwnAddressSpace(t *testing.T) {
	backing := []byte{0xde, 0xad, 0xbe, 0xef, 0x99, 0x88, 0x77, 0x66}
	base, limit := hostRange(backing)

	mem := NewHostMemory(func(addr uint64, length int) bool {
		return addr >= base && addr+uint64(length) <= limit
	})

	if !mem.Readable(base, len(backing)) {
		t.Fatal("oracle rejected the backing buffer")
	}

	buf := make([]byte, 4)
	mem.Read(base, buf)
	if buf[0] != 0xde || buf[3] != 0xef {
		t.Errorf("Read() = %x, want deadbeef", buf)
	}

	if mem.Readable(base-1, 1) || mem.Readable(limit, 1) {
		t.Error("oracle approved addresses outside the backing buffer")
	}

	runtime.KeepAlive(backing)
}

// TestNewHostMemoryRequiresOracle verifies the nil-oracle guard.
func TestNewHostMemoryRequiresOracle(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewHostMemory(nil) did not panic")
		}
	}()
	NewHostMemory(nil)
}

// BenchmarkMemoryOperand measures a full memory-operand resolution.
func BenchmarkMemoryOperand(b *testing.B) {
	ctx := regContext{operand.RegRBX: 0x1000}
	mem := sparseMemory{}
	mem.fill(0x1000, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	d := &operand.Descriptor{
		Kind:  operand.KindMemory,
		Width: 8,
		Mem:   operand.Mem{Base: operand.RegRBX},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Operand(ctx, mem, d)
	}
}
