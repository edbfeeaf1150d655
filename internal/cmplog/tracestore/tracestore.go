package tracestore

// Store geometry. All counts are compile-time powers of two so that slot
// and ring indices reduce to a mask.
const (
	// SlotCount is the number of code-location slots in the map.
	SlotCount = 1 << 16

	// CompareRingLen is the ring capacity of a value-compare slot.
	CompareRingLen = 32

	// CallRingLen is the ring capacity of a routine-call slot.
	CallRingLen = 32

	// CallPayloadLen is the number of bytes captured from each
	// call-argument pointer. Both length fields of every call entry are
	// always exactly this value in the current design.
	CallPayloadLen = 31

	// CallShape is the fixed shape sentinel stored in a routine-call
	// slot's header, marking its ring entries as byte-buffer payloads.
	CallShape = 30
)

// Category tags what kind of events a slot currently holds. The numeric
// values are part of the binary layout contract with the downstream
// mutation engine and must not change.
type Category uint8

const (
	// CatEmpty marks a slot that has never received an event.
	CatEmpty Category = 0

	// CatValueCompare marks a slot holding integer operand pairs from
	// compare/subtract/string-scan instructions.
	CatValueCompare Category = 1

	// CatRoutineCall marks a slot holding byte-buffer pairs captured at
	// call sites.
	CatRoutineCall Category = 2
)

// String returns the category name for diagnostics and dump output.
func (c Category) String() string {
	switch c {
	case CatEmpty:
		return "empty"
	case CatValueCompare:
		return "cmp"
	case CatRoutineCall:
		return "rtn"
	}
	return "category(?)"
}

// Header is the per-slot bookkeeping record.
//
// Shape is only meaningful while Category != CatEmpty: for value-compare
// slots it encodes the operand byte-width minus one, for routine-call
// slots it is the fixed CallShape sentinel.
//
// Hits counts every event the slot has received since its category was
// last (re)established. It is reset exactly when an incoming event's
// category differs from the stored one, and otherwise increments without
// bound, wrapping at the uint32 boundary; only its low bits (masked by the
// ring capacity) select the write position.
type Header struct {
	Category Category
	Shape    uint8
	_        [2]uint8 // pad: keeps the header 8 bytes, matching the external layout
	Hits     uint32
}

// ComparePair is one value-compare ring entry: the two resolved operand
// values of a single dynamic execution, zero-extended to 64 bits.
type ComparePair struct {
	V0 uint64
	V1 uint64
}

// CallOperands is one routine-call ring entry: the leading bytes of the
// two buffers the call's argument registers pointed at. The length fields
// are explicit in the layout even though the current design always
// captures exactly CallPayloadLen bytes.
type CallOperands struct {
	V0    [CallPayloadLen]byte
	V1    [CallPayloadLen]byte
	V0Len uint8
	V1Len uint8
}

// Map is the shared trace store: SlotCount headers parallel to SlotCount
// ring logs per category. It is allocated once by the fuzzing harness
// before instrumentation begins, referenced (never owned) by every probe,
// and lives for the duration of the process.
//
// The field order and element layouts are a binary contract with the
// downstream consumer; see WriteTo for the serialized form.
//
// No field of Map is protected by any lock. See the package documentation
// for the intentional-race semantics.
type Map struct {
	Headers    [SlotCount]Header
	CompareLog [SlotCount][CompareRingLen]ComparePair
	CallLog    [SlotCount][CallRingLen]CallOperands
}

// New allocates a zeroed trace store. Every header starts as CatEmpty.
func New() *Map {
	return &Map{}
}

// Reset zeroes every header, abandoning all logged entries.
//
// Ring contents are deliberately left in place: with Hits back at zero
// they are stale by definition and will be overwritten before they are
// ever considered valid again. Not safe against concurrent probe writes;
// intended for harness checkpoints and tests.
func (m *Map) Reset() {
	m.Headers = [SlotCount]Header{}
}

// FNV-1a constants, written out here instead of importing hash/fnv: the
// stdlib constructor allocates through the hash.Hash interface, and
// SlotIndex runs on every probed comparison the target executes.
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// SlotIndex reduces a probe's code address to its slot, by FNV-1a over the
// address's little-endian bytes masked to the table size.
//
// The function is pure and deterministic: the same address always maps to
// the same slot, in every thread and across the life of the process. That
// is what lets the downstream consumer correlate entries with code
// locations (up to hash collisions).
//
//go:nosplit
func SlotIndex(addr uint64) uint32 {
	h := uint64(fnvOffset64)
	for i := 0; i < 64; i += 8 {
		h ^= (addr >> i) & 0xff
		h *= fnvPrime64
	}
	return uint32(h & (SlotCount - 1))
}

// Stats summarizes map occupancy. Computed by a full scan; never call it
// from a probe path.
type Stats struct {
	CompareSlots int    // slots currently tagged CatValueCompare
	CallSlots    int    // slots currently tagged CatRoutineCall
	TotalHits    uint64 // sum of all slot hit counters
}

// CollectStats scans all headers and returns occupancy statistics.
//
// The scan takes no locks; counts are approximate if probes are writing
// concurrently, which is fine for the reporting paths that use them.
func (m *Map) CollectStats() Stats {
	var s Stats
	for i := range m.Headers {
		h := &m.Headers[i]
		switch h.Category {
		case CatValueCompare:
			s.CompareSlots++
		case CatRoutineCall:
			s.CallSlots++
		}
		s.TotalHits += uint64(h.Hits)
	}
	return s
}
