// Package logwriter applies resolved probe events to the shared trace
// store.
//
// The writer is the tail of the probe path: by the time it runs, operand
// resolution has already succeeded or the event was dropped, so nothing
// here can fail. Both entry points follow the same header discipline:
//
//  1. Hash the code address into a slot.
//  2. If the slot's category differs from the event's, retag the slot and
//     reset its hit counter, abandoning the previous category's entries.
//  3. On the first hit of the (possibly fresh) category, record the shape.
//  4. Increment the hit counter, wrapping at the uint32 boundary.
//  5. Write the pair at the ring position selected by the pre-increment
//     counter masked to the ring capacity, overwriting whatever was there.
//
// No locks, no atomics, no allocation: concurrent writers to the same slot
// tear each other's updates and that is accepted, exactly as with the rest
// of the store.
package logwriter

import "github.com/kolkov/cmptrace/internal/cmplog/tracestore"

// Compare records one value-compare event: the two resolved operand values
// of a single dynamic execution at the given code address, with the first
// operand's declared byte width.
//
//go:nosplit
func Compare(m *tracestore.Map, addr uint64, width uint8, v0, v1 uint64) {
	k := tracestore.SlotIndex(addr)
	h := &m.Headers[k]

	if h.Category != tracestore.CatValueCompare {
		h.Category = tracestore.CatValueCompare
		h.Hits = 0
	}

	hits := h.Hits
	if hits == 0 {
		h.Shape = width - 1
	}
	h.Hits = hits + 1

	e := &m.CompareLog[k][hits&(tracestore.CompareRingLen-1)]
	e.V0 = v0
	e.V1 = v1
}

// Call records one routine-call event: the two captured argument payloads
// at the given code address. The payload buffers are copied into the ring;
// the caller keeps ownership of its scratch buffers.
//
//go:nosplit
func Call(m *tracestore.Map, addr uint64, v0, v1 *[tracestore.CallPayloadLen]byte) {
	k := tracestore.SlotIndex(addr)
	h := &m.Headers[k]

	if h.Category != tracestore.CatRoutineCall {
		h.Category = tracestore.CatRoutineCall
		h.Hits = 0
	}

	hits := h.Hits
	if hits == 0 {
		h.Shape = tracestore.CallShape
	}
	h.Hits = hits + 1

	e := &m.CallLog[k][hits&(tracestore.CallRingLen-1)]
	e.V0 = *v0
	e.V1 = *v1
	e.V0Len = tracestore.CallPayloadLen
	e.V1Len = tracestore.CallPayloadLen
}
