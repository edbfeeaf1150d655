// Package tracestore implements the process-wide shared trace map that
// comparison probes write into and the external mutation engine mines.
//
// The store is a fixed-size table of code-location slots. Each slot has a
// small header (category tag, shape, hit counter) and a fixed-capacity
// ring log whose interpretation depends on the header's category:
//
//   - CatValueCompare: pairs of unsigned integer operand values, up to
//     eight bytes each, CompareRingLen entries.
//   - CatRoutineCall: pairs of fixed-length byte payloads captured from
//     the two call-argument pointers, CallRingLen entries.
//
// # Lossiness by design
//
// A slot is selected by hashing the probe's code address into SlotCount
// buckets. Collisions are accepted and never resolved: two distinct code
// addresses may interleave their events in one slot, and a category switch
// resets the slot's hit counter, silently abandoning the previous
// category's entries. Rings overwrite on wrap. All of this is a deliberate
// precision/size trade-off; the store is a heuristic signal for input
// mutation, not a faithful trace.
//
// # No synchronization
//
// Probes run inline on whichever target thread executes the probed
// instruction, and several threads may hit the same slot concurrently.
// Headers and ring entries are mutated without locks or atomics. Torn hit
// counters and racy ring writes are tolerated for the same reason
// collisions are: adding synchronization to every comparison the target
// executes would cost far more than the occasional corrupted entry.
package tracestore
