package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kolkov/cmptrace/cmplog"
)

// dumpCommand implements 'cmptrace dump': render every populated slot of
// a snapshot. Entries print in ring order, not event order, so positions
// line up with the masked hit counter.
func dumpCommand(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	maxSlots := fs.Int("max", 0, "maximum number of populated slots to print (0 = all)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cmptrace dump [-max N] <snapshot>")
		os.Exit(1)
	}

	m := loadSnapshot(fs.Arg(0))

	printed := 0
	for k := 0; k < cmplog.SlotCount; k++ {
		h := m.Headers[k]
		if h.Category == cmplog.CatEmpty {
			continue
		}
		if *maxSlots > 0 && printed >= *maxSlots {
			fmt.Println("... (truncated, raise -max to see more)")
			break
		}
		printed++

		switch h.Category {
		case cmplog.CatValueCompare:
			fmt.Printf("slot %5d  cmp  width=%d hits=%d\n", k, h.Shape+1, h.Hits)
			for i := 0; i < liveEntries(h.Hits, cmplog.CompareRingLen); i++ {
				e := m.CompareLog[k][i]
				fmt.Printf("  [%2d] %#018x  %#018x\n", i, e.V0, e.V1)
			}
		case cmplog.CatRoutineCall:
			fmt.Printf("slot %5d  rtn  hits=%d\n", k, h.Hits)
			for i := 0; i < liveEntries(h.Hits, cmplog.CallRingLen); i++ {
				e := m.CallLog[k][i]
				fmt.Printf("  [%2d] %s\n       %s\n", i,
					renderPayload(e.V0[:e.V0Len]), renderPayload(e.V1[:e.V1Len]))
			}
		default:
			fmt.Printf("slot %5d  unknown category %d (corrupt snapshot?)\n", k, h.Category)
		}
	}

	if printed == 0 {
		fmt.Println("no populated slots")
	}
}

// liveEntries bounds ring iteration: entries beyond min(hits, capacity)
// are stale and must not be interpreted.
func liveEntries(hits uint32, capacity int) int {
	if hits < uint32(capacity) {
		return int(hits)
	}
	return capacity
}

// renderPayload shows a call payload as hex plus a printable-ASCII gloss,
// the way you want it when the payload is half magic bytes, half string.
func renderPayload(p []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%x  |", p)
	for _, c := range p {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	b.WriteByte('|')
	return b.String()
}
