package main

import (
	"fmt"
	"os"

	"github.com/kolkov/cmptrace/cmplog"
)

// statsCommand implements 'cmptrace stats': a one-screen occupancy
// summary of a snapshot.
func statsCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cmptrace stats <snapshot>")
		os.Exit(1)
	}

	m := loadSnapshot(args[0])
	s := m.CollectStats()

	populated := s.CompareSlots + s.CallSlots
	fmt.Printf("slots:     %d/%d populated (%.1f%%)\n",
		populated, cmplog.SlotCount, 100*float64(populated)/float64(cmplog.SlotCount))
	fmt.Printf("  compare: %d\n", s.CompareSlots)
	fmt.Printf("  call:    %d\n", s.CallSlots)
	fmt.Printf("hits:      %d total\n", s.TotalHits)
	if populated > 0 {
		fmt.Printf("           %.1f per populated slot\n", float64(s.TotalHits)/float64(populated))
	}
}
