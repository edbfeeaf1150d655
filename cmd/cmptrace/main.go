// Package main implements the cmptrace CLI tool.
//
// The cmptrace tool inspects trace-map snapshots written by the cmptrace
// capture runtime (see the cmplog package). A fuzzing harness serializes
// its shared trace map with Map.WriteTo; this tool reads the resulting
// image offline:
//
//	cmptrace dump trace.snap      # Print populated slots and their rings
//	cmptrace stats trace.snap     # Print occupancy statistics
//
// The snapshot layout is the same binary contract the mutation engine
// consumes, so the tool doubles as a debugging aid for that boundary.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kolkov/cmptrace/cmplog"
)

// errlog carries fatal CLI diagnostics. Console formatting, stderr only;
// the tool's actual output goes to stdout.
var errlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "dump":
		dumpCommand(os.Args[2:])
	case "stats":
		statsCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("cmptrace version %s\n", cmplog.Version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`cmptrace - comparison trace map inspector

USAGE:
    cmptrace <command> [arguments]

COMMANDS:
    dump       Print populated slots of a trace-map snapshot
    stats      Print occupancy statistics of a snapshot
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Show every populated slot with its logged operand pairs
    cmptrace dump trace.snap

    # Limit the dump to the first 20 populated slots
    cmptrace dump -max 20 trace.snap

    # Occupancy summary
    cmptrace stats trace.snap

ABOUT:
    The cmptrace runtime captures the operand values of comparison and
    call instructions while a target runs under dynamic binary
    instrumentation, into a fixed-size map keyed by hashed code location.
    A harness snapshots that map with Map.WriteTo; this tool renders the
    snapshot for humans. The same bytes are what the mutation engine
    mines for magic constants and string prefixes.

`)
}

// loadSnapshot reads a snapshot file into a fresh map, exiting on any
// error. Shared by the dump and stats commands.
func loadSnapshot(path string) *cmplog.Map {
	f, err := os.Open(path)
	if err != nil {
		errlog.Fatal().Err(err).Str("path", path).Msg("opening snapshot")
	}
	defer f.Close()

	m := cmplog.NewMap()
	if _, err := m.ReadFrom(f); err != nil {
		errlog.Fatal().Err(err).Str("path", path).Msg("reading snapshot")
	}
	return m
}
