package cmplog

// Version information for the cmptrace runtime.
const (
	// Version is the current version of the capture runtime.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the capture engine.
type Info struct {
	// Version is the runtime version string.
	Version string

	// MapSlots is the number of code-location slots in the trace map.
	MapSlots int
}

// GetInfo returns information about the capture runtime.
//
// Example:
//
//	info := cmplog.GetInfo()
//	fmt.Printf("cmptrace %s (%d slots)\n", info.Version, info.MapSlots)
func GetInfo() Info {
	return Info{
		Version:  Version,
		MapSlots: SlotCount,
	}
}
