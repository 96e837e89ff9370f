// Package build holds build-time information.
package build

// Version, Commit and Date default to placeholder values and are overwritten by
// linker flags in release builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
