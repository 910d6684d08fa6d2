// Package pathfinder provides the version information for the pathfinder service.
package pathfinder

// Version is the current version of pathfinder.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
