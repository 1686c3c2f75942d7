// Package version holds build metadata set with -ldflags -X.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Full() string {
	return Version + " (" + Commit + ") built on " + Date
}

// Banner returns the one-line identification printed by the binaries.
func Banner(program string) string {
	return fmt.Sprintf("%s %s", program, Full())
}
