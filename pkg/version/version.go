// Package version carries the build identity stamped in at link time.
package version

import "fmt"

// Populated via -ldflags at release build; the defaults identify a source
// build.
var (
	Version   = "dev"
	GitCommit = "<unknown>"
	BuildDate = "<unknown>"
)

// String renders the full build identity.
func String() string {
	return fmt.Sprintf("bslcheck %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
