/*
Package dagger holds a number of application level constants and shared
resources for the dagger dependency cycle finder.
*/
package dagger

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	// Name is the name of the application, used for the cli and for
	// the default log sender.
	Name = "dagger"

	// CycleSeparator joins the nodes of a cycle when cycles are
	// printed one per line.
	CycleSeparator = "."

	// DefaultQueueSize bounds the number of pending jobs in the local
	// batch queue.
	DefaultQueueSize = 1024

	// ReportPrefix is the default key prefix for stored reports.
	ReportPrefix = "cycle-reports"
)
