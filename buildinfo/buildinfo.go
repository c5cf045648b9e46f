// Package buildinfo exposes the build metadata stamped into the goflow
// binary at link time.
package buildinfo

// Properties describes one build of the binary.
type Properties struct {
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Overwritten via -ldflags "-X github.com/nomis52/goflow/buildinfo.buildTime=..."
// and the matching gitCommit flag; "unknown" means a plain `go build`.
var (
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Get reports what this binary was built from.
func Get() Properties {
	return Properties{
		BuildTime: buildTime,
		GitCommit: gitCommit,
	}
}
