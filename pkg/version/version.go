package version

import "runtime"

var (
	// Version of the server, set via ldflags at build time.
	Version = "dev"
	// GitCommit the binary was built from, set via ldflags at build time.
	GitCommit = ""
)

// GetVersion returns the server version, including the git commit if available.
func GetVersion() string {
	if GitCommit == "" {
		return Version
	}

	return Version + " (" + GitCommit + ")"
}

// UserAgent identifies the server on outbound OCI requests.
func UserAgent() string {
	return "oci-logan-mcp/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + "; " + runtime.Version() + ")"
}
