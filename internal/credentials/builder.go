package credentials

import (
	"context"
)

//go:generate go tool -modfile ../../gotools/mockgen/go.mod mockgen -source=builder.go -destination=builder_mock_test.go -package=credentials

// Builder is the set of capabilities the Resolver needs to pick a provider.
type Builder interface {
	// ProbeEnvironment reports whether the process runs inside OCI compute.
	// It must be bounded by a timeout and report false on any failure.
	ProbeEnvironment(ctx context.Context) bool
	// BuildInstancePrincipal builds the instance principal provider.
	BuildInstancePrincipal(ctx context.Context) (*InstancePrincipal, error)
	// BuildConfigFile builds a provider from profile in the config file at path.
	BuildConfigFile(path, profile string) (*ConfigFile, error)
}
