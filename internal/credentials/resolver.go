package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "DEFAULT"

var (
	// ErrResolutionExhausted is returned when neither instance principal nor config file credentials could be built.
	ErrResolutionExhausted = errors.New("no OCI credential provider could be built")

	errNotInOCI = errors.New("not running on OCI compute")
)

// Options configures the config-file fallback.
type Options struct {
	// ConfigFilePath defaults to DefaultConfigFilePath().
	ConfigFilePath string
	// Profile defaults to DefaultProfile.
	Profile string
}

// DefaultConfigFilePath returns ~/.oci/config.
func DefaultConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}

	return filepath.Join(home, ".oci", "config")
}

func (o Options) withDefaults() Options {
	if o.ConfigFilePath == "" {
		o.ConfigFilePath = DefaultConfigFilePath()
	}
	if o.Profile == "" {
		o.Profile = DefaultProfile
	}

	return o
}

// Resolver picks the credential provider for outbound OCI calls exactly once.
//
// The first Resolve call probes the environment and builds a provider; concurrent
// callers wait for that attempt and every later call returns its memoized outcome,
// including a fatal error.
type Resolver struct {
	builder Builder
	opts    Options

	mu       sync.Mutex
	pending  chan struct{}
	resolved bool
	provider Provider
	err      error
}

// NewResolver creates a Resolver using the given capabilities.
func NewResolver(builder Builder, opts Options) *Resolver {
	return &Resolver{
		builder: builder,
		opts:    opts.withDefaults(),
	}
}

// Resolve returns the memoized provider, resolving it on first use.
// A caller whose ctx ends while another caller is resolving stops waiting with ctx.Err().
func (r *Resolver) Resolve(ctx context.Context) (provider Provider, err error) {
	r.mu.Lock()
	if r.resolved {
		defer r.mu.Unlock()
		return r.provider, r.err
	}

	if wait := r.pending; wait != nil {
		r.mu.Unlock()
		select {
		case <-wait:
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.provider, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	done := make(chan struct{})
	r.pending = done
	r.mu.Unlock()

	// Waiters are released even if a builder panics or exits the goroutine;
	// the failure is recorded as the outcome and a panic still reaches this caller.
	completed := false
	defer func() {
		var rec any
		if !completed {
			rec = recover()
			provider, err = nil, fmt.Errorf("%w: credential resolution aborted: %v", ErrResolutionExhausted, rec)
		}
		r.mu.Lock()
		r.provider, r.err = provider, err
		r.resolved = true
		r.pending = nil
		r.mu.Unlock()
		close(done)
		if rec != nil {
			panic(rec)
		}
	}()

	// The outcome is shared, so it must not depend on this caller's cancellation.
	provider, err = r.resolve(context.WithoutCancel(ctx))
	completed = true

	return provider, err
}

func (r *Resolver) resolve(ctx context.Context) (Provider, error) {
	var principalErr error
	if r.builder.ProbeEnvironment(ctx) {
		principal, err := r.builder.BuildInstancePrincipal(ctx)
		if err == nil {
			zap.L().Info("Using OCI instance principal credentials")
			return principal, nil
		}
		principalErr = fmt.Errorf("building instance principal: %w", err)
		zap.L().Warn("Instance principal unavailable, falling back to config file", zap.Error(err))
	} else {
		principalErr = errNotInOCI
		zap.L().Debug("OCI metadata service not reachable, using config file credentials")
	}

	configFile, err := r.builder.BuildConfigFile(r.opts.ConfigFilePath, r.opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionExhausted, errors.Join(principalErr, err))
	}

	zap.L().Info("Using OCI config file credentials",
		zap.String("path", configFile.Path), zap.String("profile", configFile.Profile))

	return configFile, nil
}
