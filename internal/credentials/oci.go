package credentials

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"go.uber.org/zap"
)

const (
	// DefaultProbeTimeout bounds the metadata service reachability check.
	DefaultProbeTimeout = 2 * time.Second

	// instanceMetadataURL is the OCI instance metadata service (IMDS v2).
	instanceMetadataURL = "http://169.254.169.254/opc/v2/instance/"
)

// OCIBuilder builds real OCI SDK configuration providers.
type OCIBuilder struct {
	// MetadataURL is the endpoint probed to detect OCI compute.
	MetadataURL string
	// ProbeTimeout bounds the probe.
	ProbeTimeout time.Duration
	// Client performs the probe.
	Client *http.Client
}

// NewOCIBuilder returns an OCIBuilder probing the instance metadata service.
func NewOCIBuilder(probeTimeout time.Duration) *OCIBuilder {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	return &OCIBuilder{
		MetadataURL:  instanceMetadataURL,
		ProbeTimeout: probeTimeout,
		Client:       &http.Client{},
	}
}

// ProbeEnvironment checks whether the instance metadata service answers.
func (b *OCIBuilder) ProbeEnvironment(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, b.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.MetadataURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer Oracle")

	resp, err := b.Client.Do(req)
	if err != nil {
		zap.L().Debug("OCI metadata probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// BuildInstancePrincipal fetches instance principal credentials through the SDK.
func (b *OCIBuilder) BuildInstancePrincipal(_ context.Context) (*InstancePrincipal, error) {
	conf, err := auth.InstancePrincipalConfigurationProvider()
	if err != nil {
		return nil, fmt.Errorf("creating instance principal provider: %w", err)
	}

	return NewInstancePrincipal(conf), nil
}

// BuildConfigFile loads profile from the config file at path and checks it is complete.
func (b *OCIBuilder) BuildConfigFile(path, profile string) (*ConfigFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading OCI config file: %w", err)
	}

	conf, err := common.ConfigurationProviderFromFileWithProfile(path, profile, "")
	if err != nil {
		return nil, fmt.Errorf("loading profile %q from %s: %w", profile, path, err)
	}
	if ok, err := common.IsConfigurationProviderValid(conf); !ok {
		return nil, fmt.Errorf("profile %q in %s is not usable: %w", profile, path, err)
	}

	return NewConfigFile(path, profile, conf), nil
}
