package credentials

import (
	"github.com/oracle/oci-go-sdk/v65/common"
)

// Kind names a credential provider variant.
type Kind string

const (
	KindInstancePrincipal Kind = "instance_principal"
	KindConfigFile        Kind = "config_file"
)

// Provider is the credential handle used by outbound OCI clients.
//
// It is a closed set: the only implementations are *InstancePrincipal and
// *ConfigFile, so callers can switch on the concrete type exhaustively.
type Provider interface {
	Kind() Kind
	// ConfigurationProvider returns the OCI SDK provider that signs requests.
	ConfigurationProvider() common.ConfigurationProvider

	sealed()
}

// InstancePrincipal authenticates as the compute instance the server runs on.
type InstancePrincipal struct {
	conf common.ConfigurationProvider
}

// NewInstancePrincipal wraps an instance principal configuration provider.
func NewInstancePrincipal(conf common.ConfigurationProvider) *InstancePrincipal {
	return &InstancePrincipal{conf: conf}
}

func (p *InstancePrincipal) Kind() Kind { return KindInstancePrincipal }

func (p *InstancePrincipal) ConfigurationProvider() common.ConfigurationProvider { return p.conf }

func (*InstancePrincipal) sealed() {}

// ConfigFile authenticates with the key material of a profile in an OCI config file.
type ConfigFile struct {
	Path    string
	Profile string

	conf common.ConfigurationProvider
}

// NewConfigFile wraps a config-file configuration provider.
func NewConfigFile(path, profile string, conf common.ConfigurationProvider) *ConfigFile {
	return &ConfigFile{Path: path, Profile: profile, conf: conf}
}

func (p *ConfigFile) Kind() Kind { return KindConfigFile }

func (p *ConfigFile) ConfigurationProvider() common.ConfigurationProvider { return p.conf }

func (*ConfigFile) sealed() {}
