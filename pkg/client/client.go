package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/oci-logan/logan-mcp/internal/credentials"
	"github.com/oci-logan/logan-mcp/pkg/version"
	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"
)

var errEmptyNamespace = errors.New("object storage returned an empty namespace")

// ObjectStorage is the subset of objectstorage.ObjectStorageClient used by Client.
type ObjectStorage interface {
	GetNamespace(ctx context.Context, request objectstorage.GetNamespaceRequest) (objectstorage.GetNamespaceResponse, error)
}

// Client performs outbound OCI calls signed with a resolved credential provider.
type Client struct {
	// Region overrides the region of the credential provider when set.
	Region string

	ObjectStorageCreator func(conf common.ConfigurationProvider, region string) (ObjectStorage, error)
}

// NewClient creates and returns a new instance of the Client struct.
func NewClient(region string) *Client {
	return &Client{
		Region: region,
		ObjectStorageCreator: func(conf common.ConfigurationProvider, region string) (ObjectStorage, error) {
			c, err := objectstorage.NewObjectStorageClientWithConfigurationProvider(conf)
			if err != nil {
				return nil, err
			}
			if region != "" {
				c.SetRegion(region)
			}
			c.UserAgent = version.UserAgent()
			return &c, nil
		},
	}
}

// GetNamespace returns the Object Storage namespace of the tenancy the provider authenticates to.
// A successful call proves the credentials are accepted by OCI.
func (c *Client) GetNamespace(ctx context.Context, provider credentials.Provider) (string, error) {
	if provider == nil {
		return "", errors.New("no credential provider")
	}

	store, err := c.ObjectStorageCreator(provider.ConfigurationProvider(), c.Region)
	if err != nil {
		return "", fmt.Errorf("creating object storage client: %w", err)
	}

	resp, err := store.GetNamespace(ctx, objectstorage.GetNamespaceRequest{})
	if err != nil {
		return "", fmt.Errorf("getting object storage namespace: %w", err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return "", errEmptyNamespace
	}

	return *resp.Value, nil
}
