// FILE: okube-ai/settus/gcpsecret/gcpsecret.go

// Package gcpsecret adapts Google Secret Manager to the settus vault source.
// The vault location is a project ID.
package gcpsecret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/okube-ai/settus"
)

// API represents the subset of the Secret Manager client used.
type API interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Client fetches secrets of one project.
type Client struct {
	api     API
	project string
	version string
}

// Option configures the Client.
type Option func(*Client)

// WithVersion overrides the default version (latest).
func WithVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

// New constructs a client for project.
func New(api API, project string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("gcpsecret: client is required")
	}
	c := &Client{api: api, project: project, version: "latest"}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetSecret implements settus.VaultClient. Names may be full resource names
// (projects/*/secrets/*/versions/*) or secret IDs within the project.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("gcpsecret: secret name cannot be empty")
	}
	resource := name
	if !strings.HasPrefix(name, "projects/") {
		if c.project == "" {
			return "", errors.New("gcpsecret: project must be set when using short secret names")
		}
		resource = fmt.Sprintf("projects/%s/secrets/%s/versions/%s", c.project, name, c.version)
	}

	resp, err := c.api.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return "", fmt.Errorf("gcpsecret: %w: %w", settus.ErrSecretNotFound, err)
		case codes.PermissionDenied:
			return "", fmt.Errorf("gcpsecret: %w: %w", settus.ErrAccessDenied, err)
		}
		return "", fmt.Errorf("gcpsecret: %w", err)
	}
	if resp.GetPayload() == nil || len(resp.GetPayload().GetData()) == 0 {
		return "", fmt.Errorf("gcpsecret: %w: secret %q payload empty", settus.ErrMalformedPayload, name)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Factory returns a settus.VaultClientFactory treating the vault location as
// a project ID. A credential may be an option.ClientOption or service account
// JSON bytes; nil keeps Application Default Credentials.
func Factory(clientOpts ...option.ClientOption) settus.VaultClientFactory {
	return func(ctx context.Context, location string, cred settus.Credential) (settus.VaultClient, error) {
		opts := append([]option.ClientOption{}, clientOpts...)
		switch c := cred.(type) {
		case nil:
		case option.ClientOption:
			opts = append(opts, c)
		case []byte:
			opts = append(opts, option.WithCredentialsJSON(c))
		default:
			return nil, fmt.Errorf("gcpsecret: unsupported credential type %T", cred)
		}
		sm, err := secretmanager.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("gcpsecret: failed to create client: %w", err)
		}
		return New(sm, location)
	}
}
