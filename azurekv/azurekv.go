// FILE: okube-ai/settus/azurekv/azurekv.go

// Package azurekv adapts Azure Key Vault secrets to the settus vault source.
package azurekv

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/okube-ai/settus"
)

// API is the subset of *azsecrets.Client used here.
type API interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// Client reads the latest version of named secrets from one vault.
type Client struct {
	api API
}

// New wraps an azsecrets client.
func New(api API) (*Client, error) {
	if api == nil {
		return nil, errors.New("azurekv: client is required")
	}
	return &Client{api: api}, nil
}

// GetSecret implements settus.VaultClient.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := c.api.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", mapError(err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("azurekv: %w: secret %q has no value", settus.ErrSecretNotFound, name)
	}
	return *resp.Value, nil
}

func mapError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("azurekv: %w: %w", settus.ErrSecretNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("azurekv: %w: %w", settus.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("azurekv: %w", err)
}

// DefaultCredential is a settus.CredentialProvider backed by the Azure
// default credential chain (environment, workload identity, managed identity,
// Azure CLI).
func DefaultCredential(_ context.Context) (settus.Credential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azurekv: failed to create default credential: %w", err)
	}
	return cred, nil
}

// Factory returns a settus.VaultClientFactory for vault URLs such as
// https://my-vault.vault.azure.net/. A credential must be an
// azcore.TokenCredential; nil falls back to DefaultCredential.
func Factory(clientOpts *azsecrets.ClientOptions) settus.VaultClientFactory {
	return func(ctx context.Context, location string, cred settus.Credential) (settus.VaultClient, error) {
		if cred == nil {
			var err error
			if cred, err = DefaultCredential(ctx); err != nil {
				return nil, err
			}
		}
		tc, ok := cred.(azcore.TokenCredential)
		if !ok {
			return nil, fmt.Errorf("azurekv: credential must be an azcore.TokenCredential, got %T", cred)
		}
		client, err := azsecrets.NewClient(location, tc, clientOpts)
		if err != nil {
			return nil, fmt.Errorf("azurekv: failed to create client for %s: %w", location, err)
		}
		return New(client)
	}
}
