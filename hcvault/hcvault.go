// FILE: okube-ai/settus/hcvault/hcvault.go

// Package hcvault adapts a HashiCorp Vault KV v2 mount to the settus vault
// source. The vault location is the server address and the credential, when
// given, is a token.
package hcvault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/okube-ai/settus"
)

// KV is the subset of the Vault KV v2 interface the client depends on.
type KV interface {
	Get(ctx context.Context, path string) (*vaultapi.KVSecret, error)
}

// Client reads one secret per path from a KV v2 mount.
type Client struct {
	kv       KV
	field    string
	explicit bool
}

// Option configures the Client.
type Option func(*Client)

// WithField selects a concrete key in the secret data map. When omitted the
// "value" key, a lone key, or the whole map as JSON is used.
func WithField(field string) Option {
	return func(c *Client) {
		c.field = field
		c.explicit = true
	}
}

// New creates a client over the given KV accessor.
func New(kv KV, opts ...Option) (*Client, error) {
	if kv == nil {
		return nil, errors.New("hcvault: KV accessor is required")
	}
	c := &Client{kv: kv}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetSecret implements settus.VaultClient.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("hcvault: secret path cannot be empty")
	}
	secret, err := c.kv.Get(ctx, name)
	if err != nil {
		return "", mapError(err)
	}
	if secret == nil || len(secret.Data) == 0 {
		return "", fmt.Errorf("hcvault: %w: secret %q contained no data", settus.ErrSecretNotFound, name)
	}
	return c.extract(secret.Data)
}

func mapError(err error) error {
	if errors.Is(err, vaultapi.ErrSecretNotFound) {
		return fmt.Errorf("hcvault: %w: %w", settus.ErrSecretNotFound, err)
	}
	var respErr *vaultapi.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("hcvault: %w: %w", settus.ErrSecretNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("hcvault: %w: %w", settus.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("hcvault: %w", err)
}

func (c *Client) extract(data map[string]any) (string, error) {
	if c.explicit {
		value, ok := data[c.field]
		if !ok {
			return "", fmt.Errorf("hcvault: %w: field %q not found", settus.ErrSecretNotFound, c.field)
		}
		return asString(value, c.field)
	}
	if value, ok := data["value"]; ok {
		if str, err := asString(value, "value"); err == nil {
			return str, nil
		}
	}
	if len(data) == 1 {
		for key, value := range data {
			if str, err := asString(value, key); err == nil {
				return str, nil
			}
		}
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("hcvault: marshal secret: %w", err)
	}
	return string(buf), nil
}

func asString(value any, field string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("hcvault: %w: field %q is not a string", settus.ErrMalformedPayload, field)
	}
}

// Factory returns a settus.VaultClientFactory for the KV v2 engine mounted at
// mount ("secret" when empty). A credential must be a token string; nil keeps
// the token the Vault client reads from its environment.
func Factory(mount string, opts ...Option) settus.VaultClientFactory {
	if mount == "" {
		mount = "secret"
	}
	return func(_ context.Context, location string, cred settus.Credential) (settus.VaultClient, error) {
		cfg := vaultapi.DefaultConfig()
		if cfg.Error != nil {
			return nil, fmt.Errorf("hcvault: failed to read client configuration: %w", cfg.Error)
		}
		cfg.Address = location
		client, err := vaultapi.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("hcvault: failed to create client for %s: %w", location, err)
		}
		switch token := cred.(type) {
		case nil:
		case string:
			client.SetToken(token)
		default:
			return nil, fmt.Errorf("hcvault: credential must be a token string, got %T", cred)
		}
		return New(client.KVv2(mount), opts...)
	}
}
