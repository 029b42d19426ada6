// FILE: okube-ai/settus/awssm/awssm.go

// Package awssm adapts AWS Secrets Manager to settus. A Client serves both as
// a secrets-manager bundle client and, through Factory, as a vault client
// whose location is an AWS region.
package awssm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"

	"github.com/okube-ai/settus"
)

// API captures the subset of the AWS Secrets Manager client used here.
// *secretsmanager.Client satisfies this interface.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Client reads secret payloads from AWS Secrets Manager.
type Client struct {
	api          API
	versionStage *string
	callOpts     []func(*secretsmanager.Options)
}

// Option configures the Client.
type Option func(*Client)

// WithVersionStage requests a specific version stage (defaults to AWSCURRENT).
func WithVersionStage(stage string) Option {
	return func(c *Client) {
		if stage != "" {
			c.versionStage = aws.String(stage)
		}
	}
}

// WithClientOptions forwards Secrets Manager call options to each fetch.
func WithClientOptions(opts ...func(*secretsmanager.Options)) Option {
	return func(c *Client) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// New wraps an existing Secrets Manager client.
func New(api API, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("awssm: client is required")
	}
	c := &Client{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a Client from the ambient AWS configuration chain.
func NewFromConfig(ctx context.Context, loadOpts []func(*config.LoadOptions) error, opts ...Option) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("awssm: failed to load AWS configuration: %w", err)
	}
	return New(secretsmanager.NewFromConfig(cfg), opts...)
}

// GetSecretString implements settus.SecretsManagerClient.
func (c *Client) GetSecretString(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("awssm: secret id cannot be empty")
	}
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(name),
		VersionStage: c.versionStage,
	}
	out, err := c.api.GetSecretValue(ctx, input, c.callOpts...)
	if err != nil {
		return "", mapError(err)
	}
	if out.SecretString != nil {
		return aws.ToString(out.SecretString), nil
	}
	if len(out.SecretBinary) > 0 {
		return string(out.SecretBinary), nil
	}
	return "", fmt.Errorf("awssm: %w: secret %q contained no payload", settus.ErrMalformedPayload, name)
}

// GetSecret implements settus.VaultClient.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	return c.GetSecretString(ctx, name)
}

// mapError classifies missing and forbidden secrets for settus.
func mapError(err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("awssm: %w: %w", settus.ErrSecretNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException" {
		return fmt.Errorf("awssm: %w: %w", settus.ErrAccessDenied, err)
	}
	return fmt.Errorf("awssm: %w", err)
}

// Factory returns a settus.VaultClientFactory treating the vault location as
// an AWS region. A credential must be an aws.CredentialsProvider; nil keeps
// the default chain.
func Factory(loadOpts ...func(*config.LoadOptions) error) settus.VaultClientFactory {
	return func(ctx context.Context, location string, cred settus.Credential) (settus.VaultClient, error) {
		opts := append([]func(*config.LoadOptions) error{}, loadOpts...)
		opts = append(opts, config.WithRegion(location))
		switch c := cred.(type) {
		case nil:
		case aws.CredentialsProvider:
			opts = append(opts, config.WithCredentialsProvider(c))
		default:
			return nil, fmt.Errorf("awssm: credential must be an aws.CredentialsProvider, got %T", cred)
		}
		return NewFromConfig(ctx, opts)
	}
}
