// FILE: okube-ai/settus/vault.go
package settus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// VaultClient reads single named secrets from a key vault. Implementations
// return ErrSecretNotFound or ErrAccessDenied (possibly wrapped) for missing
// or forbidden secrets.
type VaultClient interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// VaultClientFactory connects to the vault at location. A nil credential
// means the backend's ambient credential chain.
type VaultClientFactory func(ctx context.Context, location string, cred Credential) (VaultClient, error)

// CredentialProvider supplies the default vault credential when neither the
// field nor the options carry one.
type CredentialProvider func(ctx context.Context) (Credential, error)

// VaultSource resolves fields from a remote key vault, one secret per key.
type VaultSource struct {
	location    string
	credential  Credential
	delimiter   string
	factory     VaultClientFactory
	credentials CredentialProvider
	logger      *slog.Logger

	clients     map[string]VaultClient // location -> client built with the shared credential
	defaultCred Credential
	credLoaded  bool
}

// NewVaultSource creates a vault source. factory may be nil as long as no
// field ends up with a vault location.
func NewVaultSource(opts Options, factory VaultClientFactory, credentials CredentialProvider, logger *slog.Logger) *VaultSource {
	return &VaultSource{
		location:    opts.VaultURL,
		credential:  opts.VaultCredential,
		delimiter:   opts.VaultKeyDelimiter,
		factory:     factory,
		credentials: credentials,
		logger:      logger,
		clients:     make(map[string]VaultClient),
	}
}

// Name implements SecretSource
func (s *VaultSource) Name() Source {
	return SourceVault
}

// Resolve implements SecretSource
func (s *VaultSource) Resolve(ctx context.Context, f Field) (Resolved, error) {
	location := f.VaultURL
	if location == "" {
		location = s.location
	}
	if location == "" {
		return absent(f), nil
	}
	if s.factory == nil {
		return Resolved{}, &ConfigError{Reason: fmt.Sprintf("field %q resolves from %s", f.Name, location), Err: ErrNoVaultClient}
	}

	client, err := s.client(ctx, location, f.VaultCredential)
	if err != nil {
		return Resolved{}, err
	}

	for _, key := range f.Candidates() {
		if s.delimiter != "" && strings.Contains(key, s.delimiter) {
			continue
		}
		value, err := client.GetSecret(ctx, key)
		if err != nil {
			if IsAbsent(err) {
				s.logger.Debug("vault secret absent", "field", f.Name, "key", key, "reason", err)
				continue
			}
			return Resolved{}, &SourceError{Source: SourceVault, Key: key, Err: err}
		}

		var v any = value
		if f.Complex {
			if v, err = decodeComplex(value); err != nil {
				return Resolved{}, &SourceError{Source: SourceVault, Key: key, Err: fmt.Errorf("field %q: %w", f.Name, err)}
			}
		}
		return Resolved{Value: v, Key: key, Complex: f.Complex, Found: true}, nil
	}
	return absent(f), nil
}

// client returns a client for location. A per-field credential gets its own
// client; clients using the shared credential are reused for the lifetime of
// the source.
func (s *VaultSource) client(ctx context.Context, location string, fieldCred Credential) (VaultClient, error) {
	if fieldCred != nil {
		c, err := s.factory(ctx, location, fieldCred)
		if err != nil {
			return nil, &SourceError{Source: SourceVault, Key: location, Err: fmt.Errorf("failed to create vault client: %w", err)}
		}
		return c, nil
	}

	if c, ok := s.clients[location]; ok {
		return c, nil
	}
	cred, err := s.sharedCredential(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.factory(ctx, location, cred)
	if err != nil {
		return nil, &SourceError{Source: SourceVault, Key: location, Err: fmt.Errorf("failed to create vault client: %w", err)}
	}
	s.clients[location] = c
	return c, nil
}

func (s *VaultSource) sharedCredential(ctx context.Context) (Credential, error) {
	if s.credential != nil {
		return s.credential, nil
	}
	if !s.credLoaded && s.credentials != nil {
		cred, err := s.credentials(ctx)
		if err != nil {
			return nil, &SourceError{Source: SourceVault, Err: fmt.Errorf("failed to obtain default credential: %w", err)}
		}
		s.defaultCred = cred
	}
	s.credLoaded = true
	return s.defaultCred, nil
}

// Snapshot implements SecretSource
func (s *VaultSource) Snapshot(ctx context.Context, schema *Schema) (map[string]any, error) {
	return snapshotFields(ctx, s, schema)
}
