// FILE: okube-ai/settus/secretsmanager.go
package settus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// SecretsManagerClient fetches the raw payload of a named secret bundle.
// Implementations return ErrSecretNotFound or ErrAccessDenied (possibly
// wrapped) for missing or forbidden bundles.
type SecretsManagerClient interface {
	GetSecretString(ctx context.Context, name string) (string, error)
}

// SecretsManagerSource resolves fields from the keys of a JSON secret bundle.
type SecretsManagerSource struct {
	secretName string
	client     SecretsManagerClient
	logger     *slog.Logger
	bundles    map[string]map[string]any // nil entry: bundle absent
}

// NewSecretsManagerSource creates a bundle source. client may be nil as long
// as no field ends up with a bundle name.
func NewSecretsManagerSource(opts Options, client SecretsManagerClient, logger *slog.Logger) *SecretsManagerSource {
	return &SecretsManagerSource{
		secretName: opts.SecretName,
		client:     client,
		logger:     logger,
		bundles:    make(map[string]map[string]any),
	}
}

// Name implements SecretSource
func (s *SecretsManagerSource) Name() Source {
	return SourceSecretsManager
}

// Resolve implements SecretSource
func (s *SecretsManagerSource) Resolve(ctx context.Context, f Field) (Resolved, error) {
	name := f.SecretName
	if name == "" {
		name = s.secretName
	}
	if name == "" {
		return absent(f), nil
	}
	if s.client == nil {
		return Resolved{}, &ConfigError{Reason: fmt.Sprintf("field %q resolves from bundle %s", f.Name, name), Err: ErrNoSecretsManagerClient}
	}

	bundle, err := s.bundle(ctx, name)
	if err != nil {
		return Resolved{}, err
	}

	for _, key := range f.Candidates() {
		v, ok := bundle[key]
		if !ok || v == nil {
			continue
		}
		if str, isString := v.(string); isString && f.Complex {
			decoded, err := decodeComplex(str)
			if err != nil {
				return Resolved{}, &SourceError{Source: SourceSecretsManager, Key: key, Err: fmt.Errorf("field %q: %w", f.Name, err)}
			}
			v = decoded
		}
		if sub, isMap := v.(map[string]any); isMap {
			v = cloneMap(sub)
		}
		return Resolved{Value: v, Key: key, Complex: f.Complex, Found: true}, nil
	}
	return absent(f), nil
}

// bundle fetches and parses a bundle once per source.
func (s *SecretsManagerSource) bundle(ctx context.Context, name string) (map[string]any, error) {
	if b, ok := s.bundles[name]; ok {
		return b, nil
	}

	raw, err := s.client.GetSecretString(ctx, name)
	if err != nil {
		if IsAbsent(err) {
			s.logger.Debug("secret bundle absent", "bundle", name, "reason", err)
			s.bundles[name] = nil
			return nil, nil
		}
		return nil, &SourceError{Source: SourceSecretsManager, Key: name, Err: err}
	}

	b, err := parseBundle(raw)
	if err != nil {
		return nil, &SourceError{Source: SourceSecretsManager, Key: name, Err: err}
	}
	s.bundles[name] = b
	return b, nil
}

// parseBundle requires a JSON object with string keys.
func parseBundle(raw string) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object of key/value pairs, got %T", ErrMalformedPayload, payload)
	}
	return obj, nil
}

// Snapshot implements SecretSource
func (s *SecretsManagerSource) Snapshot(ctx context.Context, schema *Schema) (map[string]any, error) {
	return snapshotFields(ctx, s, schema)
}
