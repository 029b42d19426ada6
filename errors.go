// FILE: okube-ai/settus/errors.go
package settus

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSecretNotFound is returned by remote clients when a secret does not exist.
	// Sources treat it as resolution-absent.
	ErrSecretNotFound = errors.New("settus: secret not found")

	// ErrAccessDenied is returned by remote clients when the caller may not read a
	// secret. Sources treat it as resolution-absent.
	ErrAccessDenied = errors.New("settus: access denied")

	// ErrMalformedPayload indicates a remote payload that does not have the expected shape
	ErrMalformedPayload = errors.New("settus: malformed secret payload")

	// ErrNoVaultClient indicates a vault location is configured without a client factory
	ErrNoVaultClient = errors.New("settus: vault location configured but no vault client registered")

	// ErrNoSecretsManagerClient indicates a secret bundle is configured without a client
	ErrNoSecretsManagerClient = errors.New("settus: secret bundle configured but no secrets manager client registered")
)

// IsAbsent reports whether a remote error means "no value" rather than a failure.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrSecretNotFound) || errors.Is(err, ErrAccessDenied)
}

// ConfigError reports an invalid type-level settings configuration.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("settus: invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return "settus: invalid configuration: " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MissingFieldsError lists required fields that no source resolved.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "settus: missing required settings: " + strings.Join(e.Fields, ", ")
}

// UsageError reports ambiguous constructor input: an init value keyed by an
// alias instead of the canonical field name.
type UsageError struct {
	Key   string // the alias that was passed
	Field string // canonical field that should be used instead
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("settus: %q is an alias and should not be set at initialization; set %q instead", e.Key, e.Field)
}

// SourceError wraps a fatal failure talking to a source backend.
// The original error stays reachable through errors.Is / errors.As.
type SourceError struct {
	Source Source
	Key    string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("settus: source %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("settus: source %s (%s): %v", e.Source, e.Key, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
