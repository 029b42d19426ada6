// FILE: okube-ai/settus/source.go
package settus

import (
	"context"
)

// Source names a settings source, used to define resolution precedence
type Source string

const (
	// SourceInit represents values passed explicitly at construction
	SourceInit Source = "init"
	// SourceEnv represents process environment variables
	SourceEnv Source = "env"
	// SourceDotEnv represents values read from .env files
	SourceDotEnv Source = "dotenv"
	// SourceFile represents a TOML, YAML or JSON settings file
	SourceFile Source = "file"
	// SourceSecretsDir represents one-file-per-secret directories (e.g. /run/secrets)
	SourceSecretsDir Source = "secrets_dir"
	// SourceArgs represents command-line arguments
	SourceArgs Source = "args"
	// SourceVault represents a remote key vault
	SourceVault Source = "vault"
	// SourceSecretsManager represents a remote secrets-manager JSON bundle
	SourceSecretsManager Source = "secrets_manager"
	// SourceDefault represents field defaults
	SourceDefault Source = "default"
)

// DefaultSources is the standard precedence, highest priority first.
func DefaultSources() []Source {
	return []Source{SourceInit, SourceEnv, SourceDotEnv, SourceFile, SourceVault, SourceSecretsManager}
}

// Resolved is the outcome of resolving one field against one source.
// Found is false for resolution-absent.
type Resolved struct {
	Value   any
	Key     string // canonical name or the alias that matched
	Complex bool
	Found   bool
}

func absent(f Field) Resolved {
	return Resolved{Key: f.Name, Complex: f.Complex}
}

// SecretSource is a backing store queried for field values.
//
// Resolve returns the first non-absent candidate for a field. Snapshot
// resolves every field of a schema and returns matched key -> value, keys not
// yet reconciled to canonical names.
type SecretSource interface {
	Name() Source
	Resolve(ctx context.Context, f Field) (Resolved, error)
	Snapshot(ctx context.Context, schema *Schema) (map[string]any, error)
}

// resolver is the per-field half of SecretSource.
type resolver interface {
	Resolve(ctx context.Context, f Field) (Resolved, error)
}

// snapshotFields implements Snapshot for sources whose output is exactly
// their per-field resolutions.
func snapshotFields(ctx context.Context, r resolver, schema *Schema) (map[string]any, error) {
	out := make(map[string]any)
	for _, f := range schema.fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.Resolve(ctx, f)
		if err != nil {
			return nil, err
		}
		if res.Found {
			out[res.Key] = res.Value
		}
	}
	return out, nil
}
