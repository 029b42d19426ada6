// FILE: okube-ai/settus/env.go
package settus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvSource resolves fields from environment-style variables: the process
// environment or the contents of .env files.
type EnvSource struct {
	name            Source
	vars            map[string]string // keys folded unless case sensitive
	prefix          string
	caseSensitive   bool
	nestedDelimiter string
}

// NewEnvSource builds a source over environ, a list of KEY=value entries as
// returned by os.Environ.
func NewEnvSource(environ []string, opts Options) *EnvSource {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return newEnvSource(SourceEnv, vars, opts)
}

// NewDotEnvSource reads the given .env files. Files that do not exist are
// skipped; later files override earlier ones.
func NewDotEnvSource(files []string, opts Options, logger *slog.Logger) (*EnvSource, error) {
	vars := make(map[string]string)
	for _, path := range files {
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Debug("env file not found, skipping", "path", path)
				continue
			}
			return nil, &SourceError{Source: SourceDotEnv, Key: path, Err: fmt.Errorf("failed to read env file: %w", err)}
		}
		for k, v := range values {
			vars[k] = v
		}
	}
	return newEnvSource(SourceDotEnv, vars, opts), nil
}

func newEnvSource(name Source, raw map[string]string, opts Options) *EnvSource {
	vars := make(map[string]string, len(raw))
	for _, k := range sortedKeys(raw) {
		vars[foldKey(k, opts.CaseSensitive)] = raw[k]
	}
	return &EnvSource{
		name:            name,
		vars:            vars,
		prefix:          opts.EnvPrefix,
		caseSensitive:   opts.CaseSensitive,
		nestedDelimiter: opts.EnvNestedDelimiter,
	}
}

// Name implements SecretSource
func (s *EnvSource) Name() Source {
	return s.name
}

// envName maps a candidate key to its variable name. The prefix only applies
// to the canonical name.
func (s *EnvSource) envName(key string, canonical bool) string {
	if canonical {
		key = s.prefix + key
	}
	return foldKey(key, s.caseSensitive)
}

// Resolve implements SecretSource
func (s *EnvSource) Resolve(_ context.Context, f Field) (Resolved, error) {
	for i, key := range f.Candidates() {
		name := s.envName(key, i == 0)
		raw, ok := s.vars[name]

		var value any = raw
		if ok && f.Complex {
			decoded, err := decodeComplex(raw)
			if err != nil {
				return Resolved{}, &SourceError{Source: s.name, Key: key, Err: fmt.Errorf("field %q: %w", f.Name, err)}
			}
			value = decoded
		}

		if f.Complex && s.nestedDelimiter != "" {
			if nested := s.explode(name); len(nested) > 0 {
				switch current := value.(type) {
				case map[string]any:
					value = DeepMerge(nested, current)
				default:
					if !ok {
						value = nested
					}
				}
				ok = true
			}
		}

		if ok {
			return Resolved{Value: value, Key: key, Complex: f.Complex, Found: true}, nil
		}
	}
	return absent(f), nil
}

// explode collects NAME<delim>A<delim>B=value variables into {"a": {"b": value}}.
func (s *EnvSource) explode(name string) map[string]any {
	delim := foldKey(s.nestedDelimiter, s.caseSensitive)
	prefix := name + delim
	nested := make(map[string]any)
	for _, key := range sortedKeys(s.vars) {
		rest, found := strings.CutPrefix(key, prefix)
		if !found || rest == "" {
			continue
		}
		segments := strings.Split(rest, delim)
		valid := true
		for _, seg := range segments {
			if seg == "" {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		setNestedValue(nested, segments, s.vars[key])
	}
	return nested
}

// Snapshot implements SecretSource
func (s *EnvSource) Snapshot(ctx context.Context, schema *Schema) (map[string]any, error) {
	return snapshotFields(ctx, s, schema)
}
