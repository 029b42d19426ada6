// FILE: okube-ai/settus/secretsdir.go
package settus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDirSource reads one secret per file, the file name being the key
// (for example Docker or Kubernetes mounted secrets under /run/secrets).
type SecretsDirSource struct {
	dir           string
	files         map[string]string // folded key -> path
	prefix        string
	caseSensitive bool
	logger        *slog.Logger
}

// NewSecretsDirSource indexes dir. An empty or missing directory yields a
// source that never matches; a path that is not a directory is a
// configuration error.
func NewSecretsDirSource(dir string, opts Options, logger *slog.Logger) (*SecretsDirSource, error) {
	s := &SecretsDirSource{
		dir:           dir,
		files:         make(map[string]string),
		prefix:        opts.EnvPrefix,
		caseSensitive: opts.CaseSensitive,
		logger:        logger,
	}
	if dir == "" {
		return s, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("secrets directory does not exist", "dir", dir)
			return s, nil
		}
		return nil, &SourceError{Source: SourceSecretsDir, Key: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Reason: fmt.Sprintf("secrets_dir must reference a directory, not a file: %s", dir)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &SourceError{Source: SourceSecretsDir, Key: dir, Err: fmt.Errorf("failed to list secrets directory: %w", err)}
	}
	for _, e := range entries {
		s.files[foldKey(e.Name(), s.caseSensitive)] = filepath.Join(dir, e.Name())
	}
	return s, nil
}

// Name implements SecretSource
func (s *SecretsDirSource) Name() Source {
	return SourceSecretsDir
}

// Resolve implements SecretSource
func (s *SecretsDirSource) Resolve(_ context.Context, f Field) (Resolved, error) {
	for i, key := range f.Candidates() {
		name := key
		if i == 0 {
			name = s.prefix + key
		}
		path, ok := s.files[foldKey(name, s.caseSensitive)]
		if !ok {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return Resolved{}, &SourceError{Source: SourceSecretsDir, Key: key, Err: err}
		}
		if info.IsDir() {
			s.logger.Warn("secret path is a directory, skipping", "path", path)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return Resolved{}, &SourceError{Source: SourceSecretsDir, Key: key, Err: fmt.Errorf("failed to read secret file: %w", err)}
		}
		var value any = strings.TrimSpace(string(data))
		if f.Complex {
			if value, err = decodeComplex(value.(string)); err != nil {
				return Resolved{}, &SourceError{Source: SourceSecretsDir, Key: key, Err: fmt.Errorf("field %q: %w", f.Name, err)}
			}
		}
		return Resolved{Value: value, Key: key, Complex: f.Complex, Found: true}, nil
	}
	return absent(f), nil
}

// Snapshot implements SecretSource
func (s *SecretsDirSource) Snapshot(ctx context.Context, schema *Schema) (map[string]any, error) {
	return snapshotFields(ctx, s, schema)
}
