// FILE: okube-ai/settus/file.go
package settus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileSource resolves fields from the top-level keys of a TOML, YAML or JSON
// settings file.
type FileSource struct {
	path string
	data map[string]any
}

// NewFileSource reads and parses path. An empty path or a missing file yields
// a source that never matches; unreadable or unparsable files are errors.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	s := &FileSource{path: path, data: make(map[string]any)}
	if path == "" {
		return s, nil
	}

	fileData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("settings file not found, skipping", "path", path)
			return s, nil
		}
		return nil, &SourceError{Source: SourceFile, Key: path, Err: fmt.Errorf("failed to read settings file: %w", err)}
	}

	// Try extension first, then content
	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(fileData)
	}

	switch format {
	case "toml":
		if err := toml.Unmarshal(fileData, &s.data); err != nil {
			return nil, &SourceError{Source: SourceFile, Key: path, Err: fmt.Errorf("failed to parse TOML settings file: %w", err)}
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(fileData))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&s.data); err != nil {
			return nil, &SourceError{Source: SourceFile, Key: path, Err: fmt.Errorf("failed to parse JSON settings file: %w", err)}
		}
	case "yaml":
		if err := yaml.Unmarshal(fileData, &s.data); err != nil {
			return nil, &SourceError{Source: SourceFile, Key: path, Err: fmt.Errorf("failed to parse YAML settings file: %w", err)}
		}
	default:
		return nil, &SourceError{Source: SourceFile, Key: path, Err: fmt.Errorf("unable to determine settings file format")}
	}
	if s.data == nil {
		s.data = make(map[string]any) // empty YAML document
	}
	return s, nil
}

// Name implements SecretSource
func (s *FileSource) Name() Source {
	return SourceFile
}

// Resolve implements SecretSource
func (s *FileSource) Resolve(_ context.Context, f Field) (Resolved, error) {
	for _, key := range f.Candidates() {
		v, ok := s.data[key]
		if !ok {
			continue
		}
		if sub, isMap := v.(map[string]any); isMap {
			v = cloneMap(sub)
		}
		return Resolved{Value: v, Key: key, Complex: f.Complex, Found: true}, nil
	}
	return absent(f), nil
}

// Snapshot implements SecretSource
func (s *FileSource) Snapshot(ctx context.Context, schema *Schema) (map[string]any, error) {
	return snapshotFields(ctx, s, schema)
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	// YAML accepts nearly anything, so it goes last
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	return ""
}
