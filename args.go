// FILE: okube-ai/settus/args.go
package settus

import (
	"context"
	"fmt"
	"strings"
)

// ArgsSource resolves fields from command-line arguments of the form
// "--key=value", "--key value" or "--flag" (true). Dotted keys such as
// "--db.host=x" build nested values for structured fields.
type ArgsSource struct {
	values map[string]any
}

// NewArgsSource parses args; non-flag arguments are ignored.
func NewArgsSource(args []string) (*ArgsSource, error) {
	values, err := parseArgs(args)
	if err != nil {
		return nil, &SourceError{Source: SourceArgs, Err: err}
	}
	return &ArgsSource{values: values}, nil
}

// Name implements SecretSource
func (s *ArgsSource) Name() Source {
	return SourceArgs
}

// Resolve implements SecretSource
func (s *ArgsSource) Resolve(_ context.Context, f Field) (Resolved, error) {
	for _, key := range f.Candidates() {
		v, ok := s.values[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			v = cloneMap(val)
		case string:
			if f.Complex {
				decoded, err := decodeComplex(val)
				if err != nil {
					return Resolved{}, &SourceError{Source: SourceArgs, Key: key, Err: fmt.Errorf("field %q: %w", f.Name, err)}
				}
				v = decoded
			}
		}
		return Resolved{Value: v, Key: key, Complex: f.Complex, Found: true}, nil
	}
	return absent(f), nil
}

// Snapshot implements SecretSource
func (s *ArgsSource) Snapshot(ctx context.Context, schema *Schema) (map[string]any, error) {
	return snapshotFields(ctx, s, schema)
}

// parseArgs processes command-line arguments into a nested map structure.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			// Skip non-flag arguments
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// Skip "--" argument if used as a separator
			i++
			continue
		}

		var keyPath string
		var valueStr string

		if k, v, found := strings.Cut(argContent, "="); found {
			keyPath = k
			valueStr = v
			i++
		} else {
			keyPath = argContent
			// Boolean flag when the next arg is another flag or there is none
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			// Skip invalid flags like --=value
			continue
		}

		segments := strings.Split(keyPath, ".")
		for _, segment := range segments {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}

		// Always store as a string, the decoder handles final type conversion
		setNestedValue(result, segments, valueStr)
	}

	return result, nil
}
