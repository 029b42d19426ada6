// FILE: okube-ai/settus/initsource.go
package settus

import "context"

// InitSource serves values passed explicitly at construction.
type InitSource struct {
	values map[string]any
}

// NewInitSource copies values; later changes to the map are not observed.
func NewInitSource(values map[string]any) *InitSource {
	return &InitSource{values: cloneMap(values)}
}

// Name implements SecretSource
func (s *InitSource) Name() Source {
	return SourceInit
}

// Resolve implements SecretSource
func (s *InitSource) Resolve(_ context.Context, f Field) (Resolved, error) {
	for _, key := range f.Candidates() {
		if v, ok := s.values[key]; ok {
			return Resolved{Value: v, Key: key, Complex: f.Complex, Found: true}, nil
		}
	}
	return absent(f), nil
}

// Snapshot returns every init value, including keys that match no field, so
// the decoder can reject them.
func (s *InitSource) Snapshot(_ context.Context, _ *Schema) (map[string]any, error) {
	return cloneMap(s.values), nil
}
