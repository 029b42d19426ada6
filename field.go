// FILE: okube-ai/settus/field.go
package settus

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Credential is an opaque authentication object handed to a VaultClientFactory.
// Its concrete type depends on the vault backend (for example an
// azcore.TokenCredential or a Vault token string).
type Credential any

// Field describes one settings field: its canonical name, aliases, default and
// per-field source overrides.
type Field struct {
	// Name is the canonical key used in the merged mapping
	Name string

	// GoName is the struct field name, empty for schemas built with NewSchema
	GoName string

	// Aliases are alternate keys tried after Name, first match wins
	Aliases []string

	Default    any
	HasDefault bool

	// Required fails construction when no source resolves the field
	Required bool

	// Complex marks structured values (maps, structs, slices) that sources
	// decode from JSON text
	Complex bool

	// Per-field overrides, checked before the type-level options
	VaultURL        string
	VaultCredential Credential
	SecretName      string
}

// Candidates returns the keys a source tries for this field, canonical name
// first, then aliases in declared order.
func (f Field) Candidates() []string {
	keys := make([]string, 0, 1+len(f.Aliases))
	keys = append(keys, f.Name)
	return append(keys, f.Aliases...)
}

// AliasPair is one (canonical name, alias) combination.
type AliasPair struct {
	Field string
	Alias string
}

// AliasIndex maps an alias to every canonical field declaring it, in field
// declaration order.
type AliasIndex map[string][]string

// Schema is the ordered, immutable list of fields for a settings type.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates and stores the given fields in declaration order.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field name cannot be empty")
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		for _, a := range f.Aliases {
			if a == "" {
				return nil, fmt.Errorf("field %q declares an empty alias", f.Name)
			}
		}
		f.Aliases = append([]string(nil), f.Aliases...)
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(fmt.Sprintf("settus: %v", err))
	}
	return s
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by canonical name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// AliasPairs lists every (field, alias) pair, preserving field order and
// per-field alias order. Fields without aliases contribute nothing.
func (s *Schema) AliasPairs() []AliasPair {
	var pairs []AliasPair
	for _, f := range s.fields {
		for _, a := range f.Aliases {
			pairs = append(pairs, AliasPair{Field: f.Name, Alias: a})
		}
	}
	return pairs
}

// AliasIndex builds the alias -> canonical names lookup used for reconciliation.
func (s *Schema) AliasIndex() AliasIndex {
	idx := make(AliasIndex)
	for _, p := range s.AliasPairs() {
		owners := idx[p.Alias]
		if len(owners) > 0 && owners[len(owners)-1] == p.Field {
			continue // same alias listed twice on one field
		}
		idx[p.Alias] = append(owners, p.Field)
	}
	return idx
}

// HasAliases reports whether any field declares an alias.
func (s *Schema) HasAliases() bool {
	for _, f := range s.fields {
		if len(f.Aliases) > 0 {
			return true
		}
	}
	return false
}

// With returns a copy of the schema where fn has modified the named field.
// The canonical name cannot be changed.
func (s *Schema) With(name string, fn func(*Field)) (*Schema, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("field not declared: %s", name)
	}
	fields := s.Fields()
	fn(&fields[i])
	if fields[i].Name != name {
		return nil, fmt.Errorf("field %q: canonical name is immutable", name)
	}
	return NewSchema(fields...)
}

var schemaCache sync.Map // reflect.Type -> *Schema

// SchemaOf derives the schema of a settings struct from its `settus` tags.
// target may be a struct, a pointer to one, or a reflect.Type. Results are
// cached per type.
func SchemaOf(target any) (*Schema, error) {
	var t reflect.Type
	if rt, ok := target.(reflect.Type); ok {
		t = rt
	} else {
		t = reflect.TypeOf(target)
	}
	if t == nil {
		return nil, fmt.Errorf("SchemaOf requires a struct, got nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("SchemaOf requires a struct or struct pointer, got %s", t)
	}

	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*Schema), nil
	}

	fields := make([]Field, 0, t.NumField())
	var errs []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseFieldTag(sf.Tag.Get(TagName))
		if err != nil {
			errs = append(errs, fmt.Sprintf("field %s: %v", sf.Name, err))
			continue
		}
		if tag.Skip {
			continue
		}
		f := Field{
			Name:       sf.Name,
			GoName:     sf.Name,
			Aliases:    tag.Aliases,
			Complex:    isComplexType(sf.Type),
			VaultURL:   tag.VaultURL,
			SecretName: tag.SecretName,
			Required:   tag.Required,
		}
		if tag.Name != "" {
			f.Name = tag.Name
		}
		if tag.HasDefault {
			f.Default = tag.Default
			f.HasDefault = true
		}
		fields = append(fields, f)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to parse %d field tag(s) of %s: %s", len(errs), t, strings.Join(errs, "; "))
	}

	s, err := NewSchema(fields...)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", t, err)
	}
	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// isComplexType reports whether values of t arrive as structured JSON text.
// Byte slices and types decoded from plain strings stay simple.
func isComplexType(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case urlType, ipNetType, timeType:
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Array:
		return true
	case reflect.Slice:
		// []string and friends accept comma separated text through the decode hooks
		elem := t.Elem().Kind()
		return elem == reflect.Struct || elem == reflect.Map || elem == reflect.Slice
	default:
		return false
	}
}

// WithFieldCredential returns a copy of the schema where the named field
// authenticates against its vault with cred.
func (s *Schema) WithFieldCredential(name string, cred Credential) (*Schema, error) {
	return s.With(name, func(f *Field) { f.VaultCredential = cred })
}

// WithFieldVaultURL returns a copy of the schema where the named field reads
// from the vault at location.
func (s *Schema) WithFieldVaultURL(name, location string) (*Schema, error) {
	return s.With(name, func(f *Field) { f.VaultURL = location })
}

// WithFieldSecretName returns a copy of the schema where the named field reads
// from the given secrets-manager bundle.
func (s *Schema) WithFieldSecretName(name, bundle string) (*Schema, error) {
	return s.With(name, func(f *Field) { f.SecretName = bundle })
}
