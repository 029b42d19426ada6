// FILE: okube-ai/settus/builder.go
package settus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
)

// ValidatorFunc defines the signature for a function that can validate a
// Resolution. It runs after the target has been decoded.
type ValidatorFunc func(res *Resolution) error

// Validator is implemented by settings types that check their own
// constraints once decoded.
type Validator interface {
	Validate() error
}

type fieldMod struct {
	name string
	fn   func(*Field)
}

// Builder provides a fluent interface for constructing settings
type Builder struct {
	target       any
	schema       *Schema
	init         map[string]any
	optMods      []func(*Options)
	fieldMods    []fieldMod
	args         []string
	environ      []string
	environSet   bool
	custom       map[Source]SecretSource
	vaultFactory VaultClientFactory
	smClient     SecretsManagerClient
	credentials  CredentialProvider
	validators   []ValidatorFunc
	logger       *slog.Logger
	err          error
}

// NewBuilder creates a new settings builder
func NewBuilder() *Builder {
	return &Builder{
		args:       os.Args[1:],
		custom:     make(map[Source]SecretSource),
		validators: make([]ValidatorFunc, 0),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithTarget sets the pointer the merged values are decoded into. A struct
// pointer also provides the schema through its `settus` tags unless
// WithSchema is used.
func (b *Builder) WithTarget(target any) *Builder {
	b.target = target
	return b
}

// WithSchema sets the field schema explicitly
func (b *Builder) WithSchema(schema *Schema) *Builder {
	b.schema = schema
	return b
}

// WithInit sets the explicit constructor values, keyed by canonical name
func (b *Builder) WithInit(values map[string]any) *Builder {
	b.init = values
	return b
}

// WithOptions replaces the type-level options wholesale, including the
// target's own ConfigureSettings. Start from DefaultOptions: a zero Options
// has no sources, disables PopulateByName and clears VaultKeyDelimiter.
// Build rejects an empty source list.
func (b *Builder) WithOptions(opts Options) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { *o = opts })
	return b
}

// WithEnvPrefix sets the prefix prepended to canonical names in env lookups
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.EnvPrefix = prefix })
	return b
}

// WithEnvFile appends .env files; later files override earlier ones
func (b *Builder) WithEnvFile(paths ...string) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.EnvFiles = append(o.EnvFiles, paths...) })
	return b
}

// WithSecretsDir sets the one-file-per-secret directory and enables its source
// when it is not already part of the precedence list
func (b *Builder) WithSecretsDir(dir string) *Builder {
	b.optMods = append(b.optMods, func(o *Options) {
		o.SecretsDir = dir
		o.Sources = ensureSource(o.Sources, SourceSecretsDir)
	})
	return b
}

// WithFile sets the settings file path
func (b *Builder) WithFile(path string) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.ConfigFile = path })
	return b
}

// WithArgs sets the command-line arguments and enables the args source when
// it is not already part of the precedence list
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	b.optMods = append(b.optMods, func(o *Options) { o.Sources = ensureSource(o.Sources, SourceArgs) })
	return b
}

// WithVaultURL sets the type-level vault location
func (b *Builder) WithVaultURL(location string) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.VaultURL = location })
	return b
}

// WithVaultCredential sets the type-level vault credential
func (b *Builder) WithVaultCredential(cred Credential) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.VaultCredential = cred })
	return b
}

// WithSecretName sets the type-level secrets-manager bundle
func (b *Builder) WithSecretName(name string) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.SecretName = name })
	return b
}

// WithPopulateByName sets whether fields may be populated by canonical name
// while aliases are declared
func (b *Builder) WithPopulateByName(enabled bool) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.PopulateByName = enabled })
	return b
}

// WithAllowExtra accepts init values that match no field
func (b *Builder) WithAllowExtra(enabled bool) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.AllowExtra = enabled })
	return b
}

// WithSources sets the precedence order for settings sources
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.optMods = append(b.optMods, func(o *Options) { o.Sources = sources })
	return b
}

// WithSource registers a custom source. It takes part in resolution once its
// name is listed in the precedence order; a name that is not listed yet is
// appended as the lowest-priority source.
func (b *Builder) WithSource(src SecretSource) *Builder {
	if src == nil {
		b.err = fmt.Errorf("custom source cannot be nil")
		return b
	}
	name := src.Name()
	b.custom[name] = src
	b.optMods = append(b.optMods, func(o *Options) { o.Sources = ensureSource(o.Sources, name) })
	return b
}

// WithEnviron replaces the process environment, as KEY=value entries.
// A nil slice means an empty environment.
func (b *Builder) WithEnviron(environ []string) *Builder {
	b.environ = environ
	b.environSet = true
	return b
}

// WithVaultClient registers the factory that connects to vault locations
func (b *Builder) WithVaultClient(factory VaultClientFactory) *Builder {
	b.vaultFactory = factory
	return b
}

// WithSecretsManagerClient registers the secrets-manager client
func (b *Builder) WithSecretsManagerClient(client SecretsManagerClient) *Builder {
	b.smClient = client
	return b
}

// WithCredentialProvider sets the fallback vault credential provider
func (b *Builder) WithCredentialProvider(p CredentialProvider) *Builder {
	b.credentials = p
	return b
}

// WithFieldCredential overrides the vault credential of one field
func (b *Builder) WithFieldCredential(name string, cred Credential) *Builder {
	b.fieldMods = append(b.fieldMods, fieldMod{name, func(f *Field) { f.VaultCredential = cred }})
	return b
}

// WithFieldVaultURL overrides the vault location of one field
func (b *Builder) WithFieldVaultURL(name, location string) *Builder {
	b.fieldMods = append(b.fieldMods, fieldMod{name, func(f *Field) { f.VaultURL = location }})
	return b
}

// WithFieldSecretName overrides the secrets-manager bundle of one field
func (b *Builder) WithFieldSecretName(name, bundle string) *Builder {
	b.fieldMods = append(b.fieldMods, fieldMod{name, func(f *Field) { f.SecretName = bundle }})
	return b
}

// WithLogger sets the logger for construction diagnostics
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build resolves every field from the configured sources, merges them by
// priority and decodes the result into the target.
func (b *Builder) Build(ctx context.Context) (*Resolution, error) {
	if b.err != nil {
		return nil, b.err
	}

	schema, err := b.resolveSchema()
	if err != nil {
		return nil, err
	}
	opts := b.resolveOptions()
	idx := schema.AliasIndex()

	// Init values keyed by an alias are ambiguous, even when the alias is
	// also another field's canonical name
	for _, key := range sortedKeys(b.init) {
		if owners := idx[key]; len(owners) > 0 {
			return nil, &UsageError{Key: key, Field: owners[0]}
		}
	}

	if !opts.PopulateByName && schema.HasAliases() {
		return nil, &ConfigError{Reason: "fields declare aliases while population by canonical name is disabled"}
	}

	sources, err := b.instantiate(opts)
	if err != nil {
		return nil, err
	}

	layers := make([]map[string]any, 0, len(sources)+1)
	names := make([]Source, 0, len(sources)+1)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := src.Snapshot(ctx, schema)
		if err != nil {
			return nil, err
		}
		canonical := reconcile(out, schema, idx)
		b.logger.Debug("source resolved", "source", src.Name(), "keys", sortedKeys(canonical))
		layers = append(layers, canonical)
		names = append(names, src.Name())
	}

	defaults, err := defaultLayer(schema)
	if err != nil {
		return nil, err
	}
	layers = append(layers, defaults)
	names = append(names, SourceDefault)

	res := &Resolution{
		values:  DeepMerge(layers...),
		origins: mergeOrigins(layers, names),
	}

	var missing []string
	for _, f := range schema.fields {
		if _, ok := res.values[f.Name]; f.Required && !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	target := b.target
	if target == nil {
		var scratch map[string]any
		target = &scratch
	}
	if err := decodeInto(target, res.values, schema, opts); err != nil {
		return nil, err
	}

	if v, ok := b.target.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	for _, validator := range b.validators {
		if err := validator(res); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("settings constructed", "fields", schema.Len(), "sources", len(sources))
	return res, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild(ctx context.Context) *Resolution {
	res, err := b.Build(ctx)
	if err != nil {
		panic(fmt.Sprintf("settings build failed: %v", err))
	}
	return res
}

func (b *Builder) resolveSchema() (*Schema, error) {
	schema := b.schema
	if schema == nil {
		if b.target == nil {
			return nil, &ConfigError{Reason: "a target or a schema is required"}
		}
		if t := reflect.TypeOf(b.target); t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
			return nil, &ConfigError{Reason: fmt.Sprintf("target %T does not describe its fields, use WithSchema", b.target)}
		}
		s, err := SchemaOf(b.target)
		if err != nil {
			return nil, &ConfigError{Reason: "failed to derive schema", Err: err}
		}
		schema = s
	}

	for _, mod := range b.fieldMods {
		s, err := schema.With(mod.name, mod.fn)
		if err != nil {
			return nil, &ConfigError{Reason: "failed to apply field override", Err: err}
		}
		schema = s
	}
	return schema, nil
}

// resolveOptions layers DefaultOptions, the target's own options and the
// builder overrides, in that order.
func (b *Builder) resolveOptions() Options {
	opts := DefaultOptions()
	if c, ok := b.target.(Configurer); ok {
		c.ConfigureSettings(&opts)
	}
	for _, mod := range b.optMods {
		mod(&opts)
	}
	if opts.TagName == "" {
		opts.TagName = DefaultOptions().TagName
	}
	return opts
}

// instantiate creates fresh sources in precedence order.
func (b *Builder) instantiate(opts Options) ([]SecretSource, error) {
	if len(opts.Sources) == 0 {
		return nil, &ConfigError{Reason: "no sources configured; start from DefaultOptions()"}
	}
	seen := make(map[Source]bool, len(opts.Sources))
	sources := make([]SecretSource, 0, len(opts.Sources))
	for _, name := range opts.Sources {
		if seen[name] {
			return nil, &ConfigError{Reason: fmt.Sprintf("source %s listed more than once", name)}
		}
		seen[name] = true

		src, err := b.newSource(name, opts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (b *Builder) newSource(name Source, opts Options) (SecretSource, error) {
	if src, ok := b.custom[name]; ok {
		return src, nil
	}

	switch name {
	case SourceInit:
		return NewInitSource(b.init), nil
	case SourceEnv:
		environ := b.environ
		if !b.environSet {
			environ = os.Environ()
		}
		return NewEnvSource(environ, opts), nil
	case SourceDotEnv:
		return NewDotEnvSource(opts.EnvFiles, opts, b.logger)
	case SourceFile:
		return NewFileSource(opts.ConfigFile, b.logger)
	case SourceSecretsDir:
		return NewSecretsDirSource(opts.SecretsDir, opts, b.logger)
	case SourceArgs:
		return NewArgsSource(b.args)
	case SourceVault:
		return NewVaultSource(opts, b.vaultFactory, b.credentials, b.logger), nil
	case SourceSecretsManager:
		return NewSecretsManagerSource(opts, b.smClient, b.logger), nil
	case SourceDefault:
		return nil, &ConfigError{Reason: "defaults are always the lowest layer and cannot be ordered"}
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown source %q", name)}
	}
}

// defaultLayer collects declared defaults under canonical names. Structured
// defaults given as text are parsed as JSON.
func defaultLayer(schema *Schema) (map[string]any, error) {
	layer := make(map[string]any)
	for _, f := range schema.fields {
		if !f.HasDefault {
			continue
		}
		v := f.Default
		if str, ok := v.(string); ok && f.Complex {
			decoded, err := decodeComplex(str)
			if err != nil {
				return nil, &ConfigError{Reason: fmt.Sprintf("invalid default for field %q", f.Name), Err: err}
			}
			v = decoded
		}
		if m, ok := v.(map[string]any); ok {
			v = cloneMap(m)
		}
		layer[f.Name] = v
	}
	return layer, nil
}

func ensureSource(sources []Source, name Source) []Source {
	for _, s := range sources {
		if s == name {
			return sources
		}
	}
	out := make([]Source, len(sources), len(sources)+1)
	copy(out, sources)
	return append(out, name)
}
