// FILE: okube-ai/settus/options.go
package settus

// Options is the type-level settings configuration.
type Options struct {
	// Sources defines the precedence order (first = highest priority).
	// Default: DefaultSources()
	Sources []Source

	// PopulateByName permits setting fields by canonical name when aliases are
	// declared. Construction fails when it is disabled and any alias exists.
	PopulateByName bool

	// AllowExtra accepts init values that match no declared field.
	// By default they are rejected by the decoder.
	AllowExtra bool

	// CaseSensitive controls environment, dotenv and secrets dir key matching
	CaseSensitive bool

	// EnvPrefix is prepended to canonical names (never to aliases) for
	// environment, dotenv and secrets dir lookups
	EnvPrefix string

	// EnvNestedDelimiter splits variables such as DB__HOST into nested values
	// for structured fields. Empty disables nesting.
	EnvNestedDelimiter string

	// EnvFiles are .env files read in order; later files override earlier ones
	EnvFiles []string

	// SecretsDir holds one file per secret, named after the key
	SecretsDir string

	// ConfigFile is a TOML, YAML or JSON settings file
	ConfigFile string

	// VaultURL resolves secrets from a key vault when set
	VaultURL string

	// VaultCredential authenticates against the vault. When nil the
	// credential provider, then the client's ambient chain, is used.
	VaultCredential Credential

	// VaultKeyDelimiter marks keys reserved for nested-field notation; keys
	// containing it are never looked up in the vault. Empty disables the check.
	VaultKeyDelimiter string

	// SecretName names a secrets-manager bundle whose JSON payload is a flat
	// key -> value map
	SecretName string

	// TagName is the struct tag mapstructure reads when decoding nested
	// values. Default: "json"
	TagName string
}

// DefaultOptions returns the standard settings options
func DefaultOptions() Options {
	return Options{
		Sources:           DefaultSources(),
		PopulateByName:    true,
		VaultKeyDelimiter: "_",
		TagName:           "json",
	}
}

// Configurer is implemented by settings types that declare their own options,
// applied on top of DefaultOptions before any builder override.
type Configurer interface {
	ConfigureSettings(opts *Options)
}
