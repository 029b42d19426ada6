// File: okube-ai/settus/doc.go

// Package settus resolves the fields of a settings struct from ordered secret
// sources: constructor values, environment variables, .env files, settings
// files, secret directories, remote key vaults and remote secrets-manager
// bundles.
//
// Features:
//   - Ordered sources with customizable precedence
//   - Field aliases, shared aliases and ordered alias choices
//   - Per-field vault location, credential and bundle overrides
//   - Deep merge of structured values across sources
//   - Decoding and type coercion through mapstructure
//   - Source tracking to see where values originated
//   - Backend adapters in subpackages (azurekv, awssm, hcvault, gcpsecret)
//
// Quick Start:
//
//	type Settings struct {
//	    Host     string `settus:"name:host default:localhost"`
//	    Port     int    `settus:"name:port default:8080 alias:PORT,APP_PORT"`
//	    Password string `settus:"name:db_password alias:db-password"`
//	}
//
//	var s Settings
//	if _, err := settus.Load(ctx, &s, nil); err != nil {
//	    log.Fatal(err)
//	}
//
// Default Precedence (highest to lowest):
//  1. Constructor values (WithInit)
//  2. Environment variables
//  3. .env files
//  4. Settings file (TOML, YAML or JSON)
//  5. Remote key vault
//  6. Remote secrets-manager bundle
//  7. Field defaults
//
// Each source reports values under the key that matched (canonical name or
// alias). Alias keys are rewritten to every field declaring them before the
// sources are merged, replacing a canonical value found in the same source.
//
// Custom Precedence:
//
//	res, err := settus.NewBuilder().
//	    WithTarget(&s).
//	    WithVaultClient(azurekv.Factory(nil)).
//	    WithVaultURL("https://my-vault.vault.azure.net/").
//	    WithSources(settus.SourceVault, settus.SourceEnv).
//	    Build(ctx)
//
// Concurrency:
// A construction runs sequentially and creates its own sources, so separate
// builders share nothing. A single Builder must not Build concurrently.
package settus
