// FILE: okube-ai/settus/cmd/main.go

// Command settus resolves named fields from the standard sources and reports
// which source supplied each one.
//
//	settus [flags] name[=alias,alias...] ...
//
// Values are masked unless -show-values is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/okube-ai/settus"
	"github.com/okube-ai/settus/awssm"
	"github.com/okube-ai/settus/azurekv"
	"github.com/okube-ai/settus/gcpsecret"
	"github.com/okube-ai/settus/hcvault"
)

type cliFlags struct {
	backend    string
	vaultURL   string
	mount      string
	secretName string
	envFiles   string
	secretsDir string
	file       string
	prefix     string
	delimiter  string
	exportEnv  string
	save       string
	showValues bool
	debug      bool
}

func main() {
	var f cliFlags
	fs := flag.NewFlagSet("settus", flag.ContinueOnError)
	fs.StringVar(&f.backend, "backend", "", "vault backend: azure, aws, hcvault or gcp")
	fs.StringVar(&f.vaultURL, "vault-url", "", "vault location (URL, region, address or project)")
	fs.StringVar(&f.mount, "hcvault-mount", "secret", "KV v2 mount for the hcvault backend")
	fs.StringVar(&f.secretName, "secret-name", "", "AWS Secrets Manager bundle holding a JSON object")
	fs.StringVar(&f.envFiles, "env-file", "", "comma separated .env files, later files win")
	fs.StringVar(&f.secretsDir, "secrets-dir", "", "directory with one file per secret")
	fs.StringVar(&f.file, "file", "", "TOML, YAML or JSON settings file")
	fs.StringVar(&f.prefix, "prefix", "", "environment prefix for canonical names")
	fs.StringVar(&f.delimiter, "vault-key-delimiter", "_", "keys containing this are never fetched from the vault")
	fs.StringVar(&f.exportEnv, "export-dotenv", "", "write resolved values to this .env file")
	fs.StringVar(&f.save, "save", "", "write resolved values to this TOML file")
	fs.BoolVar(&f.showValues, "show-values", false, "print values instead of masking them")
	fs.BoolVar(&f.debug, "debug", false, "log resolution steps to stderr")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: settus [flags] name[=alias,alias...] ...")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "settus: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f cliFlags, specs []string) error {
	level := slog.LevelWarn
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fields := make([]settus.Field, 0, len(specs))
	for _, spec := range specs {
		fields = append(fields, parseFieldSpec(spec))
	}
	schema, err := settus.NewSchema(fields...)
	if err != nil {
		return fmt.Errorf("invalid field list: %w", err)
	}

	opts := settus.DefaultOptions()
	opts.EnvPrefix = f.prefix
	opts.VaultURL = f.vaultURL
	opts.VaultKeyDelimiter = f.delimiter
	opts.SecretName = f.secretName
	opts.ConfigFile = f.file
	if f.envFiles != "" {
		opts.EnvFiles = strings.Split(f.envFiles, ",")
	}

	b := settus.NewBuilder().
		WithSchema(schema).
		WithOptions(opts).
		WithLogger(logger)
	if f.secretsDir != "" {
		b.WithSecretsDir(f.secretsDir)
	}

	if err := configureVault(b, f); err != nil {
		return err
	}
	if f.secretName != "" {
		client, err := awssm.NewFromConfig(ctx, nil)
		if err != nil {
			return err
		}
		b.WithSecretsManagerClient(client)
	}

	res, err := b.Build(ctx)
	if err != nil {
		return err
	}

	for _, field := range schema.Fields() {
		origin, ok := res.Origin(field.Name)
		if !ok {
			fmt.Printf("%s\t-\t(unset)\n", field.Name)
			continue
		}
		value := "****"
		if f.showValues {
			if value, err = res.String(field.Name); err != nil {
				value = fmt.Sprintf("%v", res.Values()[field.Name])
			}
		}
		fmt.Printf("%s\t%s\t%s\n", field.Name, origin, value)
	}

	if f.exportEnv != "" {
		if err := res.WriteDotEnv(f.exportEnv, f.prefix); err != nil {
			return err
		}
		logger.Info("env file written", "path", f.exportEnv)
	}
	if f.save != "" {
		if err := res.Save(f.save); err != nil {
			return err
		}
		logger.Info("settings saved", "path", f.save)
	}
	return nil
}

func configureVault(b *settus.Builder, f cliFlags) error {
	switch f.backend {
	case "":
		if f.vaultURL != "" {
			return fmt.Errorf("-vault-url requires -backend")
		}
	case "azure":
		b.WithVaultClient(azurekv.Factory(nil)).WithCredentialProvider(azurekv.DefaultCredential)
	case "aws":
		b.WithVaultClient(awssm.Factory())
	case "hcvault":
		b.WithVaultClient(hcvault.Factory(f.mount))
	case "gcp":
		b.WithVaultClient(gcpsecret.Factory())
	default:
		return fmt.Errorf("unknown backend %q", f.backend)
	}
	return nil
}

// parseFieldSpec reads "name" or "name=alias1,alias2".
func parseFieldSpec(spec string) settus.Field {
	name, aliases, found := strings.Cut(spec, "=")
	f := settus.Field{Name: strings.TrimSpace(name)}
	if found {
		for _, a := range strings.Split(aliases, ",") {
			if a = strings.TrimSpace(a); a != "" {
				f.Aliases = append(f.Aliases, a)
			}
		}
	}
	return f
}
