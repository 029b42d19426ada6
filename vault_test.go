// FILE: okube-ai/settus/vault_test.go
package settus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okube-ai/settus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVault struct {
	secrets map[string]string
	errs    map[string]error
	calls   []string
}

func (v *stubVault) GetSecret(_ context.Context, name string) (string, error) {
	v.calls = append(v.calls, name)
	if err, ok := v.errs[name]; ok {
		return "", err
	}
	if s, ok := v.secrets[name]; ok {
		return s, nil
	}
	return "", settus.ErrSecretNotFound
}

type factoryCall struct {
	location string
	cred     settus.Credential
}

// stubFactory hands out one stubVault per location and records every call.
type stubFactory struct {
	vaults map[string]*stubVault
	calls  []factoryCall
	err    error
}

func (f *stubFactory) new(_ context.Context, location string, cred settus.Credential) (settus.VaultClient, error) {
	f.calls = append(f.calls, factoryCall{location, cred})
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vaults[location]
	if !ok {
		v = &stubVault{}
	}
	return v, nil
}

func vaultOptions(url string) settus.Options {
	opts := settus.DefaultOptions()
	opts.VaultURL = url
	return opts
}

func TestVaultSource(t *testing.T) {
	ctx := context.Background()
	const kv = "https://kv.example.net"

	t.Run("NoLocationIsAbsent", func(t *testing.T) {
		factory := &stubFactory{}
		src := settus.NewVaultSource(settus.DefaultOptions(), factory.new, nil, discardLogger())
		res, err := src.Resolve(ctx, settus.Field{Name: "token"})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Empty(t, factory.calls)
	})

	t.Run("MissingFactory", func(t *testing.T) {
		src := settus.NewVaultSource(vaultOptions(kv), nil, nil, discardLogger())
		_, err := src.Resolve(ctx, settus.Field{Name: "token"})
		var cfgErr *settus.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, settus.ErrNoVaultClient)
	})

	t.Run("DelimiterKeysSkipped", func(t *testing.T) {
		vault := &stubVault{secrets: map[string]string{"db-password": "pw", "db_password": "never"}}
		factory := &stubFactory{vaults: map[string]*stubVault{kv: vault}}
		src := settus.NewVaultSource(vaultOptions(kv), factory.new, nil, discardLogger())

		res, err := src.Resolve(ctx, settus.Field{Name: "db_password", Aliases: []string{"db-password"}})
		require.NoError(t, err)
		assert.Equal(t, "db-password", res.Key)
		assert.Equal(t, "pw", res.Value)
		assert.Equal(t, []string{"db-password"}, vault.calls)
	})

	t.Run("DelimiterConfigurable", func(t *testing.T) {
		vault := &stubVault{secrets: map[string]string{"db_password": "pw"}}
		factory := &stubFactory{vaults: map[string]*stubVault{kv: vault}}
		opts := vaultOptions(kv)
		opts.VaultKeyDelimiter = ""
		src := settus.NewVaultSource(opts, factory.new, nil, discardLogger())

		res, err := src.Resolve(ctx, settus.Field{Name: "db_password"})
		require.NoError(t, err)
		assert.Equal(t, "pw", res.Value)
	})

	t.Run("NotFoundAndDeniedFallThrough", func(t *testing.T) {
		vault := &stubVault{
			secrets: map[string]string{"c": "third"},
			errs:    map[string]error{"b": settus.ErrAccessDenied},
		}
		factory := &stubFactory{vaults: map[string]*stubVault{kv: vault}}
		src := settus.NewVaultSource(vaultOptions(kv), factory.new, nil, discardLogger())

		res, err := src.Resolve(ctx, settus.Field{Name: "a", Aliases: []string{"b", "c"}})
		require.NoError(t, err)
		assert.Equal(t, "third", res.Value)
		assert.Equal(t, []string{"a", "b", "c"}, vault.calls)
	})

	t.Run("TransportErrorPropagates", func(t *testing.T) {
		boom := errors.New("connection reset")
		vault := &stubVault{errs: map[string]error{"a": boom}}
		factory := &stubFactory{vaults: map[string]*stubVault{kv: vault}}
		src := settus.NewVaultSource(vaultOptions(kv), factory.new, nil, discardLogger())

		_, err := src.Resolve(ctx, settus.Field{Name: "a", Aliases: []string{"b"}})
		var srcErr *settus.SourceError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, settus.SourceVault, srcErr.Source)
		assert.Equal(t, "a", srcErr.Key)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"a"}, vault.calls, "no fallback after a fatal error")
	})

	t.Run("FactoryError", func(t *testing.T) {
		factory := &stubFactory{err: errors.New("bad url")}
		src := settus.NewVaultSource(vaultOptions(kv), factory.new, nil, discardLogger())
		_, err := src.Resolve(ctx, settus.Field{Name: "a"})
		var srcErr *settus.SourceError
		assert.ErrorAs(t, err, &srcErr)
	})

	t.Run("PerFieldOverrides", func(t *testing.T) {
		const other = "https://other.example.net"
		factory := &stubFactory{vaults: map[string]*stubVault{
			kv:    {secrets: map[string]string{"a": "from-default"}},
			other: {secrets: map[string]string{"a": "from-other"}},
		}}
		calls := 0
		provider := func(context.Context) (settus.Credential, error) {
			calls++
			return "ambient", nil
		}
		src := settus.NewVaultSource(vaultOptions(kv), factory.new, provider, discardLogger())

		res, err := src.Resolve(ctx, settus.Field{Name: "a"})
		require.NoError(t, err)
		assert.Equal(t, "from-default", res.Value)

		res, err = src.Resolve(ctx, settus.Field{Name: "a", VaultURL: other, VaultCredential: "field-cred"})
		require.NoError(t, err)
		assert.Equal(t, "from-other", res.Value)

		// Shared client reused for the default location
		_, err = src.Resolve(ctx, settus.Field{Name: "a"})
		require.NoError(t, err)

		assert.Equal(t, []factoryCall{
			{kv, "ambient"},
			{other, "field-cred"},
		}, factory.calls)
		assert.Equal(t, 1, calls, "credential provider consulted once")
	})

	t.Run("TypeLevelCredentialBeatsProvider", func(t *testing.T) {
		factory := &stubFactory{}
		opts := vaultOptions(kv)
		opts.VaultCredential = "configured"
		provider := func(context.Context) (settus.Credential, error) {
			t.Fatal("provider must not be called")
			return nil, nil
		}
		src := settus.NewVaultSource(opts, factory.new, provider, discardLogger())
		_, err := src.Resolve(ctx, settus.Field{Name: "a"})
		require.NoError(t, err)
		require.Len(t, factory.calls, 1)
		assert.Equal(t, "configured", factory.calls[0].cred)
	})

	t.Run("ComplexValue", func(t *testing.T) {
		vault := &stubVault{secrets: map[string]string{"labels": `{"team":"core"}`}}
		factory := &stubFactory{vaults: map[string]*stubVault{kv: vault}}
		src := settus.NewVaultSource(vaultOptions(kv), factory.new, nil, discardLogger())

		res, err := src.Resolve(ctx, settus.Field{Name: "labels", Complex: true})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"team": "core"}, res.Value)
	})
}
