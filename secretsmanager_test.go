// FILE: okube-ai/settus/secretsmanager_test.go
package settus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/okube-ai/settus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBundles struct {
	payloads map[string]string
	err      error
	calls    map[string]int
}

func (b *stubBundles) GetSecretString(_ context.Context, name string) (string, error) {
	if b.calls == nil {
		b.calls = make(map[string]int)
	}
	b.calls[name]++
	if b.err != nil {
		return "", b.err
	}
	p, ok := b.payloads[name]
	if !ok {
		return "", settus.ErrSecretNotFound
	}
	return p, nil
}

func bundleOptions(name string) settus.Options {
	opts := settus.DefaultOptions()
	opts.SecretName = name
	return opts
}

func TestSecretsManagerSource(t *testing.T) {
	ctx := context.Background()

	t.Run("NoBundleIsAbsent", func(t *testing.T) {
		src := settus.NewSecretsManagerSource(settus.DefaultOptions(), nil, discardLogger())
		res, err := src.Resolve(ctx, settus.Field{Name: "a"})
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("MissingClient", func(t *testing.T) {
		src := settus.NewSecretsManagerSource(bundleOptions("app"), nil, discardLogger())
		_, err := src.Resolve(ctx, settus.Field{Name: "a"})
		assert.ErrorIs(t, err, settus.ErrNoSecretsManagerClient)
	})

	t.Run("FetchedOncePerBundle", func(t *testing.T) {
		client := &stubBundles{payloads: map[string]string{
			"app":   `{"user":"u","api-key":"k","port":5432}`,
			"other": `{"owner":"o"}`,
		}}
		src := settus.NewSecretsManagerSource(bundleOptions("app"), client, discardLogger())
		schema := settus.MustSchema(
			settus.Field{Name: "user"},
			settus.Field{Name: "key", Aliases: []string{"api-key"}},
			settus.Field{Name: "port"},
			settus.Field{Name: "missing"},
			settus.Field{Name: "owner", SecretName: "other"},
		)

		out, err := src.Snapshot(ctx, schema)
		require.NoError(t, err)
		assert.Equal(t, "u", out["user"])
		assert.Equal(t, "k", out["api-key"])
		assert.Equal(t, json.Number("5432"), out["port"])
		assert.Equal(t, "o", out["owner"])
		assert.NotContains(t, out, "missing")
		assert.Equal(t, map[string]int{"app": 1, "other": 1}, client.calls)
	})

	t.Run("AbsentBundle", func(t *testing.T) {
		client := &stubBundles{}
		src := settus.NewSecretsManagerSource(bundleOptions("gone"), client, discardLogger())
		out, err := src.Snapshot(ctx, settus.MustSchema(settus.Field{Name: "a"}, settus.Field{Name: "b"}))
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, 1, client.calls["gone"])
	})

	t.Run("MalformedPayloadIsFatal", func(t *testing.T) {
		for name, payload := range map[string]string{
			"NotJSON":  "plain text",
			"JSONList": `["a","b"]`,
			"Scalar":   `"just a string"`,
		} {
			client := &stubBundles{payloads: map[string]string{"app": payload}}
			src := settus.NewSecretsManagerSource(bundleOptions("app"), client, discardLogger())
			_, err := src.Resolve(ctx, settus.Field{Name: "a"})
			assert.ErrorIs(t, err, settus.ErrMalformedPayload, name)
			var srcErr *settus.SourceError
			assert.ErrorAs(t, err, &srcErr, name)
		}
	})

	t.Run("TransportError", func(t *testing.T) {
		boom := errors.New("throttled")
		src := settus.NewSecretsManagerSource(bundleOptions("app"), &stubBundles{err: boom}, discardLogger())
		_, err := src.Resolve(ctx, settus.Field{Name: "a"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("ComplexStringValue", func(t *testing.T) {
		client := &stubBundles{payloads: map[string]string{"app": `{"labels":"{\"team\":\"core\"}"}`}}
		src := settus.NewSecretsManagerSource(bundleOptions("app"), client, discardLogger())
		res, err := src.Resolve(ctx, settus.Field{Name: "labels", Complex: true})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"team": "core"}, res.Value)
	})
}
