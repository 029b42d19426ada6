package azurekv

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okube-ai/settus"
)

type stubAPI struct {
	secrets map[string]string
	errs    map[string]error
	calls   []string
}

func (s *stubAPI) GetSecret(_ context.Context, name string, version string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	s.calls = append(s.calls, name)
	if err, ok := s.errs[name]; ok {
		return azsecrets.GetSecretResponse{}, err
	}
	v, ok := s.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "SecretNotFound"}
	}
	var resp azsecrets.GetSecretResponse
	resp.Value = &v
	return resp, nil
}

type fakeCredential struct{}

func (fakeCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "fake"}, nil
}

func TestGetSecret(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("dial tcp: timeout")
	stub := &stubAPI{
		secrets: map[string]string{"db-password": "hunter2"},
		errs: map[string]error{
			"forbidden": &azcore.ResponseError{StatusCode: http.StatusForbidden, ErrorCode: "Forbidden"},
			"broken":    boom,
		},
	}
	c, err := New(stub)
	require.NoError(t, err)

	t.Run("Found", func(t *testing.T) {
		v, err := c.GetSecret(ctx, "db-password")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", v)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := c.GetSecret(ctx, "missing")
		assert.ErrorIs(t, err, settus.ErrSecretNotFound)
	})

	t.Run("Forbidden", func(t *testing.T) {
		_, err := c.GetSecret(ctx, "forbidden")
		assert.ErrorIs(t, err, settus.ErrAccessDenied)
	})

	t.Run("TransportError", func(t *testing.T) {
		_, err := c.GetSecret(ctx, "broken")
		assert.ErrorIs(t, err, boom)
		assert.False(t, settus.IsAbsent(err))
	})
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsForeignCredential", func(t *testing.T) {
		_, err := Factory(nil)(ctx, "https://example.vault.azure.net/", "token")
		assert.Error(t, err)
	})

	t.Run("AcceptsTokenCredential", func(t *testing.T) {
		client, err := Factory(nil)(ctx, "https://example.vault.azure.net/", fakeCredential{})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestVaultThroughBuilder(t *testing.T) {
	stub := &stubAPI{secrets: map[string]string{"db-password": "hunter2"}}
	factory := func(_ context.Context, location string, _ settus.Credential) (settus.VaultClient, error) {
		assert.Equal(t, "https://example.vault.azure.net/", location)
		return New(stub)
	}

	var s struct {
		Password string `settus:"name:db_password alias:db-password"`
	}
	res, err := settus.NewBuilder().
		WithTarget(&s).
		WithEnviron([]string{}).
		WithVaultURL("https://example.vault.azure.net/").
		WithVaultClient(factory).
		Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hunter2", s.Password)
	assert.Equal(t, []string{"db-password"}, stub.calls, "keys holding the nested delimiter are never fetched")

	origin, ok := res.Origin("db_password")
	require.True(t, ok)
	assert.Equal(t, settus.SourceVault, origin)
}
