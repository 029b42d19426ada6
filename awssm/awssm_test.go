package awssm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okube-ai/settus"
)

type stubAPI struct {
	input *secretsmanager.GetSecretValueInput
	out   *secretsmanager.GetSecretValueOutput
	err   error
}

func (s *stubAPI) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func TestGetSecretString(t *testing.T) {
	ctx := context.Background()

	t.Run("StringPayload", func(t *testing.T) {
		stub := &stubAPI{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"k":"v"}`)}}
		c, err := New(stub, WithVersionStage("AWSCURRENT"))
		require.NoError(t, err)

		got, err := c.GetSecretString(ctx, "bundle")
		require.NoError(t, err)
		assert.Equal(t, `{"k":"v"}`, got)
		assert.Equal(t, "bundle", aws.ToString(stub.input.SecretId))
		assert.Equal(t, "AWSCURRENT", aws.ToString(stub.input.VersionStage))
	})

	t.Run("BinaryPayload", func(t *testing.T) {
		stub := &stubAPI{out: &secretsmanager.GetSecretValueOutput{SecretBinary: []byte("abc")}}
		c, err := New(stub)
		require.NoError(t, err)

		got, err := c.GetSecret(ctx, "secret")
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		c, err := New(&stubAPI{out: &secretsmanager.GetSecretValueOutput{}})
		require.NoError(t, err)

		_, err = c.GetSecretString(ctx, "secret")
		assert.ErrorIs(t, err, settus.ErrMalformedPayload)
	})

	t.Run("NotFoundIsAbsent", func(t *testing.T) {
		c, err := New(&stubAPI{err: &types.ResourceNotFoundException{Message: aws.String("missing")}})
		require.NoError(t, err)

		_, err = c.GetSecretString(ctx, "secret")
		assert.ErrorIs(t, err, settus.ErrSecretNotFound)
		assert.True(t, settus.IsAbsent(err))
	})

	t.Run("AccessDeniedIsAbsent", func(t *testing.T) {
		c, err := New(&stubAPI{err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}})
		require.NoError(t, err)

		_, err = c.GetSecretString(ctx, "secret")
		assert.ErrorIs(t, err, settus.ErrAccessDenied)
	})

	t.Run("OtherErrorsPropagate", func(t *testing.T) {
		boom := errors.New("connection reset")
		c, err := New(&stubAPI{err: boom})
		require.NoError(t, err)

		_, err = c.GetSecretString(ctx, "secret")
		assert.ErrorIs(t, err, boom)
		assert.False(t, settus.IsAbsent(err))
	})
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestFactoryRejectsForeignCredential(t *testing.T) {
	_, err := Factory()(context.Background(), "eu-west-1", "not-a-provider")
	assert.Error(t, err)
}

func TestBundleThroughBuilder(t *testing.T) {
	stub := &stubAPI{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"api_key":"k-123","port":"9000"}`)}}
	c, err := New(stub)
	require.NoError(t, err)

	var s struct {
		APIKey string `settus:"name:api_key"`
		Port   int    `settus:"name:port default:80"`
	}
	_, err = settus.NewBuilder().
		WithTarget(&s).
		WithEnviron([]string{}).
		WithSecretName("app/prod").
		WithSecretsManagerClient(c).
		Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k-123", s.APIKey)
	assert.Equal(t, 9000, s.Port)
}
