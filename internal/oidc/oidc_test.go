package oidc

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
	"github.com/stretchr/testify/require"
)

func unsigned(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + "."
}

func TestInsecureVerifier_ParsesClaims(t *testing.T) {
	tok, err := NewInsecureVerifier().Verify(context.Background(), unsigned(`{"sub":"u1","roles":["editor"]}`))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "u1", claims["sub"])

	_, err = NewInsecureVerifier().Verify(context.Background(), "garbage")
	require.Error(t, err)
}

func TestInsecureVerifier_AcceptsPaddedPayload(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"u22"}`))
	require.Contains(t, payload, "=")
	tok, err := NewInsecureVerifier().Verify(context.Background(), "e30."+payload+".")
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "u22", claims["sub"])

	_, err = NewInsecureVerifier().Verify(context.Background(), "e30.!!!.")
	require.ErrorContains(t, err, "decode token payload")
}

type rejecting struct{ err error }

func (r rejecting) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	return nil, r.err
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	first := errors.New("wrong issuer")
	tok, err := Chain{rejecting{first}, NewInsecureVerifier()}.Verify(ctx, unsigned(`{"sub":"svc"}`))
	require.NoError(t, err)
	require.NotNil(t, tok)

	second := errors.New("bad signature")
	_, err = Chain{rejecting{first}, rejecting{second}}.Verify(ctx, "x")
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)

	_, err = Chain{}.Verify(ctx, "x")
	require.Error(t, err)
}
