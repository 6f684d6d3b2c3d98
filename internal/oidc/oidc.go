package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/govpub/govpub/backend/go-services/internal/config"
	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
)

// IDToken is a minimal interface for token payloads that allows extracting claims
// It is satisfied by *oidc.IDToken and by test fakes.
type IDToken interface {
	Claims(v interface{}) error
}

// Verifier wraps the Keycloak realm's OIDC token verifier.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the realm issuer and returns a verifier for the
// configured client.
func NewVerifier(ctx context.Context, kc config.KeycloakConfig) (*Verifier, error) {
	if kc.URL == "" || kc.ClientID == "" {
		return nil, errors.New("keycloak url and client id are required")
	}
	provider, err := oidc.NewProvider(ctx, kc.Issuer())
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: kc.ClientID})}, nil
}

// Verify verifies the provided raw ID token using the provided context and returns a middleware.Token
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Chain tries each verifier in order and returns the first success. Staff
// sign in through Keycloak while the scheduler presents a service token.
type Chain []middleware.Verifier

func (c Chain) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	var errs []error
	for _, v := range c {
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}
