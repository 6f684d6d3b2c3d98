package users

import (
	"context"
	"fmt"

	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/models"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates a user using OIDC claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	a := auth.ActorFromClaims(claims)
	if a.ID == "" {
		return nil, nil
	}
	u := &models.User{
		Sub:   a.ID,
		Email: a.Email,
		Name:  a.Name,
		Roles: a.Roles,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// EmailFor resolves a user's address. Users only become known once they have
// signed in, so an unknown subject is an error.
func (s *Service) EmailFor(ctx context.Context, sub string) (string, error) {
	u, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return "", err
	}
	if u == nil || u.Email == "" {
		return "", fmt.Errorf("no e-mail address known for user %s", sub)
	}
	return u.Email, nil
}
