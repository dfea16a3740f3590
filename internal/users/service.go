package users

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type Store interface {
	Upsert(ctx context.Context, id Identity) (User, error)
	Get(ctx context.Context, userID string) (User, error)
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	SetRole(ctx context.Context, userID string, role Role) (User, error)
}

type Service struct {
	Store    Store
	Verifier TokenVerifier
	Log      *zap.Logger
}

// Sync verifies the bearer token and upserts the user it names.
func (s *Service) Sync(ctx context.Context, bearer string) (User, error) {
	id, err := s.Verifier.Verify(bearer)
	if err != nil {
		return User{}, err
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	u, err := s.Store.Upsert(ctx, id)
	if err != nil {
		return User{}, err
	}
	s.Log.Info("user synced", zap.String("user_id", u.ID), zap.String("external_id", u.ExternalID))
	return u, nil
}

// Authenticate resolves a bearer token to an already synced user without
// writing anything.
func (s *Service) Authenticate(ctx context.Context, bearer string) (User, error) {
	id, err := s.Verifier.Verify(bearer)
	if err != nil {
		return User{}, err
	}
	return s.Store.GetByExternalID(ctx, id.ExternalID)
}

func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.Store.Get(ctx, userID)
}

func (s *Service) SetRole(ctx context.Context, userID, role string) (User, error) {
	r, err := ParseRole(role)
	if err != nil {
		return User{}, err
	}
	u, err := s.Store.SetRole(ctx, userID, r)
	if err != nil {
		return User{}, err
	}
	s.Log.Info("user role changed", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}
