package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/users"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, n NewAsset) (Asset, error)
	Get(ctx context.Context, id string) (Asset, error)
	Update(ctx context.Context, id string, p AssetPatch) (Asset, error)
	Delete(ctx context.Context, id string) error
	AddPreview(ctx context.Context, assetID, url string, kind PreviewKind) (Preview, error)
}

type UserLookup interface {
	Get(ctx context.Context, userID string) (users.User, error)
}

// Service is the seller/admin side of the catalog.
type Service struct {
	Store Store
	Users UserLookup
	Log   *zap.Logger
}

func (s *Service) Create(ctx context.Context, n NewAsset) (Asset, error) {
	if err := n.Validate(); err != nil {
		return Asset{}, err
	}
	seller, err := s.Users.Get(ctx, n.SellerID)
	if errors.Is(err, users.ErrUserNotFound) {
		return Asset{}, ErrNotSeller
	}
	if err != nil {
		return Asset{}, err
	}
	if !seller.Role.CanSell() {
		return Asset{}, ErrNotSeller
	}
	a, err := s.Store.Create(ctx, n)
	if err != nil {
		return Asset{}, err
	}
	s.Log.Info("asset created", zap.String("asset_id", a.ID), zap.String("seller_id", a.SellerID), zap.Int64("price_cents", a.PriceCents))
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Asset, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, p AssetPatch) (Asset, error) {
	if p.Empty() {
		return Asset{}, fmt.Errorf("%w: nothing to update", errs.ErrInvalid)
	}
	if err := p.Validate(); err != nil {
		return Asset{}, err
	}
	return s.Store.Update(ctx, id, p)
}

func (s *Service) SetStatus(ctx context.Context, id string, st Status) (Asset, error) {
	if !st.Valid() {
		return Asset{}, fmt.Errorf("%w: unknown asset status %q", errs.ErrInvalid, st)
	}
	a, err := s.Store.Update(ctx, id, AssetPatch{Status: &st})
	if err != nil {
		return Asset{}, err
	}
	s.Log.Info("asset status changed", zap.String("asset_id", id), zap.String("status", string(st)))
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Log.Warn("asset deleted", zap.String("asset_id", id))
	return nil
}

func (s *Service) AddPreview(ctx context.Context, assetID, rawURL string, kind PreviewKind) (Preview, error) {
	if !kind.Valid() {
		return Preview{}, fmt.Errorf("%w: unknown preview kind %q", errs.ErrInvalid, kind)
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Preview{}, fmt.Errorf("%w: preview url must be absolute http(s)", errs.ErrInvalid)
	}
	return s.Store.AddPreview(ctx, assetID, u.String(), kind)
}
