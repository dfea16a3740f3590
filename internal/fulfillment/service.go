// Package fulfillment decides who may download an asset and hands out
// short-lived links to the private file.
package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/catalog"
	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/logx"
	"github.com/ariefcatur/go-digital-market.git/internal/metrics"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MaxTTL caps every issued link.
const MaxTTL = 300 * time.Second

var ErrNotEntitled = fmt.Errorf("buyer has no paid order for this asset: %w", errs.ErrNotEntitled)

// Entitlements is answered by orders.Repo.
type Entitlements interface {
	HasPaidItem(ctx context.Context, buyerID, assetID string) (bool, error)
}

type Assets interface {
	Get(ctx context.Context, id string) (catalog.Asset, error)
}

type Signer interface {
	SignURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

type Service struct {
	Entitlements Entitlements
	Assets       Assets
	Signer       Signer
	Bucket       string
	TTL          time.Duration
	Redis        redis.Cmdable // optional, positive answers only
	Log          *zap.Logger
	Now          func() time.Time
}

type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Entitled reports whether buyerID holds a PAID order containing assetID.
// A "no" is never cached, so a fresh payment is visible on the next call.
func (s *Service) Entitled(ctx context.Context, buyerID, assetID string) (bool, error) {
	buyerID, assetID = strings.TrimSpace(buyerID), strings.TrimSpace(assetID)
	if buyerID == "" || assetID == "" {
		return false, fmt.Errorf("%w: buyer_id and asset_id are required", errs.ErrInvalid)
	}

	var key string
	if s.Redis != nil {
		key = redisx.Entitled(buyerID, assetID)
		if ok, err := redisx.Exists(ctx, s.Redis, key); err == nil && ok {
			return true, nil
		}
	}

	ok, err := s.Entitlements.HasPaidItem(ctx, buyerID, assetID)
	if err != nil {
		return false, err
	}
	// PAID itu terminal, jadi jawaban positif aman di-cache
	if ok && key != "" {
		_ = s.Redis.Set(ctx, key, "1", redisx.TTLEntitlement).Err()
	}
	return ok, nil
}

// DownloadURL checks entitlement before anything else; the signer is never
// called for a buyer who has not paid.
func (s *Service) DownloadURL(ctx context.Context, assetID, buyerID string) (Link, error) {
	ok, err := s.Entitled(ctx, buyerID, assetID)
	if err != nil {
		metrics.DownloadLinks.WithLabelValues("error").Inc()
		return Link{}, err
	}
	if !ok {
		metrics.DownloadLinks.WithLabelValues("denied").Inc()
		logx.OrNop(s.Log).Info("download denied", zap.String("asset_id", assetID), zap.String("buyer_id", buyerID))
		return Link{}, ErrNotEntitled
	}

	a, err := s.Assets.Get(ctx, assetID)
	if err != nil {
		metrics.DownloadLinks.WithLabelValues("error").Inc()
		return Link{}, err
	}

	ttl := s.ttl()
	issued := s.now()
	u, err := s.Signer.SignURL(ctx, s.Bucket, a.FileKey, ttl)
	if err != nil {
		metrics.DownloadLinks.WithLabelValues("error").Inc()
		return Link{}, err
	}
	metrics.DownloadLinks.WithLabelValues("issued").Inc()
	logx.OrNop(s.Log).Info("download link issued",
		zap.String("asset_id", assetID),
		zap.String("buyer_id", buyerID),
		zap.Duration("ttl", ttl),
	)
	return Link{URL: u, ExpiresAt: issued.Add(ttl).UTC()}, nil
}

func (s *Service) ttl() time.Duration {
	if s.TTL <= 0 || s.TTL > MaxTTL {
		return MaxTTL
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
