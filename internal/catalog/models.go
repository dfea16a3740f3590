package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusInactive }

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown asset status %q", errs.ErrInvalid, s)
	}
	return st, nil
}

type PreviewKind string

const (
	PreviewImage PreviewKind = "IMAGE"
	PreviewVideo PreviewKind = "VIDEO"
	PreviewAudio PreviewKind = "AUDIO"
)

func (k PreviewKind) Valid() bool {
	switch k {
	case PreviewImage, PreviewVideo, PreviewAudio:
		return true
	}
	return false
}

func ParsePreviewKind(s string) (PreviewKind, error) {
	k := PreviewKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown preview kind %q", errs.ErrInvalid, s)
	}
	return k, nil
}

type Asset struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	FileKey     string    `json:"-"` // private object key, never serialized
	Previews    []Preview `json:"previews"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Preview struct {
	ID       string      `json:"id"`
	AssetID  string      `json:"asset_id"`
	URL      string      `json:"url"`
	Kind     PreviewKind `json:"kind"`
	Position int         `json:"position"`
}

type NewAsset struct {
	SellerID    string `json:"seller_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category"`
	FileKey     string `json:"private_file_key"`
}

func (n NewAsset) Validate() error {
	switch {
	case strings.TrimSpace(n.SellerID) == "":
		return fmt.Errorf("%w: seller_id is required", errs.ErrInvalid)
	case strings.TrimSpace(n.Title) == "":
		return fmt.Errorf("%w: title is required", errs.ErrInvalid)
	case n.PriceCents < 0:
		return fmt.Errorf("%w: price_cents must not be negative", errs.ErrInvalid)
	case strings.TrimSpace(n.FileKey) == "":
		return fmt.Errorf("%w: private_file_key is required", errs.ErrInvalid)
	}
	return nil
}

// AssetPatch is a partial update; nil fields are left untouched.
type AssetPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Category    *string `json:"category"`
	Status      *Status `json:"status"`
}

func (p AssetPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", errs.ErrInvalid)
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return fmt.Errorf("%w: price_cents must not be negative", errs.ErrInvalid)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown asset status %q", errs.ErrInvalid, *p.Status)
	}
	return nil
}

func (p AssetPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.PriceCents == nil && p.Category == nil && p.Status == nil
}
