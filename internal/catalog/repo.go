package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DB }

const assetColumns = `id, seller_id, title, description, price_cents, category, status, private_file_key, created_at, updated_at`

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	var status string
	err := row.Scan(&a.ID, &a.SellerID, &a.Title, &a.Description, &a.PriceCents, &a.Category, &status, &a.FileKey, &a.CreatedAt, &a.UpdatedAt)
	a.Status = Status(status)
	return a, err
}

func (r *Repo) Create(ctx context.Context, n NewAsset) (Asset, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO assets(id, seller_id, title, description, price_cents, category, status, private_file_key)
		VALUES ($1, $2, $3, $4, $5, $6, 'ACTIVE', $7)
		RETURNING `+assetColumns,
		uuid.NewString(), n.SellerID, n.Title, n.Description, n.PriceCents, n.Category, n.FileKey,
	)
	a, err := scanAsset(row)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return Asset{}, ErrNotSeller
		}
		return Asset{}, errs.Upstream("postgres", err)
	}
	a.Previews = []Preview{}
	return a, nil
}

// Get returns the asset with its previews in display order.
func (r *Repo) Get(ctx context.Context, id string) (Asset, error) {
	a, err := scanAsset(r.DB.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Asset{}, ErrAssetNotFound
	}
	if err != nil {
		return Asset{}, errs.Upstream("postgres", err)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, asset_id, url, kind, position FROM asset_previews
		WHERE asset_id=$1 ORDER BY position`, id)
	if err != nil {
		return Asset{}, errs.Upstream("postgres", err)
	}
	defer rows.Close()

	a.Previews = []Preview{}
	for rows.Next() {
		var p Preview
		var kind string
		if err := rows.Scan(&p.ID, &p.AssetID, &p.URL, &kind, &p.Position); err != nil {
			return Asset{}, errs.Upstream("postgres", err)
		}
		p.Kind = PreviewKind(kind)
		a.Previews = append(a.Previews, p)
	}
	if err := rows.Err(); err != nil {
		return Asset{}, errs.Upstream("postgres", err)
	}
	return a, nil
}

func (r *Repo) Update(ctx context.Context, id string, p AssetPatch) (Asset, error) {
	args := []any{id}
	sets := make([]string, 0, 6)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.PriceCents != nil {
		set("price_cents", *p.PriceCents)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	sets = append(sets, "updated_at = now()")

	ct, err := r.DB.Exec(ctx, `UPDATE assets SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return Asset{}, errs.Upstream("postgres", err)
	}
	if ct.RowsAffected() == 0 {
		return Asset{}, ErrAssetNotFound
	}
	return r.Get(ctx, id)
}

// Delete hard-deletes an asset. Assets referenced by any order item are kept,
// otherwise buyers would lose their entitlement.
func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrAssetInUse
		}
		return errs.Upstream("postgres", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// AddPreview appends a preview after the current last position.
func (r *Repo) AddPreview(ctx context.Context, assetID, url string, kind PreviewKind) (Preview, error) {
	p := Preview{ID: uuid.NewString(), AssetID: assetID, URL: url, Kind: kind}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO asset_previews(id, asset_id, url, kind, position)
		SELECT $1, $2, $3, $4, COALESCE(MAX(position) + 1, 0) FROM asset_previews WHERE asset_id = $2
		RETURNING position`,
		p.ID, assetID, url, string(kind),
	).Scan(&p.Position)
	switch {
	case err == nil:
		return p, nil
	case postgres.IsForeignKeyViolation(err):
		return Preview{}, ErrAssetNotFound
	case postgres.IsUniqueViolation(err):
		return Preview{}, fmt.Errorf("concurrent preview insert: %w", errs.ErrConflict)
	default:
		return Preview{}, errs.Upstream("postgres", err)
	}
}
