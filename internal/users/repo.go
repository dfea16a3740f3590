package users

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DB }

const userColumns = `id, external_id, email, name, role, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = Role(role)
	return u, err
}

// Upsert creates the user on first sign-in and refreshes email/name afterwards.
// Role is never touched here; only admins change it.
func (r *Repo) Upsert(ctx context.Context, id Identity) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users(id, external_id, email, name, role)
		VALUES ($1, $2, $3, $4, 'BUYER')
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = now()
		RETURNING `+userColumns,
		uuid.NewString(), id.ExternalID, id.Email, id.Name,
	))
	if err != nil {
		return User{}, errs.Upstream("postgres", err)
	}
	return u, nil
}

func (r *Repo) Get(ctx context.Context, userID string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, errs.Upstream("postgres", err)
	}
	return u, nil
}

// GetByExternalID finds the user behind an identity-provider subject.
func (r *Repo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id=$1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, errs.Upstream("postgres", err)
	}
	return u, nil
}

func (r *Repo) SetRole(ctx context.Context, userID string, role Role) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `
		UPDATE users SET role=$2, updated_at=now() WHERE id=$1
		RETURNING `+userColumns, userID, string(role)))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, errs.Upstream("postgres", err)
	}
	return u, nil
}
