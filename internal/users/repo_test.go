package users

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "external_id", "email", "name", "role", "created_at", "updated_at"}

func TestUpsertKeepsRoleOutOfUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users.*ON CONFLICT \(external_id\) DO UPDATE\s+SET email = EXCLUDED.email, name = EXCLUDED.name`).
		WithArgs(pgxmock.AnyArg(), "auth0|42", "b@example.com", "Bea").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u1", "auth0|42", "b@example.com", "Bea", "SELLER", now, now))

	repo := &Repo{DB: mock}
	u, err := repo.Upsert(context.Background(), Identity{ExternalID: "auth0|42", Email: "b@example.com", Name: "Bea"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, RoleSeller, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id=\$1`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err = (&Repo{DB: mock}).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET role=\$2`).WithArgs("u1", "ADMIN").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u1", "x", "e@example.com", "E", "ADMIN", now, now))

	u, err := (&Repo{DB: mock}).SetRole(context.Background(), "u1", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" seller ")
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, r)
	assert.True(t, r.CanSell())
	assert.False(t, RoleBuyer.CanSell())

	_, err = ParseRole("owner")
	assert.Error(t, err)
}

func TestGetByExternalID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE external_id=\$1`).WithArgs("auth0|42").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u1", "auth0|42", "a@example.com", "Ada", "ADMIN", now, now))
	mock.ExpectQuery(`SELECT .* FROM users WHERE external_id=\$1`).WithArgs("auth0|none").WillReturnError(pgx.ErrNoRows)

	repo := &Repo{DB: mock}
	u, err := repo.GetByExternalID(context.Background(), "auth0|42")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)

	_, err = repo.GetByExternalID(context.Background(), "auth0|none")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
