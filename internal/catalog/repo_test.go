package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assetCols = []string{"id", "seller_id", "title", "description", "price_cents", "category", "status", "private_file_key", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestGetLoadsPreviewsInOrder(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM assets WHERE id=\$1`).WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(assetCols).
			AddRow("a1", "s1", "Brushes", "Procreate pack", int64(500), "art", "ACTIVE", "files/a1.zip", now, now))
	mock.ExpectQuery(`FROM asset_previews\s+WHERE asset_id=\$1 ORDER BY position`).WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "asset_id", "url", "kind", "position"}).
			AddRow("p1", "a1", "https://cdn.example.com/1.png", "IMAGE", 0).
			AddRow("p2", "a1", "https://cdn.example.com/2.mp4", "VIDEO", 1))

	a, err := (&Repo{DB: mock}).Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), a.PriceCents)
	assert.Equal(t, StatusActive, a.Status)
	assert.Equal(t, "files/a1.zip", a.FileKey)
	require.Len(t, a.Previews, 2)
	assert.Equal(t, PreviewVideo, a.Previews[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM assets WHERE id=\$1`).WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	_, err := (&Repo{DB: mock}).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestUpdateOnlyTouchesGivenFields(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	price := int64(900)

	mock.ExpectExec(`UPDATE assets SET price_cents = \$2, updated_at = now\(\) WHERE id = \$1`).
		WithArgs("a1", int64(900)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM assets WHERE id=\$1`).WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(assetCols).
			AddRow("a1", "s1", "Brushes", "", int64(900), "art", "ACTIVE", "k", now, now))
	mock.ExpectQuery(`FROM asset_previews`).WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "asset_id", "url", "kind", "position"}))

	a, err := (&Repo{DB: mock}).Update(context.Background(), "a1", AssetPatch{PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(900), a.PriceCents)
	assert.Empty(t, a.Previews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissing(t *testing.T) {
	mock := newMock(t)
	st := StatusInactive
	mock.ExpectExec(`UPDATE assets SET status = \$2`).WithArgs("a9", "INACTIVE").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := (&Repo{DB: mock}).Update(context.Background(), "a9", AssetPatch{Status: &st})
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestDeleteRefusesOrderedAsset(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM assets WHERE id=\$1`).WithArgs("a1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := (&Repo{DB: mock}).Delete(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrAssetInUse)
}

func TestAddPreviewAppends(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO asset_previews.*COALESCE\(MAX\(position\) \+ 1, 0\)`).
		WithArgs(pgxmock.AnyArg(), "a1", "https://cdn.example.com/3.png", "IMAGE").
		WillReturnRows(pgxmock.NewRows([]string{"position"}).AddRow(2))

	p, err := (&Repo{DB: mock}).AddPreview(context.Background(), "a1", "https://cdn.example.com/3.png", PreviewImage)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Position)
	assert.NotEmpty(t, p.ID)
}
