package saves

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestUpsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO saves .* ON CONFLICT \(game_id, filename\).* DO UPDATE SET`)
	updated := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(q.String()).
		WithArgs("s1", int64(7), "slot1.sav", "abc", int64(128), "objects/s1", updated, "dev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Save{
		ID: "s1", GameID: 7, Filename: "slot1.sav",
		Hash: "abc", Size: 128, StorageKey: "objects/s1",
		UpdatedAt: updated, DeviceID: "dev-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM saves WHERE game_id = \$1 AND filename = \$2`).
		WithArgs(int64(7), "missing.sav").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 7, "missing.sav")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	updated := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	created := updated.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "game_id", "filename", "hash", "size", "storage_key", "updated_at", "device_id", "created_at"}).
		AddRow("s1", int64(7), "slot1.sav", "abc", int64(128), "objects/s1", updated, "dev-1", created)

	mock.ExpectQuery(`SELECT .* FROM saves WHERE game_id = \$1 AND filename = \$2`).
		WithArgs(int64(7), "slot1.sav").
		WillReturnRows(rows)

	s, err := repo.Get(context.Background(), 7, "slot1.sav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Hash != "abc" || s.StorageKey != "objects/s1" {
		t.Fatalf("unexpected save: %+v", s)
	}
}

func TestListByGame(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	updated := time.Now()
	rows := sqlmock.NewRows([]string{"id", "game_id", "filename", "hash", "size", "storage_key", "updated_at", "device_id", "created_at"}).
		AddRow("s1", int64(7), "a.sav", "h1", int64(1), "k1", updated, "d1", updated).
		AddRow("s2", int64(7), "b.sav", "h2", int64(2), "k2", updated, "d1", updated)

	mock.ExpectQuery(`SELECT .* FROM saves WHERE game_id = \$1 ORDER BY filename`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	list, err := repo.ListByGame(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(list))
	}
}
