// Package playtime provides the SQLite-backed store for play sessions.
package playtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, gameID int64) (*models.Playtime, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT game_id, total_seconds, session_count, last_session_start, last_session_duration, session_open
		 FROM playtime WHERE game_id=?`, gameID)

	p := &models.Playtime{}
	var start int64
	var open int
	err := row.Scan(&p.GameID, &p.TotalSeconds, &p.SessionCount, &start, &p.LastSessionDuration, &open)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	if start != 0 {
		p.LastSessionStart = time.Unix(0, start)
	}
	p.SessionOpen = open == 1
	return p, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Playtime) error {
	var start int64
	if !p.LastSessionStart.IsZero() {
		start = p.LastSessionStart.UnixNano()
	}
	open := 0
	if p.SessionOpen {
		open = 1
	}
	query := `INSERT INTO playtime (game_id, total_seconds, session_count, last_session_start, last_session_duration, session_open)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			total_seconds = excluded.total_seconds,
			session_count = excluded.session_count,
			last_session_start = excluded.last_session_start,
			last_session_duration = excluded.last_session_duration,
			session_open = excluded.session_open
	`
	_, err := r.db.ExecContext(ctx, query,
		p.GameID, p.TotalSeconds, p.SessionCount, start, p.LastSessionDuration, open)
	if err != nil {
		return fmt.Errorf("failed to upsert playtime: %w", err)
	}
	return nil
}
