package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// GetSession loads a session by ID.
//
// Expired rows are treated exactly like missing ones: the caller gets
// repository.ErrSessionNotFound and starts a fresh session.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		data      string
		expiresAt time.Time
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT data, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&data, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	if !expiresAt.After(time.Now()) {
		return nil, repository.ErrSessionNotFound
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("sqlite: decoding session: %w", err)
	}
	sess.ID = id
	sess.ExpiresAt = expiresAt

	return &sess, nil
}

// SaveSession upserts the session row. The whole session is stored as one
// JSON document; user_id is duplicated into its own column so it can be
// queried without decoding.
func (db *DB) SaveSession(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("sqlite: encoding session: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, data, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_id = excluded.user_id,
		   data = excluded.data,
		   expires_at = excluded.expires_at`,
		sess.ID,
		sess.UserID,
		string(data),
		sess.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging sessions: %w", err)
	}
	return result.RowsAffected()
}
