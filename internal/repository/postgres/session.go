package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var rec sessionRecord
	err := db.gorm.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, time.Now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(rec.Data), &sess); err != nil {
		return nil, fmt.Errorf("postgres: decoding session: %w", err)
	}
	sess.ID = rec.ID
	sess.ExpiresAt = rec.ExpiresAt
	return &sess, nil
}

func (db *DB) SaveSession(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("postgres: encoding session: %w", err)
	}

	rec := sessionRecord{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Data:      string(data),
		ExpiresAt: sess.ExpiresAt.UTC(),
	}
	err = db.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "data", "expires_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("postgres: saving session: %w", err)
	}
	return nil
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if err := db.gorm.WithContext(ctx).Delete(&sessionRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("postgres: deleting session: %w", err)
	}
	return nil
}

func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := db.gorm.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&sessionRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("postgres: purging sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
