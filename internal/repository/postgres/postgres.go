// Package postgres implements the repository interfaces on PostgreSQL
// through gorm.
//
// It is selected when DATABASE_URL is a postgres:// URL. The schema is the
// same one the sqlite backend creates by hand; here gorm's AutoMigrate
// derives it from the model struct tags.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a gorm handle.
type DB struct {
	gorm *gorm.DB
}

// sessionRecord is the row shape of the sessions table. The session itself
// is stored as a JSON document, mirroring the sqlite backend.
type sessionRecord struct {
	ID        string    `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;default:0"`
	Data      string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (sessionRecord) TableName() string { return "sessions" }

// New connects to dsn and migrates the schema.
//
// TranslateError makes gorm return gorm.ErrDuplicatedKey for unique
// violations, so we never have to inspect pgx error codes ourselves.
func New(dsn string, log *slog.Logger) (*DB, error) {
	g, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	if err := g.AutoMigrate(&model.User{}, &model.Park{}, &sessionRecord{}); err != nil {
		return nil, fmt.Errorf("postgres: auto migrate: %w", err)
	}

	log.Info("postgres schema ready")
	return &DB{gorm: g}, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return fmt.Errorf("postgres: getting sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// --- parks ---

func (db *DB) CreatePark(ctx context.Context, park *model.Park) error {
	err := db.gorm.WithContext(ctx).Create(park).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("park", "name", park.Name)
	}
	if err != nil {
		return fmt.Errorf("postgres: creating park: %w", err)
	}
	return nil
}

func (db *DB) GetPark(ctx context.Context, id int64) (*model.Park, error) {
	var p model.Park
	err := db.gorm.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("park", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting park %d: %w", id, err)
	}
	return &p, nil
}

func (db *DB) GetParkByName(ctx context.Context, name string) (*model.Park, error) {
	var p model.Park
	err := db.gorm.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("park not found with name %q", name),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting park by name: %w", err)
	}
	return &p, nil
}

func (db *DB) ListParks(ctx context.Context) ([]model.Park, error) {
	parks := make([]model.Park, 0)
	if err := db.gorm.WithContext(ctx).Order("name").Find(&parks).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing parks: %w", err)
	}
	return parks, nil
}

func (db *DB) UpdatePark(ctx context.Context, park *model.Park) error {
	// Updates with a struct skips zero values, so a flag set back to false
	// would be lost. Select("*") forces every column into the SET list.
	res := db.gorm.WithContext(ctx).Model(park).
		Select("*").Omit("id").
		Updates(park)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("park", "name", park.Name)
	}
	if res.Error != nil {
		return fmt.Errorf("postgres: updating park %d: %w", park.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("park", park.ID)
	}
	return nil
}

func (db *DB) DeletePark(ctx context.Context, id int64) error {
	res := db.gorm.WithContext(ctx).Delete(&model.Park{}, id)
	if res.Error != nil {
		return fmt.Errorf("postgres: deleting park %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("park", id)
	}
	return nil
}

// --- users ---

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	err := db.gorm.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("user", "email", user.Email)
	}
	if err != nil {
		return fmt.Errorf("postgres: creating user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := db.gorm.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return &u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := db.gorm.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("user not found with email %s", email),
			Field:   "email",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return &u, nil
}
