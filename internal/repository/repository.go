// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (sqlite, postgres) and
// sessions can also be kept in redis (see internal/session).
//
// Every implementation follows the same error contract:
//   - a missing row is apperror.ErrNotFound
//   - a UNIQUE violation is apperror.ErrConflict
//   - anything else is wrapped with the backend name as prefix
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sakif/parks/internal/model"
)

type ParkRepository interface {
	CreatePark(ctx context.Context, park *model.Park) error
	GetPark(ctx context.Context, id int64) (*model.Park, error)
	GetParkByName(ctx context.Context, name string) (*model.Park, error)
	// ListParks returns every park ordered by name.
	ListParks(ctx context.Context) ([]model.Park, error)
	UpdatePark(ctx context.Context, park *model.Park) error
	DeletePark(ctx context.Context, id int64) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// ErrSessionNotFound is returned for missing and expired sessions alike.
// Sessions are keyed by opaque strings and never shown to users, so they
// do not go through apperror.
var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes every session that expired before now
	// and reports how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is everything a relational backend provides. Both sqlite.DB and
// postgres.DB satisfy it.
type Store interface {
	ParkRepository
	UserRepository
	SessionRepository
	Close() error
}
