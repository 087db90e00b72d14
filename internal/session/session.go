// Package session keeps per-browser state on the server.
//
// HOW IT FITS TOGETHER:
//
//	browser ──cookie: signed(session id)──▶ Manager.Middleware
//	                                          │ verify signature
//	                                          │ load from SessionRepository
//	                                          ▼
//	                                   *model.Session in request context
//
// The cookie never carries user data, only a signed ID. The signature
// stops a visitor from guessing or forging someone else's session ID; the
// store holds the login, the flash queue and the chat transcript.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// Signer turns a session ID into a tamper-proof token and back.
// auth.TokenService is the production implementation.
type Signer interface {
	Generate(subject string, ttl time.Duration) (string, error)
	Validate(token string) (string, error)
}

type contextKey struct{}

// Manager loads, saves and rotates sessions.
type Manager struct {
	store  repository.SessionRepository
	signer Signer
	ttl    time.Duration
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithSecureCookie marks the cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithClock overrides time.Now; tests use it to expire sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store repository.SessionRepository, signer Signer, ttl time.Duration, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		signer: signer,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Middleware attaches the caller's session to the request context and
// refreshes the cookie. A missing, forged or expired cookie silently
// starts a new anonymous session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)
		if err := m.writeCookie(w, sess); err != nil {
			m.logger.Error("session: writing cookie", slog.String("error", err.Error()))
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

func (m *Manager) load(r *http.Request) *model.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return m.fresh()
	}

	id, err := m.signer.Validate(cookie.Value)
	if err != nil {
		m.logger.Debug("session: rejecting cookie", slog.String("error", err.Error()))
		return m.fresh()
	}

	sess, err := m.store.GetSession(r.Context(), id)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			m.logger.Error("session: loading", slog.String("error", err.Error()))
		}
		return m.fresh()
	}
	return sess
}

func (m *Manager) fresh() *model.Session {
	return &model.Session{
		ID:        xid.New().String(),
		ExpiresAt: m.now().Add(m.ttl),
	}
}

// Save persists sess and slides its expiry forward.
func (m *Manager) Save(ctx context.Context, sess *model.Session) error {
	sess.ExpiresAt = m.now().Add(m.ttl)
	return m.store.SaveSession(ctx, sess)
}

// Renew moves sess to a brand-new ID, keeping its contents, and re-issues
// the cookie. Call it whenever the privilege level changes (login, logout)
// so a session ID planted before login is useless afterwards.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, sess *model.Session) error {
	oldID := sess.ID
	sess.ID = xid.New().String()

	if err := m.Save(ctx, sess); err != nil {
		return err
	}
	if err := m.store.DeleteSession(ctx, oldID); err != nil {
		m.logger.Warn("session: deleting rotated session", slog.String("error", err.Error()))
	}
	return m.writeCookie(w, sess)
}

// Purge removes expired sessions from the store.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}

func (m *Manager) writeCookie(w http.ResponseWriter, sess *model.Session) error {
	token, err := m.signer.Generate(sess.ID, m.ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(contextKey{}).(*model.Session)
	return sess
}
