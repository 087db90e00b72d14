package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
	"github.com/sakif/parks/internal/session"
)

type sessionStore struct {
	saved map[string]model.Session
}

func (s *sessionStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	sess, ok := s.saved[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *sessionStore) SaveSession(_ context.Context, sess *model.Session) error {
	s.saved[sess.ID] = *sess
	return nil
}

func (s *sessionStore) DeleteSession(_ context.Context, id string) error {
	delete(s.saved, id)
	return nil
}

func (s *sessionStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestSessions(t *testing.T) (*session.Manager, *sessionStore) {
	t.Helper()
	tokens, err := NewTokenService("test-secret-0123456789")
	require.NoError(t, err)
	store := &sessionStore{saved: map[string]model.Session{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewManager(store, tokens, time.Hour, logger), store
}

func TestRequireLogin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		sess       *model.Session
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "logged in passes through",
			sess:       &model.Session{ID: "a", UserID: 1},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "anonymous is redirected",
			sess:       &model.Session{ID: "b"},
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "no session is redirected",
			sess:       nil,
			wantStatus: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, store := newTestSessions(t)

			called := false
			h := RequireLogin(sessions, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/add_park", nil)
			if tt.sess != nil {
				req = req.WithContext(session.NewContext(req.Context(), tt.sess))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)

			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, "/login", rec.Header().Get("Location"))
			}
			if tt.sess != nil && !tt.wantCalled {
				saved, ok := store.saved[tt.sess.ID]
				require.True(t, ok, "session with the flash should be saved")
				assert.Equal(t, []model.Flash{{Category: model.FlashInfo, Message: LoginRequiredMessage}}, saved.Flashes)
			}
		})
	}
}
