package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

func TestSession_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess := &model.Session{
		ID:     "c0ffee",
		UserID: 3,
		Transcript: []model.ChatTurn{
			{Sender: model.SenderUser, Message: "Which park has a shop?"},
			{Sender: model.SenderAI, Message: "Oak Hill has a shop."},
		},
		Flashes:   []model.Flash{{Category: model.FlashInfo, Message: "hi"}},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	got, err := db.GetSession(ctx, "c0ffee")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}

	opt := cmpopts.EquateApproxTime(time.Second)
	if diff := cmp.Diff(sess, got, opt); diff != "" {
		t.Errorf("GetSession() mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SaveOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess := &model.Session{ID: "s1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	sess.UserID = 9
	if err := db.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() second error = %v", err)
	}

	got, err := db.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != 9 {
		t.Errorf("UserID = %d, want 9", got.UserID)
	}
}

func TestSession_ExpiredIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess := &model.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := db.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	_, err := db.GetSession(ctx, "old")
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSession_DeleteAndPurge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	for id, exp := range map[string]time.Time{
		"live":  now.Add(time.Hour),
		"dead1": now.Add(-time.Hour),
		"dead2": now.Add(-2 * time.Hour),
	} {
		if err := db.SaveSession(ctx, &model.Session{ID: id, ExpiresAt: exp}); err != nil {
			t.Fatalf("SaveSession(%s) error = %v", id, err)
		}
	}

	n, err := db.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteExpiredSessions() removed %d, want 2", n)
	}

	if err := db.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, "live"); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrSessionNotFound", err)
	}
}
