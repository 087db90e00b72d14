package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeParkRepo is an in-memory repository.ParkRepository. It enforces
// name uniqueness like the real stores do.
type fakeParkRepo struct {
	parks  map[int64]model.Park
	nextID int64

	// set to simulate a store failure
	listErr   error
	updateErr error
	updates   int
}

func newFakeParkRepo() *fakeParkRepo {
	return &fakeParkRepo{parks: make(map[int64]model.Park)}
}

func (f *fakeParkRepo) nameTaken(name string, except int64) bool {
	for id, p := range f.parks {
		if p.Name == name && id != except {
			return true
		}
	}
	return false
}

func (f *fakeParkRepo) CreatePark(_ context.Context, park *model.Park) error {
	if f.nameTaken(park.Name, 0) {
		return apperror.Conflict("park", "name", park.Name)
	}
	f.nextID++
	park.ID = f.nextID
	f.parks[park.ID] = *park
	return nil
}

func (f *fakeParkRepo) GetPark(_ context.Context, id int64) (*model.Park, error) {
	p, ok := f.parks[id]
	if !ok {
		return nil, apperror.NotFound("park", id)
	}
	return &p, nil
}

func (f *fakeParkRepo) GetParkByName(_ context.Context, name string) (*model.Park, error) {
	for _, p := range f.parks {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "park not found"}
}

func (f *fakeParkRepo) ListParks(context.Context) ([]model.Park, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Park, 0, len(f.parks))
	for _, p := range f.parks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeParkRepo) UpdatePark(_ context.Context, park *model.Park) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.parks[park.ID]; !ok {
		return apperror.NotFound("park", park.ID)
	}
	if f.nameTaken(park.Name, park.ID) {
		return apperror.Conflict("park", "name", park.Name)
	}
	f.updates++
	f.parks[park.ID] = *park
	return nil
}

func (f *fakeParkRepo) DeletePark(_ context.Context, id int64) error {
	if _, ok := f.parks[id]; !ok {
		return apperror.NotFound("park", id)
	}
	delete(f.parks, id)
	return nil
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[int64]model.User
	nextID int64
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email", user.Email)
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

// fakeNotifier records every message it is asked to send.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// fakeGenerator returns a canned reply and remembers the prompt.
type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	// block until the context is done, to exercise the timeout
	block bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

var errStoreDown = errors.New("database is locked")
