package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/parks/internal/auth"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/notify"
	"github.com/sakif/parks/internal/repository/sqlite"
	"github.com/sakif/parks/internal/service"
	"github.com/sakif/parks/internal/session"
	"github.com/sakif/parks/web"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "correct-horse"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type cannedGenerator struct{ reply string }

func (g cannedGenerator) Generate(context.Context, string) (string, error) { return g.reply, nil }

// testApp is the whole HTTP stack over an in-memory sqlite database.
type testApp struct {
	server   *httptest.Server
	db       *sqlite.DB
	parks    *service.ParkService
	notifier *recordingNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-key")
	require.NoError(t, err)
	sessions := session.NewManager(db, tokens, time.Hour, logger)

	pages, err := NewRenderer(web.Templates, sessions, logger)
	require.NoError(t, err)

	validator := form.NewValidator()
	notifier := &recordingNotifier{}
	parkService := service.NewParkService(db, validator, notifier, logger)
	authService := service.NewAuthService(db, auth.NewPasswordService(bcrypt.MinCost), validator, logger)
	chatService := service.NewChatService(db, cannedGenerator{reply: "Try Riverside Park."}, service.ChatOptions{HistoryLimit: 4}, logger)

	_, err = authService.CreateUser(context.Background(), form.UserInput{Email: testEmail, Name: "Admin", Password: testPassword})
	require.NoError(t, err)

	parkHandler := NewParkHandler(parkService, pages, logger)
	authHandler := NewAuthHandler(authService, nil, sessions, pages, logger)
	chatHandler := NewChatHandler(chatService, sessions, pages, logger)
	apiHandler := NewAPIHandler(parkService, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Get("/", parkHandler.HandleIndex)
		r.Get("/parks", parkHandler.HandleList)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/add_park", parkHandler.HandleAddForm)
		r.Post("/add_park", parkHandler.HandleAdd)
		r.Get("/edit_park/{id}", parkHandler.HandleEditForm)
		r.Post("/edit_park/{id}", parkHandler.HandleEdit)
		r.Get("/chat", chatHandler.HandleChat)
		r.Post("/chat", chatHandler.HandleAsk)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireLogin(sessions, logger))
			r.Get("/logout", authHandler.HandleLogout)
			r.Post("/delete_park/{id}", parkHandler.HandleDelete)
		})
	})
	r.Get("/api/all", apiHandler.HandleAll)
	r.Post("/api/add", apiHandler.HandleAdd)
	r.Patch("/api/update/{id}", apiHandler.HandleUpdate)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testApp{server: srv, db: db, parks: parkService, notifier: notifier}
}

// client returns a browser-like client: it keeps cookies and does not
// follow redirects, so tests can assert on them.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) loggedInClient(t *testing.T) *http.Client {
	t.Helper()
	c := a.client(t)
	resp := a.postForm(t, c, "/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return c
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) postForm(t *testing.T, c *http.Client, path string, values url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(a.server.URL+path, values)
	require.NoError(t, err)
	readBody(t, resp)
	return resp
}

func (a *testApp) postFormBody(t *testing.T, c *http.Client, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(a.server.URL+path, values)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) createPark(t *testing.T, name string) *model.Park {
	t.Helper()
	p, err := a.parks.Create(context.Background(), form.DecodePark(parkValues(name)))
	require.NoError(t, err)
	return p
}

func (a *testApp) storedPark(t *testing.T, id int64) *model.Park {
	t.Helper()
	p, err := a.db.GetPark(context.Background(), id)
	require.NoError(t, err)
	return p
}

func parkValues(name string) url.Values {
	return url.Values{
		"name":                 {name},
		"map_url":              {"https://maps.example/x"},
		"playground_condition": {"3"},
		"playground_variety":   {"3"},
		"security":             {"3"},
		"tree_coverage":        {"3"},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// followFlash loads the redirect target and returns its body, which
// carries any flash queued by the previous request.
func (a *testApp) followFlash(t *testing.T, c *http.Client, resp *http.Response) string {
	t.Helper()
	loc := resp.Header.Get("Location")
	require.NotEmpty(t, loc)
	_, body := a.get(t, c, loc)
	return body
}

func countOccurrences(s, sub string) int { return strings.Count(s, sub) }
