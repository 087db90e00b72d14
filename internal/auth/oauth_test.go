package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newFakeGitHub serves the token endpoint and the two API paths the
// provider calls.
func newFakeGitHub(t *testing.T, user GitHubUser, emails []gitHubEmail) *GitHubProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_test",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}
	p.apiBase = srv.URL
	return p
}

func TestExchange_UsesProfileEmail(t *testing.T) {
	p := newFakeGitHub(t, GitHubUser{ID: 7, Login: "octo", Email: "Octo@Example.com"}, nil)

	u, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "octo@example.com", u.Email)
}

func TestExchange_FallsBackToPrimaryEmail(t *testing.T) {
	p := newFakeGitHub(t, GitHubUser{ID: 7, Login: "octo"}, []gitHubEmail{
		{Email: "old@example.com", Primary: false, Verified: true},
		{Email: "main@example.com", Primary: true, Verified: true},
	})

	u, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "main@example.com", u.Email)
}

func TestExchange_NoVerifiedPrimary(t *testing.T) {
	p := newFakeGitHub(t, GitHubUser{ID: 7, Login: "octo"}, []gitHubEmail{
		{Email: "main@example.com", Primary: true, Verified: false},
	})

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, ErrNoVerifiedEmail)
}

func TestExchange_RejectsZeroID(t *testing.T) {
	p := newFakeGitHub(t, GitHubUser{Login: "ghost", Email: "g@example.com"}, nil)

	_, err := p.Exchange(context.Background(), "code")
	assert.Error(t, err)
}

func TestAuthURL_CarriesState(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost/cb")
	assert.Contains(t, p.AuthURL("abc123"), "state=abc123")
}
