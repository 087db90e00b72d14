package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/auth"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/service"
	"github.com/sakif/parks/internal/session"
)

const (
	msgLoggedIn  = "Logged in successfully."
	msgLoggedOut = "You have been logged out."
	msgGitHubErr = "GitHub sign-in failed. Please try again."

	oauthStateCookie = "oauth_state"
)

// AuthHandler serves the login and logout routes, and GitHub sign-in when
// it is configured.
type AuthHandler struct {
	auth     *service.AuthService
	github   *auth.GitHubProvider // nil when GitHub sign-in is disabled
	sessions *session.Manager
	pages    *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	sessions *session.Manager,
	pages *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		github:   github,
		sessions: sessions,
		pages:    pages,
		logger:   logger,
	}
}

// HandleLoginForm serves GET /login.
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, nil, nil)
}

// HandleLogin serves POST /login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := form.DecodeLogin(r.PostForm)
	redisplay := map[string][]string{"email": {in.Email}}

	user, err := h.auth.Login(r.Context(), in)
	if err != nil {
		var (
			ferrs  form.Errors
			appErr *apperror.AppError
		)
		switch {
		case errors.As(err, &ferrs):
			h.renderLogin(w, r, http.StatusBadRequest, redisplay, ferrs)
		case errors.Is(err, apperror.ErrUnauthorized) && errors.As(err, &appErr):
			h.renderLogin(w, r, http.StatusUnauthorized, redisplay, form.Errors{appErr.Field: appErr.Message})
		default:
			h.logger.Error("login failed", slog.String("error", err.Error()))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	h.establish(w, r, user)
}

// HandleLogout serves GET /logout. RequireLogin guards it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.UserID = 0
	sess.AddFlash(model.FlashInfo, msgLoggedOut)

	if err := h.sessions.Renew(r.Context(), w, sess); err != nil {
		h.logger.Error("logout: renewing session", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin serves GET /auth/github/login.
//
// The random state goes into a short-lived cookie and comes back on the
// callback, so a callback we did not start is rejected.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback serves GET /auth/github/callback. The GitHub
// account's email must belong to an existing user.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: invalid state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.pages.flashRedirect(w, r, model.FlashWarning, msgGitHubErr, "/login")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		h.pages.flashRedirect(w, r, model.FlashDanger, msgGitHubErr, "/login")
		return
	}

	user, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.pages.flashRedirect(w, r, model.FlashDanger, service.UnknownEmailMessage, "/login")
			return
		}
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.establish(w, r, user)
}

// establish logs user into the current session under a fresh session ID.
func (h *AuthHandler) establish(w http.ResponseWriter, r *http.Request, user *model.User) {
	sess := session.FromContext(r.Context())
	sess.UserID = user.ID
	sess.AddFlash(model.FlashSuccess, msgLoggedIn)

	if err := h.sessions.Renew(r.Context(), w, sess); err != nil {
		h.logger.Error("login: renewing session", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/parks", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, values map[string][]string, errs form.Errors) {
	h.pages.render(w, r, status, pageLogin, pageData{
		Title:         "Log in",
		Form:          values,
		Errors:        errs,
		GitHubEnabled: h.github != nil,
	})
}
