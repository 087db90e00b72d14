package auth

import (
	"log/slog"
	"net/http"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/session"
)

// LoginRequiredMessage is flashed when an anonymous visitor hits a
// protected page.
const LoginRequiredMessage = "Please log in to access this page."

// RequireLogin redirects anonymous visitors to /login.
//
// It must run after session.Manager.Middleware, which puts the session in
// the request context. The flash is saved so the login page can show it.
func RequireLogin(sessions *session.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess != nil && sess.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}

			if sess != nil {
				sess.AddFlash(model.FlashInfo, LoginRequiredMessage)
				if err := sessions.Save(r.Context(), sess); err != nil {
					logger.Error("auth: saving session", slog.String("error", err.Error()))
				}
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}
