package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/service"
	"github.com/sakif/parks/internal/session"
)

const msgEmptyQuestion = "Please enter a question."

// ChatHandler serves the chat page.
type ChatHandler struct {
	chat     *service.ChatService
	sessions *session.Manager
	pages    *Renderer
	logger   *slog.Logger
}

func NewChatHandler(chat *service.ChatService, sessions *session.Manager, pages *Renderer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions, pages: pages, logger: logger}
}

// HandleChat serves GET /chat with the session's transcript.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.pages.render(w, r, http.StatusOK, pageChat, pageData{
		Title:      "Ask about parks",
		Transcript: sess.Transcript,
	})
}

// HandleAsk serves POST /chat, then redirects back to GET /chat so a
// reload does not resubmit the question.
func (h *ChatHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.chat.Ask(r.Context(), sess, r.PostForm.Get("user_question")); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.pages.flashRedirect(w, r, model.FlashWarning, msgEmptyQuestion, "/chat")
			return
		}
		h.logger.Error("chat failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("chat: saving session", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}
