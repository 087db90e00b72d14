package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/chat"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

// Fixed assistant replies.
const (
	ChatNotConfiguredMessage = "The chat assistant is not configured yet. Please try again later."
	ChatUnavailableMessage   = "Sorry, the assistant is unavailable right now. Please try again later."
)

// ChatService answers questions about the catalogue and keeps the
// per-session transcript.
type ChatService struct {
	parks     repository.ParkRepository
	generator chat.Generator // nil when no API key is configured
	timeout   time.Duration
	limit     int
	logger    *slog.Logger
}

// ChatOptions bounds the model call and the transcript.
type ChatOptions struct {
	Timeout      time.Duration
	HistoryLimit int
}

func NewChatService(parks repository.ParkRepository, generator chat.Generator, opts ChatOptions, logger *slog.Logger) *ChatService {
	return &ChatService{
		parks:     parks,
		generator: generator,
		timeout:   opts.Timeout,
		limit:     opts.HistoryLimit,
		logger:    logger,
	}
}

// Ask appends the question and the assistant's answer to sess.Transcript.
// The caller persists the session.
//
// A model failure is not an error: the generic apology becomes the
// answer and the cause is logged. Only an empty question is rejected.
func (s *ChatService) Ask(ctx context.Context, sess *model.Session, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return apperror.ValidationFailed("user_question", "Please enter a question.")
	}

	sess.AppendTurn(model.ChatTurn{Sender: model.SenderUser, Message: question}, s.limit)
	sess.AppendTurn(model.ChatTurn{Sender: model.SenderAI, Message: s.answer(ctx, question)}, s.limit)
	return nil
}

func (s *ChatService) answer(ctx context.Context, question string) string {
	if s.generator == nil {
		return ChatNotConfiguredMessage
	}

	text, err := s.generate(ctx, question)
	if err != nil {
		s.logger.Error("chat: model call failed", slog.String("error", err.Error()))
		return ChatUnavailableMessage
	}
	return text
}

func (s *ChatService) generate(ctx context.Context, question string) (string, error) {
	parks, err := s.parks.ListParks(ctx)
	if err != nil {
		return "", fmt.Errorf("loading parks: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, chat.BuildPrompt(parks, question))
	if err != nil {
		return "", err
	}

	s.logger.Debug("chat: model answered",
		slog.Int("parks", len(parks)),
		slog.Duration("duration", time.Since(start)),
	)
	return text, nil
}
