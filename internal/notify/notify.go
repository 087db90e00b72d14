// Package notify sends messages to the catalogue's maintainer.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/parks/internal/model"
)

// Message is a plain-text notification. The recipient is fixed by the
// Notifier's configuration.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a Message. Implementations attempt delivery once.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// SuggestionMessage composes the email for an anonymous edit suggestion.
func SuggestionMessage(park model.Park, changes []model.Change) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A visitor suggested changes to %q (id %d).\n\n", park.Name, park.ID)
	for _, c := range changes {
		fmt.Fprintf(&b, "%s: %q -> %q\n", c.Field, c.From, c.To)
	}
	b.WriteString("\nLog in and edit the park to apply them.\n")

	return Message{
		Subject: fmt.Sprintf("Edit suggestion for %s", park.Name),
		Body:    b.String(),
	}
}

// LogNotifier writes messages to the log instead of delivering them. It
// is used when no SMTP server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("notification (SMTP not configured)",
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
