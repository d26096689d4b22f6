package messenger

import (
	"context"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

// Sender delivers a composed reply to one user. Implementations can be
// swapped (Telegram, stub) without changing the engine.
type Sender interface {
	SendReply(ctx context.Context, userID string, reply Reply) error
}

// StubSender records replies instead of delivering them. Used in tests and
// when no bot token is configured.
type StubSender struct {
	logger *logging.Logger

	// Sent holds every reply passed to SendReply, keyed by user id.
	Sent map[string][]Reply
}

// NewStubSender creates a stub sender that logs but doesn't deliver.
func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{
		logger: logger,
		Sent:   make(map[string][]Reply),
	}
}

// SendReply logs the reply and stores it for inspection.
func (s *StubSender) SendReply(_ context.Context, userID string, reply Reply) error {
	s.logger.Info("stub sender: would deliver reply", "user_id", userID, "parts", len(reply.Parts))
	s.Sent[userID] = append(s.Sent[userID], reply)
	return nil
}
