package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

// RetrySender wraps any sender with exponential back-off for transient
// failures.
type RetrySender struct {
	inner       EmailSender
	maxAttempts int
	baseDelay   time.Duration
	logger      *logging.Logger
}

// NewRetrySender decorates inner with 3 attempts at a 200ms base delay.
func NewRetrySender(inner EmailSender, logger *logging.Logger) *RetrySender {
	if inner == nil {
		panic("notify: inner sender is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetrySender{
		inner:       inner,
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
		logger:      logger,
	}
}

// Send retries the wrapped sender until it succeeds or attempts run out.
func (r *RetrySender) Send(ctx context.Context, msg EmailMessage) error {
	var lastErr error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("notify: send aborted: %w", err)
		}
		lastErr = r.inner.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if attempt < r.maxAttempts {
			r.logger.Warn("email send failed, retrying",
				"attempt", attempt, "delay", delay.String(), "error", lastErr.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("notify: send aborted: %w", ctx.Err())
			}
			delay *= 2
		}
	}
	return fmt.Errorf("notify: send failed after %d attempts: %w", r.maxAttempts, lastErr)
}
