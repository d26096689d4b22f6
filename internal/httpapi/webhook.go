package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/impulsa-ai/brenda/internal/messenger"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxWebhookBody bounds the accepted payload size. Bot API updates are small;
// anything bigger is not ours.
const maxWebhookBody = 1 << 20

// UpdateHandler consumes one inbound messenger update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update messenger.Update)
}

// WebhookHandler receives Telegram webhook calls and feeds the engine.
type WebhookHandler struct {
	engine      UpdateHandler
	secretToken string
	logger      *logging.Logger
}

// NewWebhookHandler wires the webhook endpoint. An empty secretToken disables
// the header check (local development only).
func NewWebhookHandler(engine UpdateHandler, secretToken string, logger *logging.Logger) *WebhookHandler {
	if engine == nil {
		panic("httpapi: engine is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{engine: engine, secretToken: secretToken, logger: logger}
}

// Handle processes one Bot API update. Non-actionable updates are acked with
// 200 so Telegram does not redeliver them.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secretToken != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secretToken)) != 1 {
			h.logger.Warn("webhook secret token mismatch", "remote_ip", r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	update, err := messenger.ParseTelegramUpdate(body)
	if err != nil {
		if errors.Is(err, messenger.ErrIgnorableUpdate) {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.logger.Warn("webhook payload rejected", "error", err.Error())
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	h.engine.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}
