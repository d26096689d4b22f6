package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

const (
	defaultBaseURL   = "https://api.telegram.org"
	defaultUserAgent = "brenda-messenger/0.1"
)

// TelegramConfig controls how the Telegram client behaves.
type TelegramConfig struct {
	BaseURL    string
	BotToken   string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// TelegramClient delivers replies through the Telegram Bot API.
type TelegramClient struct {
	botToken   string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
	userAgent  string
}

var _ Sender = (*TelegramClient)(nil)

// NewTelegramClient creates a configured client with sane defaults.
func NewTelegramClient(cfg TelegramConfig) (*TelegramClient, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("messenger: bot token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &TelegramClient{
		botToken:   cfg.BotToken,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

// SendReply delivers all parts of a reply in order. A failed part aborts the
// remainder so the user never sees a reply with a hole in the middle.
func (c *TelegramClient) SendReply(ctx context.Context, userID string, reply Reply) error {
	if reply.TypingDelay > 0 {
		if err := c.sendChatAction(ctx, userID, "typing"); err != nil {
			c.logger.Warn("failed to send typing action", "error", err, "user_id", userID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reply.TypingDelay):
		}
	}

	for i, part := range reply.Parts {
		if err := c.sendPart(ctx, userID, part); err != nil {
			return fmt.Errorf("messenger: part %d/%d failed: %w", i+1, len(reply.Parts), err)
		}
	}
	return nil
}

func (c *TelegramClient) sendPart(ctx context.Context, chatID string, part Part) error {
	switch part.Type {
	case PartText:
		return c.invoke(ctx, "sendMessage", map[string]any{
			"chat_id":    chatID,
			"text":       part.Text,
			"parse_mode": "Markdown",
		})
	case PartKeyboard:
		markup := inlineKeyboardMarkup{}
		for _, row := range part.Buttons {
			var btns []inlineKeyboardButton
			for _, b := range row {
				btns = append(btns, inlineKeyboardButton{Text: b.Label, CallbackData: b.CallbackPayload})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, btns)
		}
		return c.invoke(ctx, "sendMessage", map[string]any{
			"chat_id":      chatID,
			"text":         part.Text,
			"parse_mode":   "Markdown",
			"reply_markup": markup,
		})
	case PartDocument:
		return c.invoke(ctx, "sendDocument", map[string]any{
			"chat_id":  chatID,
			"document": part.URL,
			"caption":  part.Caption,
		})
	case PartImage:
		return c.invoke(ctx, "sendPhoto", map[string]any{
			"chat_id": chatID,
			"photo":   part.URL,
			"caption": part.Caption,
		})
	case PartVideo:
		return c.invoke(ctx, "sendVideo", map[string]any{
			"chat_id": chatID,
			"video":   part.URL,
			"caption": part.Caption,
		})
	default:
		return fmt.Errorf("messenger: unknown part type %q", part.Type)
	}
}

func (c *TelegramClient) sendChatAction(ctx context.Context, chatID, action string) error {
	return c.invoke(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  action,
	})
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

func (c *TelegramClient) invoke(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messenger: marshal %s payload: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("messenger: build %s request: %w", method, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("messenger: %s returned status %d", method, resp.StatusCode)
			continue
		}

		var parsed apiResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("messenger: decode %s response: %w", method, err)
		}
		if !parsed.OK {
			return fmt.Errorf("messenger: %s rejected: %s (code %d)", method, parsed.Description, parsed.ErrorCode)
		}
		return nil
	}
	return fmt.Errorf("messenger: %s failed after %d attempts: %w", method, c.maxRetries+1, lastErr)
}
