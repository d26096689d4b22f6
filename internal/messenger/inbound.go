package messenger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIgnorableUpdate marks updates the bot does not react to (channel posts,
// edits, group service messages). Webhook handlers ack them with 200.
var ErrIgnorableUpdate = errors.New("messenger: ignorable update")

// telegramUpdate mirrors the subset of the Bot API update object we consume.
type telegramUpdate struct {
	UpdateID int64                  `json:"update_id"`
	Message  *telegramMessage       `json:"message"`
	Callback *telegramCallbackQuery `json:"callback_query"`
}

type telegramMessage struct {
	From *telegramUser `json:"from"`
	Chat *telegramChat `json:"chat"`
	Text string        `json:"text"`
}

type telegramUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type telegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type telegramCallbackQuery struct {
	ID      string           `json:"id"`
	From    *telegramUser    `json:"from"`
	Message *telegramMessage `json:"message"`
	Data    string           `json:"data"`
}

// ParseTelegramUpdate converts a raw Bot API webhook payload into the
// transport-neutral Update the engine consumes. Deep-link /start payloads
// ("/start tag1__tag2") are rewritten back into hashtag form so the campaign
// parser sees the same text a typed message would carry.
func ParseTelegramUpdate(body []byte) (Update, error) {
	var raw telegramUpdate
	if err := json.Unmarshal(body, &raw); err != nil {
		return Update{}, fmt.Errorf("messenger: decode update: %w", err)
	}

	switch {
	case raw.Callback != nil:
		from := raw.Callback.From
		if from == nil || from.IsBot {
			return Update{}, ErrIgnorableUpdate
		}
		return Update{
			UpdateID:        raw.UpdateID,
			UserID:          strconv.FormatInt(from.ID, 10),
			FirstName:       from.FirstName,
			Username:        from.Username,
			CallbackPayload: raw.Callback.Data,
		}, nil

	case raw.Message != nil:
		msg := raw.Message
		if msg.From == nil || msg.From.IsBot {
			return Update{}, ErrIgnorableUpdate
		}
		if msg.Chat != nil && msg.Chat.Type != "" && msg.Chat.Type != "private" {
			return Update{}, ErrIgnorableUpdate
		}
		return Update{
			UpdateID:  raw.UpdateID,
			UserID:    strconv.FormatInt(msg.From.ID, 10),
			FirstName: msg.From.FirstName,
			Username:  msg.From.Username,
			Text:      normalizeStartCommand(msg.Text),
		}, nil
	}

	return Update{}, ErrIgnorableUpdate
}

// normalizeStartCommand rewrites "/start Experto_IA_GPT_Gemini__ADSIM_01"
// into "#Experto_IA_GPT_Gemini #ADSIM_01". Telegram deep-link payloads only
// allow [A-Za-z0-9_-], so campaign links join their tags with "__".
func normalizeStartCommand(text string) string {
	const prefix = "/start"
	if !strings.HasPrefix(text, prefix) {
		return text
	}
	payload := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if payload == "" {
		return ""
	}
	parts := strings.Split(payload, "__")
	for i, p := range parts {
		parts[i] = "#" + p
	}
	return strings.Join(parts, " ")
}
