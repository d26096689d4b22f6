package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulsa-ai/brenda/internal/messenger"
)

type recordingEngine struct {
	updates []messenger.Update
}

func (r *recordingEngine) HandleUpdate(_ context.Context, update messenger.Update) {
	r.updates = append(r.updates, update)
}

const messageUpdateJSON = `{
	"update_id": 42,
	"message": {
		"from": {"id": 1001, "is_bot": false, "first_name": "María", "username": "maria_g"},
		"chat": {"id": 1001, "type": "private"},
		"text": "hola"
	}
}`

func TestWebhookDispatchesMessage(t *testing.T) {
	eng := &recordingEngine{}
	h := NewWebhookHandler(eng, "s3cret", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(messageUpdateJSON))
	req.Header.Set(secretTokenHeader, "s3cret")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, eng.updates, 1)
	assert.Equal(t, "1001", eng.updates[0].UserID)
	assert.Equal(t, "María", eng.updates[0].FirstName)
	assert.Equal(t, "hola", eng.updates[0].Text)
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	eng := &recordingEngine{}
	h := NewWebhookHandler(eng, "s3cret", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(messageUpdateJSON))
	req.Header.Set(secretTokenHeader, "wrong")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, eng.updates)
}

func TestWebhookAcksIgnorableUpdates(t *testing.T) {
	eng := &recordingEngine{}
	h := NewWebhookHandler(eng, "", nil)

	// channel post without a message we react to
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(`{"update_id": 7}`))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, eng.updates)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	eng := &recordingEngine{}
	h := NewWebhookHandler(eng, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, eng.updates)
}

func TestWebhookCallbackQuery(t *testing.T) {
	eng := &recordingEngine{}
	h := NewWebhookHandler(eng, "", nil)

	body := `{
		"update_id": 43,
		"callback_query": {
			"id": "cb-1",
			"from": {"id": 1001, "is_bot": false, "first_name": "María"},
			"data": "privacy_accept"
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, eng.updates, 1)
	assert.Equal(t, "privacy_accept", eng.updates[0].CallbackPayload)
	assert.Empty(t, eng.updates[0].Text)
}

func TestHealthReadyReportsFailures(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"catalog": PingerFunc(func(context.Context) error { return nil }),
		"redis":   PingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}, nil)

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), `"catalog":"ok"`)
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
