package messenger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*TelegramClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewTelegramClient(TelegramConfig{
		BaseURL:  srv.URL,
		BotToken: "test-token",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewTelegramClientRequiresToken(t *testing.T) {
	_, err := NewTelegramClient(TelegramConfig{})
	assert.Error(t, err)
}

func TestSendReplyDeliversPartsInOrder(t *testing.T) {
	var methods []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.URL.Path)
		_ = json.NewEncoder(w).Encode(apiResponse{OK: true})
	})

	reply := Reply{Parts: []Part{
		TextPart("hola"),
		DocumentPart("https://example.com/temario.pdf", "Temario"),
		ImagePart("https://example.com/curso.png", ""),
	}}

	err := client.SendReply(context.Background(), "12345", reply)
	require.NoError(t, err)
	require.Len(t, methods, 3)
	assert.Contains(t, methods[0], "sendMessage")
	assert.Contains(t, methods[1], "sendDocument")
	assert.Contains(t, methods[2], "sendPhoto")
}

func TestSendReplyKeyboard(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(apiResponse{OK: true})
	})

	reply := Reply{Parts: []Part{
		KeyboardPart("elige una opción", [][]Button{{
			{Label: "Hacer una pregunta", CallbackPayload: "course_question"},
			{Label: "Ver precios", CallbackPayload: "course_prices"},
		}}),
	}}

	err := client.SendReply(context.Background(), "12345", reply)
	require.NoError(t, err)
	require.Contains(t, gotBody, "reply_markup")
}

func TestSendReplyAbortsOnRejectedPart(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(apiResponse{OK: false, Description: "chat not found", ErrorCode: 400})
	})

	reply := Reply{Parts: []Part{TextPart("uno"), TextPart("dos")}}
	err := client.SendReply(context.Background(), "12345", reply)
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "second part must not be attempted after a rejection")
}

func TestInvokeRetriesOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(apiResponse{OK: true})
	}))
	defer srv.Close()

	client, err := NewTelegramClient(TelegramConfig{
		BaseURL:    srv.URL,
		BotToken:   "test-token",
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	})
	require.NoError(t, err)

	err = client.SendReply(context.Background(), "1", Reply{Parts: []Part{TextPart("hola")}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestStubSenderRecords(t *testing.T) {
	stub := NewStubSender(nil)
	err := stub.SendReply(context.Background(), "77", Reply{Parts: []Part{TextPart("hola")}})
	require.NoError(t, err)
	assert.Len(t, stub.Sent["77"], 1)
}
