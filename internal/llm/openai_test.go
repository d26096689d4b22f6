package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	gotReq openai.ChatCompletionRequest
	resp   openai.ChatCompletionResponse
	err    error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.gotReq = req
	return f.resp, f.err
}

func TestOpenAIClientComplete(t *testing.T) {
	fake := &fakeChatClient{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: "  hola, soy Brenda  "},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
		},
	}
	client := newOpenAIClient(fake, "gpt-4o-mini")

	resp, err := client.Complete(context.Background(), Request{
		System:    []string{"persona", ""},
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
		MaxTokens: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, "hola, soy Brenda", resp.Text)
	assert.EqualValues(t, 150, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.StopReason)

	// blank system block dropped, default model applied
	assert.Equal(t, "gpt-4o-mini", fake.gotReq.Model)
	require.Len(t, fake.gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.gotReq.Messages[0].Role)
	assert.Equal(t, 500, fake.gotReq.MaxTokens)
}

func TestOpenAIClientCompleteError(t *testing.T) {
	client := newOpenAIClient(&fakeChatClient{err: errors.New("rate limited")}, "gpt-4o-mini")

	_, err := client.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai completion failed")
}

func TestOpenAIClientCompleteNoChoices(t *testing.T) {
	client := newOpenAIClient(&fakeChatClient{}, "")

	_, err := client.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hola"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("  ", "gpt-4o-mini")
	assert.Error(t, err)
}
