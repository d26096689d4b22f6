package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/internal/memory"
)

func promptProfile() *memory.UserProfile {
	p := memory.NewUserProfile("user-1", "Ana", "", time.Now())
	p.Role = "Contadora"
	p.Interests = []string{"automatización"}
	p.ToolsUsed = map[string]int{"show_syllabus": 1}
	for i := 0; i < 10; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		p.AppendLog(memory.MessageRecord{
			Role:      role,
			Content:   "mensaje histórico",
			Timestamp: time.Now(),
		})
	}
	return p
}

func TestBuildPromptIncludesPersonaAndContext(t *testing.T) {
	course := &catalog.Course{
		Name:             "Experto en IA",
		ShortDescription: "Domina GPT y Gemini",
		Price:            catalog.Num(297),
		Currency:         "USD",
		SessionCount:     catalog.Num(8),
		TotalDurationMin: catalog.Num(480),
	}

	req := BuildPrompt(PromptInput{
		Profile:       promptProfile(),
		Course:        course,
		Intent:        "EXPLORATION",
		ResponseStyle: "informativo",
		NextFocus:     "beneficios prácticos",
		UserMessage:   "¿Qué voy a aprender?",
		Model:         "gpt-4o-mini",
	})

	require.Len(t, req.System, 2)
	assert.Contains(t, req.System[0], "Eres Brenda")
	assert.Contains(t, req.System[0], "NUNCA inventes")

	ctxBlock := req.System[1]
	assert.Contains(t, ctxBlock, "Ana")
	assert.Contains(t, ctxBlock, "Contadora")
	assert.Contains(t, ctxBlock, "show_syllabus")
	assert.Contains(t, ctxBlock, "EXPLORATION")
	assert.Contains(t, ctxBlock, "Experto en IA")
	assert.Contains(t, ctxBlock, "$297 USD")
	assert.Contains(t, ctxBlock, "8h 0m")
}

func TestBuildPromptHistoryWindow(t *testing.T) {
	req := BuildPrompt(PromptInput{
		Profile:     promptProfile(),
		UserMessage: "hola",
	})

	// history capped plus the incoming message
	require.Len(t, req.Messages, historyWindow+1)
	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, ChatRoleUser, last.Role)
	assert.Equal(t, "hola", last.Content)

	roles := map[string]bool{}
	for _, m := range req.Messages {
		roles[m.Role] = true
	}
	assert.True(t, roles[ChatRoleAssistant])
}

func TestBuildPromptDefaults(t *testing.T) {
	req := BuildPrompt(PromptInput{UserMessage: "hola"})

	assert.EqualValues(t, 500, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	for _, sys := range req.System {
		assert.False(t, strings.Contains(sys, "Contexto del prospecto"))
	}
}

func TestBuildPromptSkipsSystemLogEntries(t *testing.T) {
	p := memory.NewUserProfile("u", "", "", time.Now())
	p.AppendLog(memory.MessageRecord{Role: "system", Content: "interno", Timestamp: time.Now()})
	p.AppendLog(memory.MessageRecord{Role: "user", Content: "hola", Timestamp: time.Now()})

	req := BuildPrompt(PromptInput{Profile: p, UserMessage: "sigo aquí"})

	for _, m := range req.Messages {
		assert.NotEqual(t, "interno", m.Content)
	}
}
