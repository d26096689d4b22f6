package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "file", cfg.MemoryBackend)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.TurnBudget)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, "stub", cfg.EmailProvider)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MEMORY_BACKEND", "Redis")
	t.Setenv("TURN_BUDGET", "45s")
	t.Setenv("LLM_MAX_TOKENS", "256")
	t.Setenv("ANALYZER_LLM_MODE", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.MemoryBackend)
	assert.Equal(t, 45*time.Second, cfg.TurnBudget)
	assert.Equal(t, 256, cfg.LLMMaxTokens)
	assert.False(t, cfg.AnalyzerLLMMode)
}

func TestLoadCampaignCourses(t *testing.T) {
	t.Setenv("CAMPAIGN_COURSES", "Experto_IA_GPT_Gemini=curso-ia, taller_gemini=curso-gemini ,broken,=x")

	cfg := Load()

	assert.Equal(t, map[string]string{
		"experto_ia_gpt_gemini": "curso-ia",
		"taller_gemini":         "curso-gemini",
	}, cfg.CampaignCourses)
}

func TestLoadIgnoresMalformed(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("TURN_BUDGET", "soon")

	cfg := Load()

	assert.Equal(t, 500, cfg.LLMMaxTokens)
	assert.Equal(t, 30*time.Second, cfg.TurnBudget)
}
