package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulsa-ai/brenda/internal/llm"
	"github.com/impulsa-ai/brenda/internal/memory"
)

type stubLLM struct {
	resp llm.Response
	err  error
}

func (s *stubLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	return s.resp, s.err
}

func TestAnalyzeLLMMode(t *testing.T) {
	client := &stubLLM{resp: llm.Response{Text: `Claro, aquí va el análisis:
{"intent":"OBJECTION_PRICE","sentiment":"negative","engagement_level":"medium","objections":["precio alto"],"response_style":"empático","next_focus":"valor"}`}}

	snap := New(client, "llm", nil).Analyze(context.Background(), nil, "Me parece muy caro")

	assert.Equal(t, IntentObjectionPrice, snap.Intent)
	assert.Equal(t, "negative", snap.Sentiment)
	assert.Equal(t, memory.EngagementMedium, snap.EngagementLevel)
	assert.Equal(t, []string{"precio alto"}, snap.Objections)
	assert.Equal(t, "llm", snap.Source)
}

func TestAnalyzeLLMNormalisesInvalidEnums(t *testing.T) {
	client := &stubLLM{resp: llm.Response{Text: `{"intent":"EXPLORATION","sentiment":"happy","engagement_level":"extreme"}`}}

	snap := New(client, "llm", nil).Analyze(context.Background(), nil, "cuéntame más")

	assert.Equal(t, "neutral", snap.Sentiment)
	assert.Equal(t, memory.EngagementMedium, snap.EngagementLevel)
}

func TestAnalyzeFallsBackOnLLMError(t *testing.T) {
	client := &stubLLM{err: errors.New("timeout")}

	snap := New(client, "llm", nil).Analyze(context.Background(), nil, "Me parece muy caro")

	assert.Equal(t, IntentObjectionPrice, snap.Intent)
	assert.Equal(t, "rules", snap.Source)
}

func TestAnalyzeFallsBackOnBadJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no braces", "no puedo analizar eso"},
		{"broken object", `{"intent": "EXPLORATION",`},
		{"unknown intent", `{"intent":"SOMETHING_ELSE","sentiment":"neutral","engagement_level":"low"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubLLM{resp: llm.Response{Text: tt.text}}
			snap := New(client, "llm", nil).Analyze(context.Background(), nil, "quiero ver el temario del curso")
			assert.Equal(t, "rules", snap.Source)
			assert.Equal(t, IntentExploration, snap.Intent)
		})
	}
}

func TestAnalyzeRulesIntents(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"Quiero inscribirme, ¿dónde deposito?", IntentBuyingSignals},
		{"Me parece muy caro", IntentObjectionPrice},
		{"No tengo tiempo para un curso", IntentObjectionTime},
		{"¿De verdad vale la pena? ¿sirve?", IntentObjectionValue},
		{"¿Tiene garantía? No quiero una estafa", IntentObjectionTrust},
		{"Necesito automatizar procesos repetitivos", IntentAutomationNeed},
		{"¿Tienen guías gratis?", IntentFreeResources},
		{"¿Qué incluye el temario?", IntentExploration},
		{"Quiero cambiar de carrera y reinventarme", IntentProfessionChange},
		{"hola", IntentGeneralQuestion},
	}

	a := New(nil, "rules", nil)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			snap := a.Analyze(context.Background(), nil, tt.text)
			assert.Equal(t, tt.want, snap.Intent)
			assert.Equal(t, "rules", snap.Source)
			assert.NotEmpty(t, snap.ResponseStyle)
			assert.NotEmpty(t, snap.NextFocus)
		})
	}
}

func TestAnalyzeRulesPriorityTieBreak(t *testing.T) {
	// One buying-signal hit and one price hit: buying signals win the tie.
	snap := New(nil, "rules", nil).Analyze(context.Background(), nil, "quiero pagar aunque el curso sea costoso")
	assert.Equal(t, IntentBuyingSignals, snap.Intent)
}

func TestSentiment(t *testing.T) {
	a := New(nil, "rules", nil)

	assert.Equal(t, "positive", a.Analyze(context.Background(), nil, "gracias, me interesa mucho").Sentiment)
	assert.Equal(t, "negative", a.Analyze(context.Background(), nil, "no quiero, basta").Sentiment)
	assert.Equal(t, "neutral", a.Analyze(context.Background(), nil, "ok").Sentiment)
}

func TestEngagementFromLengthAndDensity(t *testing.T) {
	now := time.Now()
	active := memory.NewUserProfile("u", "Ana", "", now)
	for i := 0; i < 5; i++ {
		active.AppendLog(memory.MessageRecord{Role: "user", Content: "mensaje", Timestamp: now})
	}

	long := "este curso me interesa muchísimo porque llevo meses buscando cómo aplicar inteligencia artificial en mi despacho contable y quiero entender todos los detalles del programa"

	assert.Equal(t, memory.EngagementVeryHigh, engagementOf(active, long))
	assert.Equal(t, memory.EngagementLow, engagementOf(nil, "ok"))
	assert.Equal(t, memory.EngagementMedium, engagementOf(nil, long))
}

func TestDelta(t *testing.T) {
	tests := []struct {
		name      string
		snap      Snapshot
		wantScore int
	}{
		{"very high engagement", Snapshot{EngagementLevel: memory.EngagementVeryHigh}, 15},
		{"high engagement", Snapshot{EngagementLevel: memory.EngagementHigh}, 10},
		{"low engagement", Snapshot{EngagementLevel: memory.EngagementLow}, -5},
		{"medium engagement", Snapshot{EngagementLevel: memory.EngagementMedium}, 0},
		{"buying signals stack with engagement", Snapshot{Intent: IntentBuyingSignals, EngagementLevel: memory.EngagementVeryHigh}, 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantScore, Delta(tt.snap).LeadScoreDelta)
		})
	}
}

func TestDeltaCarriesTraits(t *testing.T) {
	snap := Snapshot{
		Intent:          IntentAutomationNeed,
		EngagementLevel: memory.EngagementMedium,
		Challenges:      []string{"procesos manuales"},
		Interests:       []string{"automatización"},
	}
	d := Delta(snap)
	require.Equal(t, []string{"procesos manuales"}, d.Challenges)
	assert.Equal(t, []string{"automatización"}, d.Interests)
	assert.Equal(t, memory.EngagementMedium, d.EngagementLevel)
}
