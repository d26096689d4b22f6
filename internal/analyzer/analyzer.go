package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/impulsa-ai/brenda/internal/llm"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

var tracer = otel.Tracer("brenda.internal.analyzer")

// Intent is the fixed category every user message classifies into.
type Intent string

const (
	IntentExploration      Intent = "EXPLORATION"
	IntentObjectionPrice   Intent = "OBJECTION_PRICE"
	IntentObjectionTime    Intent = "OBJECTION_TIME"
	IntentObjectionValue   Intent = "OBJECTION_VALUE"
	IntentObjectionTrust   Intent = "OBJECTION_TRUST"
	IntentBuyingSignals    Intent = "BUYING_SIGNALS"
	IntentAutomationNeed   Intent = "AUTOMATION_NEED"
	IntentFreeResources    Intent = "FREE_RESOURCES"
	IntentGeneralQuestion  Intent = "GENERAL_QUESTION"
	IntentProfessionChange Intent = "PROFESSION_CHANGE"
)

var knownIntents = map[Intent]bool{
	IntentExploration:      true,
	IntentObjectionPrice:   true,
	IntentObjectionTime:    true,
	IntentObjectionValue:   true,
	IntentObjectionTrust:   true,
	IntentBuyingSignals:    true,
	IntentAutomationNeed:   true,
	IntentFreeResources:    true,
	IntentGeneralQuestion:  true,
	IntentProfessionChange: true,
}

// Snapshot is the transient analysis attached to the latest user turn.
type Snapshot struct {
	Intent          Intent            `json:"intent"`
	Sentiment       string            `json:"sentiment"` // positive, neutral, negative
	EngagementLevel memory.Engagement `json:"engagement_level"`
	Interests       []string          `json:"interests,omitempty"`
	Challenges      []string          `json:"challenges,omitempty"`
	Objections      []string          `json:"objections,omitempty"`
	BuyingSignals   []string          `json:"buying_signals,omitempty"`
	ResponseStyle   string            `json:"response_style,omitempty"`
	NextFocus       string            `json:"next_focus,omitempty"`
	SuggestedTools  []string          `json:"suggested_tools,omitempty"`
	Source          string            `json:"source"` // llm or rules
}

const analysisPrompt = `Analiza el siguiente mensaje de un prospecto interesado en cursos de Inteligencia Artificial y responde SOLO con un objeto JSON, sin texto adicional.

Campos obligatorios:
- "intent": uno de EXPLORATION, OBJECTION_PRICE, OBJECTION_TIME, OBJECTION_VALUE, OBJECTION_TRUST, BUYING_SIGNALS, AUTOMATION_NEED, FREE_RESOURCES, GENERAL_QUESTION, PROFESSION_CHANGE
- "sentiment": positive, neutral o negative
- "engagement_level": low, medium, high o very_high

Campos opcionales (listas de cadenas cortas en español): "interests", "challenges", "objections", "buying_signals". Cadenas opcionales: "response_style", "next_focus".

Contexto previo:
%s

Mensaje del prospecto: %s

Responde con el JSON.`

// Analyzer classifies user messages into an AnalysisSnapshot, via the model
// when available and via keyword rules otherwise.
type Analyzer struct {
	client llm.Client
	// mode "llm" prefers the model call; "rules" skips it.
	mode   string
	logger *logging.Logger
}

// New builds an analyzer. A nil client forces rule-based classification.
func New(client llm.Client, mode string, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.Default()
	}
	if mode == "" {
		mode = "llm"
	}
	return &Analyzer{client: client, mode: mode, logger: logger}
}

// Analyze produces the snapshot for one user message. The LLM path degrades
// to the keyword rules on any call or parse failure, so a snapshot is always
// returned.
func (a *Analyzer) Analyze(ctx context.Context, profile *memory.UserProfile, text string) Snapshot {
	ctx, span := tracer.Start(ctx, "analyzer.analyze")
	defer span.End()

	if a.mode == "llm" && a.client != nil {
		snap, err := a.analyzeLLM(ctx, profile, text)
		if err == nil {
			return snap
		}
		a.logger.Warn("llm analysis failed, using keyword rules", "error", err.Error())
	}
	return a.analyzeRules(profile, text)
}

func (a *Analyzer) analyzeLLM(ctx context.Context, profile *memory.UserProfile, text string) (Snapshot, error) {
	prompt := fmt.Sprintf(analysisPrompt, recentContext(profile), text)

	resp, err := a.client.Complete(ctx, llm.Request{
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: prompt}},
		MaxTokens:   300,
		Temperature: 0,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("analyzer: completion failed: %w", err)
	}

	// The model sometimes wraps the object in prose; keep only the braces.
	content := strings.TrimSpace(resp.Text)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Snapshot{}, fmt.Errorf("analyzer: no JSON object in response")
	}
	content = content[start : end+1]

	var snap Snapshot
	if err := json.Unmarshal([]byte(content), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("analyzer: parsing analysis JSON: %w", err)
	}
	if !knownIntents[snap.Intent] {
		return Snapshot{}, fmt.Errorf("analyzer: unknown intent %q", snap.Intent)
	}
	switch snap.EngagementLevel {
	case memory.EngagementLow, memory.EngagementMedium, memory.EngagementHigh, memory.EngagementVeryHigh:
	default:
		snap.EngagementLevel = memory.EngagementMedium
	}
	if snap.Sentiment != "positive" && snap.Sentiment != "negative" {
		snap.Sentiment = "neutral"
	}
	snap.Source = "llm"
	return snap, nil
}

func recentContext(profile *memory.UserProfile) string {
	if profile == nil {
		return "(sin historial)"
	}
	window := profile.RecentWindow(4)
	if len(window) == 0 {
		return "(sin historial)"
	}
	var b strings.Builder
	for _, rec := range window {
		fmt.Fprintf(&b, "%s: %s\n", rec.Role, rec.Content)
	}
	return strings.TrimSpace(b.String())
}

// Delta converts a snapshot into the profile mutation for this turn,
// including the lead-score adjustment.
func Delta(snap Snapshot) memory.AttributeDelta {
	d := memory.AttributeDelta{
		EngagementLevel: snap.EngagementLevel,
		Interests:       snap.Interests,
		Challenges:      snap.Challenges,
		Objections:      snap.Objections,
		BuyingSignals:   snap.BuyingSignals,
	}
	switch snap.EngagementLevel {
	case memory.EngagementVeryHigh:
		d.LeadScoreDelta += 15
	case memory.EngagementHigh:
		d.LeadScoreDelta += 10
	case memory.EngagementLow:
		d.LeadScoreDelta -= 5
	}
	if snap.Intent == IntentBuyingSignals {
		d.LeadScoreDelta += 20
	}
	return d
}
