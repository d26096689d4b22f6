package policy

import (
	"strings"

	"github.com/impulsa-ai/brenda/internal/analyzer"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/internal/tools"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

// maxToolsPerTurn caps selections; the purchase override may emit one more.
const (
	maxToolsPerTurn  = 2
	maxToolsPurchase = 3
)

var purchaseKeywords = []string{
	"inscribirme", "inscribirse", "comprar", "pagar", "depósito", "deposito",
	"transferencia", "estoy lista", "estoy listo", "acepto", "dónde pago", "donde pago",
}

var contactKeywords = []string{
	"asesor", "hablar", "contactar", "ayuda", "consulta", "especialista", "soporte",
}

var resourceKeywords = []string{
	"recursos", "material", "guía", "guia", "plantilla", "template", "gratis",
}

var comparisonKeywords = []string{
	"comparar", "comparación", "comparacion", "diferencia", "versus", "vs", "otras opciones", "competencia",
}

// buyingSignalKeywords are the softer signals that do not yet trigger the
// purchase override.
var buyingSignalKeywords = []string{
	"me interesa", "quiero empezar", "cuándo empieza", "cuando empieza",
	"reservar", "apartar", "lugar", "cupo",
}

var priceKeywords = []string{
	"precio", "costo", "cuánto cuesta", "cuanto cuesta", "inversión", "inversion", "pago",
}

var syllabusKeywords = []string{
	"temario", "contenido", "módulos", "modulos", "sesiones", "programa",
	"qué incluye", "que incluye", "aprender",
}

var previewKeywords = []string{
	"video", "muestra", "ejemplo", "demo", "ver una clase", "preview",
}

// reRequestKeywords lets an already-used tool fire again when the user asks
// for that material explicitly.
var reRequestKeywords = map[tools.ID][]string{
	tools.ShowSyllabus:      syllabusKeywords,
	tools.SendPreview:       previewKeywords,
	tools.SendFreeResources: resourceKeywords,
	tools.SendPaymentInfo:   purchaseKeywords,
	tools.ShowBonuses:       {"bonos", "bono", "bonus"},
}

// Selection is the policy output for one turn.
type Selection struct {
	Tools []tools.ID
	// PurchaseOverride suppresses the LLM narrative: the composer emits
	// only tool outputs.
	PurchaseOverride bool
}

// Policy maps (analysis, memory state, raw text) to an ordered tool list.
type Policy struct {
	logger *logging.Logger
}

func New(logger *logging.Logger) *Policy {
	if logger == nil {
		logger = logging.Default()
	}
	return &Policy{logger: logger}
}

// Select runs the decision ladder, then pacing and deduplication.
func (p *Policy) Select(snap analyzer.Snapshot, profile *memory.UserProfile, text string) Selection {
	lower := strings.ToLower(text)

	// First interaction is conversation-only.
	if profile == nil || profile.TotalMessages <= 1 {
		return Selection{}
	}

	if containsAny(lower, purchaseKeywords) {
		sel := Selection{
			Tools:            []tools.ID{tools.SendPaymentInfo, tools.ContactAdvisorDirectly, tools.ShowBonuses},
			PurchaseOverride: true,
		}
		sel.Tools = p.dedup(sel.Tools, profile, lower)
		if len(sel.Tools) > maxToolsPurchase {
			sel.Tools = sel.Tools[:maxToolsPurchase]
		}
		return sel
	}

	var candidates []tools.ID
	explicit := false
	switch {
	case containsAny(lower, contactKeywords):
		candidates = []tools.ID{tools.ContactAdvisorDirectly}
		explicit = true
	case containsAny(lower, resourceKeywords):
		candidates = []tools.ID{tools.SendFreeResources}
		explicit = true
	default:
		candidates = p.intentCandidates(snap, lower)
		if len(candidates) == 0 {
			candidates = p.behaviouralFallback(profile, lower)
		}
	}

	candidates = p.dedup(candidates, profile, lower)
	if !explicit {
		candidates = p.pace(candidates, snap, profile)
	}
	if len(candidates) > maxToolsPerTurn {
		candidates = candidates[:maxToolsPerTurn]
	}
	return Selection{Tools: candidates}
}

func (p *Policy) intentCandidates(snap analyzer.Snapshot, lower string) []tools.ID {
	switch snap.Intent {
	case analyzer.IntentExploration:
		switch {
		case containsAny(lower, syllabusKeywords):
			return []tools.ID{tools.ShowSyllabus}
		case containsAny(lower, previewKeywords):
			return []tools.ID{tools.SendPreview}
		default:
			return []tools.ID{tools.SendFreeResources}
		}
	case analyzer.IntentFreeResources:
		return []tools.ID{tools.SendFreeResources}
	case analyzer.IntentObjectionPrice:
		return []tools.ID{tools.ShowPricingComparison}
	case analyzer.IntentObjectionValue:
		return []tools.ID{tools.ShowSuccessCases}
	case analyzer.IntentObjectionTrust:
		return []tools.ID{tools.ShowGuarantee}
	case analyzer.IntentObjectionTime:
		return []tools.ID{tools.HandleTimeObjection}
	case analyzer.IntentAutomationNeed:
		return []tools.ID{tools.DetectAutomationNeeds}
	case analyzer.IntentBuyingSignals:
		if containsAny(lower, priceKeywords) {
			return []tools.ID{tools.PresentLimitedOffer}
		}
		return []tools.ID{tools.ShowBonuses}
	default:
		return nil
	}
}

func (p *Policy) behaviouralFallback(profile *memory.UserProfile, lower string) []tools.ID {
	switch {
	case profile.TotalMessages >= 3 && profile.LeadScore > 70:
		return []tools.ID{tools.ShowBonuses}
	case profile.TotalMessages >= 2 && profile.LeadScore < 60:
		return []tools.ID{tools.ShowTestimonials}
	case containsAny(lower, comparisonKeywords):
		return []tools.ID{tools.ShowCompetitorCompare}
	case countMatches(lower, buyingSignalKeywords) >= 2:
		return []tools.ID{tools.PresentLimitedOffer}
	default:
		return []tools.ID{tools.ShowSyllabus}
	}
}

// pace applies the conversation-state rules to a non-explicit selection.
func (p *Policy) pace(candidates []tools.ID, snap analyzer.Snapshot, profile *memory.UserProfile) []tools.ID {
	switch conversationState(snap, profile) {
	case stateObjecting:
		var kept []tools.ID
		for _, id := range candidates {
			if tools.ObjectionSet[id] {
				kept = append(kept, id)
			}
		}
		candidates = kept
	case stateExploring:
		if profile.ResourcesSent >= 2 {
			var kept []tools.ID
			for _, id := range candidates {
				if id != tools.SendFreeResources && id != tools.SendPreview {
					kept = append(kept, id)
				}
			}
			candidates = kept
		}
		if len(candidates) > 1 {
			candidates = candidates[:1]
		}
	case stateReadyToBuy:
		// closing tools first, order otherwise preserved
		var closing, rest []tools.ID
		for _, id := range candidates {
			if tools.ClosingSet[id] {
				closing = append(closing, id)
			} else {
				rest = append(rest, id)
			}
		}
		candidates = append(closing, rest...)
	}
	return candidates
}

// dedup suppresses tools the user already received unless the latest message
// re-requests them or a previous run failed.
func (p *Policy) dedup(candidates []tools.ID, profile *memory.UserProfile, lower string) []tools.ID {
	var kept []tools.ID
	for _, id := range candidates {
		name := string(id)
		if profile.ToolsUsed[name] == 0 || profile.FailedTools[name] > 0 || containsAny(lower, reRequestKeywords[id]) {
			kept = append(kept, id)
			continue
		}
		p.logger.Debug("tool suppressed as already shown", "tool", name)
	}
	return kept
}

type convState int

const (
	stateExploring convState = iota
	stateInterested
	stateObjecting
	stateReadyToBuy
)

func conversationState(snap analyzer.Snapshot, profile *memory.UserProfile) convState {
	switch snap.Intent {
	case analyzer.IntentObjectionPrice, analyzer.IntentObjectionTime,
		analyzer.IntentObjectionValue, analyzer.IntentObjectionTrust:
		return stateObjecting
	case analyzer.IntentBuyingSignals:
		return stateReadyToBuy
	}
	if profile.LeadScore > 80 {
		return stateReadyToBuy
	}
	if profile.LeadScore < 40 && profile.TotalMessages <= 3 {
		return stateExploring
	}
	return stateInterested
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func countMatches(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}
