package analyzer

import (
	"strings"
	"time"

	"github.com/impulsa-ai/brenda/internal/memory"
)

// Keyword tables for the rule-based fallback. Matching is lowercase and
// accent-tolerant only through listing both spellings where users mix them.
var intentKeywords = map[Intent][]string{
	IntentBuyingSignals: {
		"inscribirme", "inscripción", "inscripcion", "comprar", "pagar", "pago",
		"depósito", "deposito", "transferencia", "acepto", "estoy lista", "estoy listo",
		"quiero empezar", "cómo me registro", "como me registro", "dónde pago", "donde pago",
	},
	IntentObjectionPrice: {
		"caro", "cara", "precio", "costoso", "costosa", "no tengo dinero",
		"presupuesto", "descuento", "muy elevado", "no me alcanza",
	},
	IntentObjectionTime: {
		"no tengo tiempo", "tiempo", "ocupado", "ocupada", "horario",
		"cuánto dura", "cuanto dura", "muy largo", "después", "despues", "luego",
	},
	IntentObjectionValue: {
		"vale la pena", "sirve", "funciona", "resultados", "beneficio",
		"qué gano", "que gano", "para qué", "para que",
	},
	IntentObjectionTrust: {
		"confiar", "confianza", "estafa", "garantía", "garantia",
		"certificado", "certificación", "certificacion", "es real", "seguro",
	},
	IntentAutomationNeed: {
		"automatizar", "automatización", "automatizacion", "repetitivo",
		"procesos", "ahorrar tiempo", "optimizar", "flujo de trabajo",
	},
	IntentFreeResources: {
		"gratis", "gratuito", "gratuita", "recursos", "material",
		"guía", "guia", "plantilla", "template", "muestra",
	},
	IntentExploration: {
		"temario", "contenido", "qué incluye", "que incluye", "módulos", "modulos",
		"sesiones", "aprender", "curso", "programa", "nivel", "de qué trata", "de que trata",
	},
	IntentProfessionChange: {
		"cambiar de carrera", "cambio de carrera", "nueva profesión", "nueva profesion",
		"reinventarme", "otro trabajo", "cambiar de trabajo", "empezar de cero",
	},
}

// intentPriority resolves keyword-count ties; lower index wins.
var intentPriority = []Intent{
	IntentBuyingSignals,
	IntentObjectionPrice,
	IntentObjectionTime,
	IntentObjectionValue,
	IntentObjectionTrust,
	IntentProfessionChange,
	IntentFreeResources,
	IntentAutomationNeed,
	IntentExploration,
	IntentGeneralQuestion,
}

var positiveWords = []string{
	"gracias", "excelente", "genial", "perfecto", "me encanta", "me interesa",
	"increíble", "increible", "buenísimo", "buenisimo", "claro que sí", "claro que si",
}

var negativeWords = []string{
	"no me interesa", "caro", "malo", "pésimo", "pesimo", "molesto", "molesta",
	"no quiero", "déjame", "dejame", "basta", "estafa",
}

var styleByIntent = map[Intent]string{
	IntentBuyingSignals:    "directo y facilitador",
	IntentObjectionPrice:   "empático, enfocado en valor",
	IntentObjectionTime:    "empático, enfocado en flexibilidad",
	IntentObjectionValue:   "concreto, con ejemplos de resultados",
	IntentObjectionTrust:   "transparente y tranquilizador",
	IntentAutomationNeed:   "consultivo, orientado a casos de uso",
	IntentFreeResources:    "generoso y sin presión",
	IntentExploration:      "informativo y entusiasta",
	IntentProfessionChange: "motivador, orientado a futuro",
	IntentGeneralQuestion:  "claro y breve",
}

var focusByIntent = map[Intent]string{
	IntentBuyingSignals:    "facilitar la inscripción",
	IntentObjectionPrice:   "retorno de inversión",
	IntentObjectionTime:    "acceso flexible a las sesiones",
	IntentObjectionValue:   "resultados de otros alumnos",
	IntentObjectionTrust:   "garantía y respaldo",
	IntentAutomationNeed:   "aplicación a sus procesos",
	IntentFreeResources:    "entregar valor inmediato",
	IntentExploration:      "contenido del programa",
	IntentProfessionChange: "ruta de aprendizaje desde cero",
	IntentGeneralQuestion:  "resolver la duda puntual",
}

func (a *Analyzer) analyzeRules(profile *memory.UserProfile, text string) Snapshot {
	lower := strings.ToLower(text)

	intent, hits := classifyKeywords(lower)

	snap := Snapshot{
		Intent:          intent,
		Sentiment:       sentimentOf(lower),
		EngagementLevel: engagementOf(profile, text),
		ResponseStyle:   styleByIntent[intent],
		NextFocus:       focusByIntent[intent],
		Source:          "rules",
	}

	switch intent {
	case IntentBuyingSignals:
		snap.BuyingSignals = hits
	case IntentObjectionPrice, IntentObjectionTime, IntentObjectionValue, IntentObjectionTrust:
		snap.Objections = hits
	case IntentAutomationNeed:
		snap.Challenges = hits
	case IntentExploration, IntentFreeResources, IntentProfessionChange:
		snap.Interests = hits
	}
	return snap
}

// classifyKeywords scores every intent by matched-keyword count and resolves
// ties by the fixed priority order.
func classifyKeywords(lower string) (Intent, []string) {
	scores := make(map[Intent]int)
	matched := make(map[Intent][]string)
	for intent, words := range intentKeywords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				scores[intent]++
				matched[intent] = append(matched[intent], w)
			}
		}
	}

	best := IntentGeneralQuestion
	bestScore := 0
	for _, intent := range intentPriority {
		if scores[intent] > bestScore {
			best = intent
			bestScore = scores[intent]
		}
	}
	return best, matched[best]
}

func sentimentOf(lower string) string {
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// engagementOf scores message length plus recent activity density: wordy
// messages from users who keep the conversation moving rank higher.
func engagementOf(profile *memory.UserProfile, text string) memory.Engagement {
	words := countWords(text)

	score := 0
	switch {
	case words >= 25:
		score += 2
	case words >= 8:
		score++
	}

	if profile != nil {
		recent := 0
		cutoff := time.Now().Add(-10 * time.Minute)
		for _, rec := range profile.RecentWindow(memory.LogLimit) {
			if rec.Role == "user" && rec.Timestamp.After(cutoff) {
				recent++
			}
		}
		switch {
		case recent >= 4:
			score += 2
		case recent >= 2:
			score++
		}
	}

	switch {
	case score >= 4:
		return memory.EngagementVeryHigh
	case score == 3:
		return memory.EngagementHigh
	case score >= 1:
		return memory.EngagementMedium
	default:
		return memory.EngagementLow
	}
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
