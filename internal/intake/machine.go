package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/internal/messenger"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

// Callback payloads the intake keyboards emit.
const (
	CallbackPrivacyAccept  = "privacy_accept"
	CallbackPrivacyDecline = "privacy_decline"
	CallbackMenuQuestion   = "menu_question"
	CallbackMenuPrices     = "menu_prices"
	CallbackMenuCall       = "menu_call"
)

const (
	privacyPromptText = "¡Hola! 👋 Soy Brenda, tu asesora de cursos de Inteligencia Artificial.\n\nAntes de empezar necesito tu autorización para tratar tus datos conforme a nuestro aviso de privacidad. ¿Me lo autorizas?"

	privacyDeclinedText = "Entiendo, sin tu autorización no puedo continuar la conversación. Si cambias de opinión, aquí estaré. 👋"

	namePromptText = "¡Gracias! 🙌 ¿Cómo te gusta que te llamen? Si prefieres, escribe \"está bien\" y te llamo por tu nombre de perfil."

	presentationRetryText = "Estoy preparando la información de tu curso, dame un momento y vuelve a escribirme. 🙏"
)

var acceptWords = []string{"acepto", "autorizo", "de acuerdo", "está bien", "esta bien"}
var acceptTokens = []string{"sí", "si", "ok", "dale", "va"}
var declineWords = []string{"no acepto", "no autorizo", "rechazo"}
var keepNameWords = []string{"está bien", "esta bien", "ok", "okay", "así está bien", "asi esta bien"}

// Machine drives a user from first contact to free dialogue: campaign
// binding, privacy gate, name capture, and the course presentation.
type Machine struct {
	catalog   catalog.Gateway
	campaigns campaignCourses
	logger    *logging.Logger
}

// NewMachine wires the intake flow. campaigns maps lowercase course tags to
// catalog course ids.
func NewMachine(gateway catalog.Gateway, campaigns map[string]string, logger *logging.Logger) *Machine {
	if gateway == nil {
		panic("intake: catalog gateway is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{catalog: gateway, campaigns: campaigns, logger: logger}
}

// Owns reports whether the intake machine handles this user's next message.
func (m *Machine) Owns(profile *memory.UserProfile) bool {
	switch profile.Stage {
	case memory.StageInitial, memory.StagePrivacyPending, memory.StageNamePending,
		memory.StageCoursePresenting, memory.StageClosed:
		return true
	}
	return false
}

// Handle advances the intake state machine by one inbound update.
func (m *Machine) Handle(ctx context.Context, profile *memory.UserProfile, update messenger.Update) messenger.Reply {
	text := strings.TrimSpace(update.Text)

	switch profile.Stage {
	case memory.StageInitial:
		return m.handleInitial(profile, text)
	case memory.StagePrivacyPending:
		return m.handlePrivacy(profile, update, text)
	case memory.StageNamePending:
		return m.handleName(ctx, profile, text)
	case memory.StageCoursePresenting:
		return m.present(ctx, profile)
	case memory.StageClosed:
		// A returning declined user gets the gate again.
		profile.Stage = memory.StagePrivacyPending
		return privacyPrompt()
	default:
		m.logger.Warn("intake asked to handle unexpected stage", "stage", string(profile.Stage), "user_id", profile.UserID)
		return privacyPrompt()
	}
}

func (m *Machine) handleInitial(profile *memory.UserProfile, text string) messenger.Reply {
	if tag, ok := ParseCampaignTags(text); ok {
		profile.CampaignTag = tag.CampaignTag
		if courseID := m.campaigns.Resolve(tag.CourseTag); courseID != "" {
			profile.SelectedCourseID = courseID
		} else if tag.CourseTag != "" {
			m.logger.Warn("unknown campaign course tag", "tag", tag.CourseTag, "user_id", profile.UserID)
		}
	}
	profile.BrendaIntroduced = true
	profile.Stage = memory.StagePrivacyPending
	return privacyPrompt()
}

func (m *Machine) handlePrivacy(profile *memory.UserProfile, update messenger.Update, text string) messenger.Reply {
	lower := strings.ToLower(text)

	accepted := update.CallbackPayload == CallbackPrivacyAccept ||
		containsAny(lower, acceptWords) || hasToken(lower, acceptTokens)
	declined := update.CallbackPayload == CallbackPrivacyDecline || containsAny(lower, declineWords)

	// "no acepto" contains "acepto"; an explicit decline wins.
	if declined {
		profile.Stage = memory.StageClosed
		return textReply(privacyDeclinedText)
	}
	if accepted {
		profile.AcceptPrivacy(time.Now())
		profile.Stage = memory.StageNamePending
		return textReply(namePromptText)
	}
	return privacyPrompt()
}

func (m *Machine) handleName(ctx context.Context, profile *memory.UserProfile, text string) messenger.Reply {
	lower := strings.ToLower(text)
	if text != "" && !containsAny(lower, keepNameWords) {
		profile.PreferredName = text
	}
	profile.NameCollected = true
	profile.Stage = memory.StageCoursePresenting
	return m.present(ctx, profile)
}

// present sends the course presentation: syllabus document, preview link,
// data card, and the three-option menu. The stage only advances once the
// catalog answered; a failed lookup leaves the user in course_presenting so
// the next message retries.
func (m *Machine) present(ctx context.Context, profile *memory.UserProfile) messenger.Reply {
	if profile.SelectedCourseID == "" {
		// No campaign binding: the menu path lets the user pick later.
		profile.CoursePresented = true
		profile.Stage = memory.StageFreeDialogue
		return messenger.Reply{Parts: []messenger.Part{
			messenger.TextPart(fmt.Sprintf("¡Un gusto, %s! Cuéntame qué te gustaría aprender sobre Inteligencia Artificial y te recomiendo el programa ideal.", profile.DisplayName())),
		}}
	}

	course, err := m.catalog.GetCourse(ctx, profile.SelectedCourseID)
	if err != nil || course == nil {
		if err != nil {
			m.logger.Warn("course presentation failed, staying in course_presenting",
				"course_id", profile.SelectedCourseID, "error", err.Error())
		}
		return textReply(presentationRetryText)
	}

	var parts []messenger.Part
	if course.SyllabusURL != nil && *course.SyllabusURL != "" {
		parts = append(parts, messenger.DocumentPart(*course.SyllabusURL, fmt.Sprintf("Temario — %s", course.Name)))
	}
	if course.CourseURL != nil && *course.CourseURL != "" {
		parts = append(parts, messenger.ImagePart(*course.CourseURL, course.Name))
	}
	parts = append(parts, messenger.TextPart(courseCard(profile, course)))
	parts = append(parts, messenger.KeyboardPart("¿Qué te gustaría hacer?", [][]messenger.Button{
		{{Label: "❓ Hacer una pregunta", CallbackPayload: CallbackMenuQuestion}},
		{{Label: "💵 Ver precios", CallbackPayload: CallbackMenuPrices}},
		{{Label: "📞 Agendar llamada", CallbackPayload: CallbackMenuCall}},
	}))

	profile.CoursePresented = true
	profile.Stage = memory.StageFreeDialogue
	return messenger.Reply{Parts: parts}
}

// HandleMenu serves the "menu" keyword from any stage past the privacy gate.
func (m *Machine) HandleMenu(profile *memory.UserProfile) messenger.Reply {
	profile.Stage = memory.StageFreeDialogue
	profile.AdvisorState = ""
	return messenger.Reply{Parts: []messenger.Part{
		messenger.KeyboardPart("¿En qué te ayudo?", [][]messenger.Button{
			{{Label: "❓ Hacer una pregunta", CallbackPayload: CallbackMenuQuestion}},
			{{Label: "💵 Ver precios", CallbackPayload: CallbackMenuPrices}},
			{{Label: "📞 Agendar llamada", CallbackPayload: CallbackMenuCall}},
		}),
	}}
}

// courseCard renders the formatted presentation text. Null columns render
// the fixed placeholder, never a raw nil.
func courseCard(profile *memory.UserProfile, course *catalog.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✨ %s, te presento *%s*\n\n", profile.DisplayName(), course.Name)
	if course.ShortDescription != "" {
		b.WriteString(course.ShortDescription)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "💵 Inversión: %s\n", catalog.FormatPrice(course.Price, course.Currency))
	fmt.Fprintf(&b, "🎓 Nivel: %s\n", catalog.TextOrPlaceholder(course.Level))
	fmt.Fprintf(&b, "📅 Sesiones: %s\n", catalog.FormatCount(course.SessionCount))
	fmt.Fprintf(&b, "⏱️ Duración total: %s", catalog.FormatDuration(course.TotalDurationMin))
	return b.String()
}

func privacyPrompt() messenger.Reply {
	return messenger.Reply{Parts: []messenger.Part{
		messenger.KeyboardPart(privacyPromptText, [][]messenger.Button{
			{
				{Label: "✅ Acepto", CallbackPayload: CallbackPrivacyAccept},
				{Label: "❌ No acepto", CallbackPayload: CallbackPrivacyDecline},
			},
		}),
	}}
}

// hasToken matches whole words so "si" inside another word cannot pass the
// privacy gate.
func hasToken(lower string, tokens []string) bool {
	for _, field := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '¡'
	}) {
		for _, tok := range tokens {
			if field == tok {
				return true
			}
		}
	}
	return false
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func textReply(text string) messenger.Reply {
	return messenger.Reply{Parts: []messenger.Part{messenger.TextPart(text)}}
}
