package advisor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/internal/messenger"
	"github.com/impulsa-ai/brenda/internal/notify"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

// Sub-states of the handoff dialogue, persisted in the profile so the flow
// survives restarts mid-collection.
const (
	StateAwaitingCourse = "awaiting_course"
	StateAwaitingEmail  = "awaiting_email"
	StateAwaitingPhone  = "awaiting_phone"
	StateConfirming     = "confirming"
	StateDone           = "done"
)

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

var cancelWords = []string{"cancelar", "cancela", "ya no", "salir", "olvídalo", "olvidalo"}

var confirmWords = []string{"sí", "si", "confirmo", "confirmar", "correcto", "dale", "va", "claro"}

// Outcome reports how one advisor-flow turn ended.
type Outcome struct {
	Reply messenger.Reply
	// Done is true when the flow exits, by completion or cancellation.
	Done bool
	// Dispatched is true when the advisor email went out this turn.
	Dispatched bool
}

// Flow runs the nested contact-collection dialogue and dispatches the
// advisor notification when every field is confirmed.
type Flow struct {
	catalog      catalog.Gateway
	email        notify.EmailSender
	advisorEmail string
	logger       *logging.Logger
}

// New wires the flow. The email sender and advisor address are required;
// the flow refuses to dispatch without them but still collects data.
func New(gateway catalog.Gateway, email notify.EmailSender, advisorEmail string, logger *logging.Logger) *Flow {
	if gateway == nil {
		panic("advisor: catalog gateway is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Flow{catalog: gateway, email: email, advisorEmail: advisorEmail, logger: logger}
}

// Start enters the flow, skipping every field the profile already has.
func (f *Flow) Start(ctx context.Context, profile *memory.UserProfile) messenger.Reply {
	profile.Stage = memory.StageAdvisorHandoff
	profile.AdvisorState = f.nextState(profile)
	return f.prompt(ctx, profile)
}

// Handle processes one user message inside the flow.
func (f *Flow) Handle(ctx context.Context, profile *memory.UserProfile, text string) Outcome {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if containsAny(lower, cancelWords) {
		f.exit(profile)
		return Outcome{
			Reply: textReply("Sin problema, seguimos platicando cuando quieras. ¿En qué más te puedo ayudar?"),
			Done:  true,
		}
	}

	switch profile.AdvisorState {
	case StateAwaitingCourse:
		return f.handleCourse(ctx, profile, trimmed)
	case StateAwaitingEmail:
		return f.handleEmail(ctx, profile, trimmed)
	case StateAwaitingPhone:
		return f.handlePhone(ctx, profile, trimmed)
	case StateConfirming:
		return f.handleConfirm(ctx, profile, lower)
	default:
		// Unknown sub-state: re-enter cleanly instead of guessing.
		f.logger.Warn("advisor flow in unknown state, restarting", "state", profile.AdvisorState, "user_id", profile.UserID)
		profile.AdvisorState = f.nextState(profile)
		return Outcome{Reply: f.prompt(ctx, profile)}
	}
}

func (f *Flow) handleCourse(ctx context.Context, profile *memory.UserProfile, text string) Outcome {
	courses, err := f.catalog.SearchCourses(ctx, text)
	if err != nil || len(courses) == 0 {
		if err != nil {
			f.logger.Warn("course search failed in advisor flow", "error", err.Error())
		}
		return Outcome{Reply: textReply("No encontré ese curso. ¿Me repites el nombre del programa que te interesa?")}
	}
	profile.SelectedCourseID = courses[0].ID
	profile.AdvisorState = f.nextState(profile)
	return Outcome{Reply: f.prompt(ctx, profile)}
}

func (f *Flow) handleEmail(ctx context.Context, profile *memory.UserProfile, text string) Outcome {
	if !emailRE.MatchString(text) {
		return Outcome{Reply: textReply("Ese correo no se ve completo. ¿Me lo compartes de nuevo? (por ejemplo: nombre@correo.com)")}
	}
	profile.Email = text
	profile.AdvisorState = f.nextState(profile)
	return Outcome{Reply: f.prompt(ctx, profile)}
}

func (f *Flow) handlePhone(ctx context.Context, profile *memory.UserProfile, text string) Outcome {
	normalized := normalizePhone(text)
	if !phoneRE.MatchString(normalized) {
		return Outcome{Reply: textReply("Ese número no parece válido. ¿Me compartes tu teléfono a 10 dígitos?")}
	}
	profile.Phone = normalized
	profile.AdvisorState = f.nextState(profile)
	return Outcome{Reply: f.prompt(ctx, profile)}
}

func (f *Flow) handleConfirm(ctx context.Context, profile *memory.UserProfile, lower string) Outcome {
	if !isConfirmation(lower) {
		return Outcome{Reply: f.prompt(ctx, profile)}
	}

	if err := f.dispatch(ctx, profile); err != nil {
		f.logger.Error("advisor email dispatch failed", "user_id", profile.UserID, "error", err.Error())
		// Stay in confirming so the user can retry.
		profile.AdvisorState = StateConfirming
		return Outcome{Reply: textReply("No pude enviar tus datos en este momento. ¿Quieres que lo intente de nuevo? Responde \"sí\" para reintentar.")}
	}

	profile.AdvisorState = StateDone
	f.exit(profile)
	return Outcome{
		Reply: textReply(fmt.Sprintf("¡Listo, %s! Un asesor te contactará muy pronto para ayudarte con tu inscripción. 🙌", profile.DisplayName())),
		Done:  true,

		Dispatched: true,
	}
}

func (f *Flow) dispatch(ctx context.Context, profile *memory.UserProfile) error {
	if f.email == nil || f.advisorEmail == "" {
		return fmt.Errorf("advisor: no email gateway configured")
	}

	courseName := "(curso por confirmar)"
	if profile.SelectedCourseID != "" {
		if course, err := f.catalog.GetCourse(ctx, profile.SelectedCourseID); err == nil && course != nil {
			courseName = course.Name
		}
	}

	body := fmt.Sprintf(
		"Nuevo prospecto listo para hablar con un asesor.\n\nNombre: %s\nCorreo: %s\nTeléfono: %s\nCurso de interés: %s\n",
		profile.DisplayName(), profile.Email, profile.Phone, courseName,
	)
	return f.email.Send(ctx, notify.EmailMessage{
		To:      f.advisorEmail,
		ToName:  "Asesor",
		Subject: fmt.Sprintf("Nuevo lead: %s", profile.DisplayName()),
		Body:    body,
	})
}

// nextState picks the first field still missing.
func (f *Flow) nextState(profile *memory.UserProfile) string {
	switch {
	case profile.SelectedCourseID == "":
		return StateAwaitingCourse
	case profile.Email == "":
		return StateAwaitingEmail
	case profile.Phone == "":
		return StateAwaitingPhone
	default:
		return StateConfirming
	}
}

func (f *Flow) prompt(ctx context.Context, profile *memory.UserProfile) messenger.Reply {
	switch profile.AdvisorState {
	case StateAwaitingCourse:
		return textReply("¿Sobre qué curso te gustaría hablar con el asesor?")
	case StateAwaitingEmail:
		return textReply("¿A qué correo te puede escribir el asesor?")
	case StateAwaitingPhone:
		return textReply("¿Y a qué teléfono te puede llamar? (10 dígitos)")
	case StateConfirming:
		return textReply(f.summary(ctx, profile))
	default:
		return textReply("Dame un segundo para retomar tus datos…")
	}
}

func (f *Flow) summary(ctx context.Context, profile *memory.UserProfile) string {
	courseName := "(por confirmar)"
	if profile.SelectedCourseID != "" {
		if course, err := f.catalog.GetCourse(ctx, profile.SelectedCourseID); err == nil && course != nil {
			courseName = course.Name
		}
	}
	return fmt.Sprintf(
		"Confirmemos tus datos:\n• Nombre: %s\n• Correo: %s\n• Teléfono: %s\n• Curso: %s\n\n¿Todo correcto? Responde \"sí\" para que el asesor te contacte.",
		profile.DisplayName(), profile.Email, profile.Phone, courseName,
	)
}

func (f *Flow) exit(profile *memory.UserProfile) {
	profile.Stage = memory.StageFreeDialogue
	if profile.AdvisorState != StateDone {
		profile.AdvisorState = ""
	}
}

func normalizePhone(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isConfirmation matches whole words only; "si" as a substring of another
// word must not confirm.
func isConfirmation(lower string) bool {
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '¡'
	}) {
		for _, w := range confirmWords {
			if token == w {
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
