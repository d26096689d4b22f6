package tools

import (
	"context"
	"fmt"
)

// AdvisorFlowPrompt opens the advisor sub-dialogue; the engine suspends the
// free-dialogue path when it sees a contact_flow result.
const AdvisorFlowPrompt = "¡Perfecto! Te conecto con uno de nuestros asesores. Para agendar tu llamada solo necesito confirmar algunos datos. 😊"

func (r *Registry) contactAdvisorDirectly(_ context.Context, _ Input) Result {
	return Result{Type: TypeContactFlow, Content: AdvisorFlowPrompt}
}

func (r *Registry) schedulePersonalDemo(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return Result{Type: TypeContactFlow, Content: AdvisorFlowPrompt}
	}

	content := fmt.Sprintf("Podemos agendarte una demo personalizada de *%s*: 20 minutos con un asesor que te muestra el programa aplicado a tu caso. Te conecto para coordinar el horario.", course.Name)
	return Result{Type: TypeContactFlow, Content: content}
}

func (r *Registry) scheduleFollowup(_ context.Context, in Input) Result {
	name := ""
	if in.Profile != nil {
		name = in.Profile.DisplayName()
	}
	content := "Sin problema, te escribo en unos días para retomar la plática. Si algo cambia antes, aquí estoy. 🙌"
	if name != "" {
		content = fmt.Sprintf("Sin problema, %s, te escribo en unos días para retomar la plática. Si algo cambia antes, aquí estoy. 🙌", name)
	}
	return Result{Type: TypeText, Content: content}
}
