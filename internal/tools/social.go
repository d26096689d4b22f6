package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/impulsa-ai/brenda/internal/catalog"
)

const safeCopyCourse = "Déjame traerte la información exacta del programa para responderte con datos reales. ¿Qué más te gustaría saber?"

func (r *Registry) showTestimonials(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Los alumnos de *%s* destacan sobre todo dos cosas: que las sesiones son 100%% prácticas y que salen aplicando la IA en su trabajo desde la primera semana.", course.Name)
	if course.AudienceCategory != nil && *course.AudienceCategory != "" {
		fmt.Fprintf(&b, " Muchos vienen del mundo de %s, igual que tú podrías hacerlo.", *course.AudienceCategory)
	}
	b.WriteString(" Si quieres, te conecto con un asesor que puede compartirte casos concretos.")
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) showGuarantee(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	content := fmt.Sprintf("Entiendo perfectamente la duda. *%s* está respaldado por una empresa formalmente constituida: recibes factura por tu inscripción y el acceso al contenido queda registrado a tu nombre. Si quieres validar cualquier dato antes de decidir, te pongo en contacto con un asesor humano sin compromiso.", course.Name)
	return Result{Type: TypeText, Content: content}
}

func (r *Registry) showCompetitorComparison(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Comparado con otras opciones del mercado, *%s* tiene tres diferencias claras:\n", course.Name)
	b.WriteString("• Sesiones en vivo con espacio para tus preguntas, no solo videos grabados.\n")
	b.WriteString("• Contenido actualizado con las herramientas de IA vigentes.\n")
	if course.Price.Valid {
		fmt.Fprintf(&b, "• Inversión única de %s, sin mensualidades ocultas.\n", catalog.FormatPrice(course.Price, course.Currency))
	} else {
		b.WriteString("• Inversión única, sin mensualidades ocultas.\n")
	}
	return Result{Type: TypeText, Content: strings.TrimSpace(b.String())}
}

func (r *Registry) showSuccessCases(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	var b strings.Builder
	role := profileRole(in)
	if role != "" {
		fmt.Fprintf(&b, "Personas con tu mismo perfil de %s han tomado *%s* para automatizar reportes, atención a clientes y análisis de información.", role, course.Name)
	} else {
		fmt.Fprintf(&b, "Profesionales de áreas muy distintas han tomado *%s* para automatizar reportes, atención a clientes y análisis de información.", course.Name)
	}
	b.WriteString(" El patrón se repite: quienes aplican lo visto en cada sesión ven resultados en su trabajo antes de terminar el programa. ¿Quieres que un asesor te comparta un caso parecido al tuyo?")
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) showSocialProof(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	content := fmt.Sprintf("La comunidad de *%s* sigue creciendo y es de lo más valorado del programa: alumnos compartiendo prompts, flujos de automatización y vacantes entre ellos. Entrar al curso es también entrar a esa red.", course.Name)
	return Result{Type: TypeText, Content: content}
}

func (r *Registry) connectToCommunity(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	res := Result{
		Type:    TypeText,
		Content: fmt.Sprintf("Al inscribirte a *%s* recibes acceso a la comunidad privada de alumnos, donde se comparten avances, dudas y oportunidades.", course.Name),
	}
	if course.CourseURL != nil && *course.CourseURL != "" {
		res.Type = TypeMultimedia
		res.Resources = append(res.Resources, Resource{
			Type:    "link",
			URL:     *course.CourseURL,
			Caption: "Conoce el programa y su comunidad",
		})
	}
	return res
}

func (r *Registry) gamificationOverview(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	sessions, err := r.catalog.ListSessions(ctx, course.ID)
	if err != nil || len(sessions) == 0 {
		return Result{Type: TypeText, Content: fmt.Sprintf("*%s* avanza por retos prácticos: cada sesión cierra con un ejercicio aplicado a tu propio trabajo, y vas desbloqueando las siguientes al completarlos.", course.Name)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 *%s* avanza por retos: %d sesiones y cada una cierra con un ejercicio aplicado a tu propio trabajo.\n", course.Name, len(sessions))
	b.WriteString("Completas el reto, desbloqueas la siguiente etapa. Así el avance se siente y se mide.")
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) resultsTimeline(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗓️ Así se ve el avance típico en *%s*:\n", course.Name)
	b.WriteString("• Primeras sesiones: dominas los fundamentos y creas tus primeros prompts útiles.\n")
	b.WriteString("• Mitad del programa: automatizas una tarea real de tu trabajo.\n")
	b.WriteString("• Al terminar: tienes un flujo de IA funcionando y la base para seguir por tu cuenta.")
	if course.TotalDurationMin.Valid {
		fmt.Fprintf(&b, "\n\nTodo en %s de formación.", catalog.FormatDuration(course.TotalDurationMin))
	}
	return Result{Type: TypeText, Content: b.String()}
}
