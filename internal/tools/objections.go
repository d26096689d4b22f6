package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/impulsa-ai/brenda/internal/catalog"
)

func (r *Registry) handleTimeObjection(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	var b strings.Builder
	b.WriteString("Te entiendo, el tiempo es lo más difícil de conseguir. Justo por eso el programa está pensado para agendas ocupadas:\n")
	if course.SessionCount.Valid && course.SessionCount.Value > 0 && course.TotalDurationMin.Valid {
		perSession := course.TotalDurationMin.Value / course.SessionCount.Value
		fmt.Fprintf(&b, "• Son %s sesiones de aproximadamente %s cada una.\n",
			catalog.FormatCount(course.SessionCount),
			catalog.FormatDuration(catalog.Num(perSession)))
	}
	b.WriteString("• Todas las sesiones quedan grabadas: si no llegas en vivo, las ves cuando puedas.\n")
	b.WriteString("• El acceso no caduca, avanzas a tu ritmo sin perder nada.")
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) detectAutomationNeeds(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	var b strings.Builder
	b.WriteString("Para recomendarte por dónde empezar, cuéntame:\n")
	b.WriteString("1. ¿Qué tarea repetitiva te quita más tiempo cada semana?\n")
	b.WriteString("2. ¿Trabajas más con textos, números o atención a personas?\n")
	b.WriteString("3. ¿Ya usas alguna herramienta de IA, aunque sea de vez en cuando?\n\n")
	if len(profileChallenges(in)) > 0 {
		fmt.Fprintf(&b, "Por lo que me has contado (%s), *%s* te daría flujos aplicables desde las primeras sesiones.",
			strings.Join(profileChallenges(in), ", "), course.Name)
	} else {
		fmt.Fprintf(&b, "Con tus respuestas te digo exactamente qué sesiones de *%s* atacan tu caso.", course.Name)
	}
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) recommendTools(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopyCourse)
	}

	sessions, err := r.catalog.ListSessions(ctx, course.ID)
	if err != nil {
		r.logger.Warn("session list failed", "course_id", course.ID, "error", err.Error())
		sessions = nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "En *%s* trabajas con las herramientas de IA que se usan hoy en la práctica profesional.", course.Name)
	if len(sessions) > 0 {
		b.WriteString(" Algunos temas donde las aplicas:\n")
		for i, s := range sessions {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "• %s\n", s.Title)
		}
	}
	return Result{Type: TypeText, Content: strings.TrimSpace(b.String())}
}

func profileChallenges(in Input) []string {
	if in.Profile == nil {
		return nil
	}
	return in.Profile.Challenges
}
