package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/impulsa-ai/brenda/internal/catalog"
)

// shortListLimit caps session lists in chat views.
const shortListLimit = 5

const (
	safeCopySyllabus  = "Con gusto te comparto el contenido del curso en cuanto lo tenga a la mano. ¿Hay algún tema en particular que te interese?"
	safeCopyPreview   = "Déjame conseguirte una muestra del curso. Mientras tanto, ¿qué te gustaría lograr con la IA?"
	safeCopyResources = "En este momento no tengo recursos gratuitos disponibles, pero en cuanto los tenga te los hago llegar. ¿Qué tema te interesa más?"
)

func (r *Registry) showSyllabus(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil {
		return degraded(safeCopySyllabus)
	}

	sessions, err := r.catalog.ListSessions(ctx, course.ID)
	if err != nil {
		r.logger.Warn("session list failed", "course_id", course.ID, "error", err.Error())
		return degraded(safeCopySyllabus)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📚 *%s*\n\n", course.Name)
	if len(sessions) > 0 {
		fmt.Fprintf(&b, "El programa incluye %d sesiones:\n", len(sessions))
		for i, s := range sessions {
			if i == shortListLimit {
				fmt.Fprintf(&b, "… y %d sesiones más.\n", len(sessions)-shortListLimit)
				break
			}
			fmt.Fprintf(&b, "%d. %s (%s)\n", s.SessionIndex, s.Title, catalog.FormatDuration(s.DurationMinutes))
		}
	} else {
		b.WriteString(course.ShortDescription)
		b.WriteString("\n")
	}
	if course.TotalDurationMin.Valid {
		fmt.Fprintf(&b, "\nDuración total: %s", catalog.FormatDuration(course.TotalDurationMin))
	}

	res := Result{Type: TypeText, Content: strings.TrimSpace(b.String())}
	if course.SyllabusURL != nil && *course.SyllabusURL != "" {
		res.Type = TypeMultimedia
		res.Resources = append(res.Resources, Resource{
			Type:    "document",
			URL:     *course.SyllabusURL,
			Caption: fmt.Sprintf("Temario completo — %s", course.Name),
		})
	}
	return res
}

func (r *Registry) sendPreview(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil || course.CourseURL == nil || *course.CourseURL == "" {
		return degraded(safeCopyPreview)
	}

	content := fmt.Sprintf("🎬 Aquí puedes ver una muestra de *%s* para que conozcas el estilo de las clases antes de decidir.", course.Name)
	return Result{
		Type:    TypeMultimedia,
		Content: content,
		Resources: []Resource{{
			Type:    "link",
			URL:     *course.CourseURL,
			Caption: course.Name,
		}},
	}
}

func (r *Registry) sendFreeResources(ctx context.Context, in Input) Result {
	resources, err := r.catalog.ListFreeResources(ctx, in.CourseID)
	if err != nil {
		r.logger.Warn("free resource list failed", "course_id", in.CourseID, "error", err.Error())
		return degraded(safeCopyResources)
	}

	var active []catalog.FreeResource
	for _, fr := range resources {
		if fr.Active {
			active = append(active, fr)
		}
	}
	if len(active) == 0 {
		return degraded(safeCopyResources)
	}

	var b strings.Builder
	b.WriteString("🎁 Te comparto estos recursos gratuitos para que empieces hoy mismo:\n")
	res := Result{Type: TypeMultimedia}
	for _, fr := range active {
		fmt.Fprintf(&b, "• %s\n", fr.Name)
		rtype := "document"
		if fr.Type == "video" {
			rtype = "video"
		}
		res.Resources = append(res.Resources, Resource{
			Type:    rtype,
			URL:     fr.URL,
			Caption: fr.Name,
		})
	}
	res.Content = strings.TrimSpace(b.String())
	return res
}
