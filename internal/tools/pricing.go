package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/impulsa-ai/brenda/internal/catalog"
)

const (
	safeCopyPricing = "Déjame confirmarte el precio exacto del programa para no darte un dato equivocado. ¿Te parece si mientras revisamos qué incluye?"
	safeCopyBonuses = "Estoy confirmando los bonos vigentes para darte la información exacta. ¿Qué es lo que más te interesa del programa?"
	safeCopyPayment = "Déjame conseguirte los datos de pago actualizados y te los comparto en un momento."
)

func (r *Registry) showPricingComparison(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil || !course.Price.Valid {
		return degraded(safeCopyPricing)
	}

	price := course.Price
	var b strings.Builder
	fmt.Fprintf(&b, "💰 La inversión en *%s* es de %s.\n\n", course.Name, catalog.FormatPrice(price, course.Currency))
	b.WriteString("Para ponerlo en perspectiva:\n")
	fmt.Fprintf(&b, "• Un diplomado presencial equivalente cuesta %s o más.\n",
		catalog.FormatPrice(catalog.Num(price.Value*5), course.Currency))
	fmt.Fprintf(&b, "• Una consultoría privada del mismo alcance supera los %s.\n",
		catalog.FormatPrice(catalog.Num(price.Value*8), course.Currency))
	b.WriteString("\nY aquí el acceso es tuyo sin límite de tiempo.")

	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) showBonuses(ctx context.Context, in Input) Result {
	bonuses, err := r.catalog.ListBonuses(ctx, in.CourseID)
	if err != nil {
		r.logger.Warn("bonus list failed", "course_id", in.CourseID, "error", err.Error())
		return degraded(safeCopyBonuses)
	}

	available := availableBonuses(bonuses)
	if len(available) == 0 {
		return degraded(safeCopyBonuses)
	}

	var b strings.Builder
	b.WriteString("🎁 Al inscribirte hoy también recibes:\n")
	for _, bn := range available {
		fmt.Fprintf(&b, "• *%s*", bn.Name)
		if bn.OriginalValue.Valid {
			fmt.Fprintf(&b, " (valor %s)", catalog.FormatPrice(bn.OriginalValue, "USD"))
		}
		if bn.Description != nil && *bn.Description != "" {
			fmt.Fprintf(&b, " — %s", *bn.Description)
		}
		b.WriteString("\n")
	}
	return Result{Type: TypeText, Content: strings.TrimSpace(b.String())}
}

func (r *Registry) presentLimitedOffer(ctx context.Context, in Input) Result {
	bonuses, err := r.catalog.ListBonuses(ctx, in.CourseID)
	if err != nil {
		r.logger.Warn("bonus list failed", "course_id", in.CourseID, "error", err.Error())
		return degraded(safeCopyBonuses)
	}

	var expiring []catalog.Bonus
	for _, bn := range availableBonuses(bonuses) {
		if bn.ExpiresAt != nil || bn.RemainingClaims() > 0 {
			expiring = append(expiring, bn)
		}
	}
	if len(expiring) == 0 {
		return degraded(safeCopyBonuses)
	}

	var b strings.Builder
	b.WriteString("⏳ Estos bonos tienen disponibilidad limitada:\n")
	for _, bn := range expiring {
		fmt.Fprintf(&b, "• *%s*", bn.Name)
		if bn.ExpiresAt != nil {
			fmt.Fprintf(&b, " — disponible hasta el %s", bn.ExpiresAt.Format("02/01/2006"))
		} else if rem := bn.RemainingClaims(); rem > 0 {
			fmt.Fprintf(&b, " — quedan %d lugares", rem)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSi te inscribes ahora los aseguras todos.")
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) personalizeByBudget(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil || !course.Price.Valid {
		return degraded(safeCopyPricing)
	}

	monthly := course.Price.Value / 30
	var b strings.Builder
	fmt.Fprintf(&b, "El programa completo cuesta %s.", catalog.FormatPrice(course.Price, course.Currency))
	fmt.Fprintf(&b, " Visto de otra forma, equivale a %s al día durante un mes",
		catalog.FormatPrice(catalog.Num(monthly), course.Currency))
	b.WriteString(" y el acceso no caduca. Si me cuentas tu presupuesto, busco la mejor forma de que te funcione.")
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) calculatePersonalROI(ctx context.Context, in Input) Result {
	course := r.course(ctx, in.CourseID)
	if course == nil || !course.Price.Valid {
		return degraded(safeCopyPricing)
	}

	var b strings.Builder
	b.WriteString("📈 Hagamos números rápidos:\n")
	fmt.Fprintf(&b, "• Inversión única: %s.\n", catalog.FormatPrice(course.Price, course.Currency))
	b.WriteString("• Si automatizas tareas que hoy te toman 5 horas a la semana, recuperas decenas de horas al mes.\n")
	b.WriteString("• Valora tu hora de trabajo y multiplica: la inversión suele recuperarse en las primeras semanas de aplicar lo aprendido.")
	if role := profileRole(in); role != "" {
		fmt.Fprintf(&b, "\n\nEn tu caso como %s, las tareas repetitivas de documentación y análisis son las primeras candidatas.", role)
	}
	return Result{Type: TypeText, Content: b.String()}
}

func (r *Registry) sendPaymentInfo(ctx context.Context, in Input) Result {
	info, err := r.catalog.GetPaymentInfo(ctx)
	if err != nil || info == nil || !info.Active {
		if err != nil {
			r.logger.Warn("payment info lookup failed", "error", err.Error())
		}
		return degraded(safeCopyPayment)
	}

	var b strings.Builder
	b.WriteString("🏦 Datos para tu transferencia:\n\n")
	fmt.Fprintf(&b, "Beneficiario: %s\n", info.CompanyName)
	fmt.Fprintf(&b, "Banco: %s\n", info.BankName)
	fmt.Fprintf(&b, "CLABE: %s\n", info.ClabeAccount)
	fmt.Fprintf(&b, "RFC: %s\n", info.RFC)
	if info.CFDIUsage != nil && *info.CFDIUsage != "" {
		fmt.Fprintf(&b, "Uso de CFDI: %s\n", *info.CFDIUsage)
	}
	b.WriteString("\nEn cuanto realices el pago, envíame tu comprobante para confirmar tu lugar. 🙌")
	return Result{Type: TypeText, Content: b.String()}
}

func availableBonuses(bonuses []catalog.Bonus) []catalog.Bonus {
	now := time.Now()
	var out []catalog.Bonus
	for _, bn := range bonuses {
		if !bn.Active {
			continue
		}
		if bn.ExpiresAt != nil && bn.ExpiresAt.Before(now) {
			continue
		}
		if bn.MaxClaims > 0 && bn.RemainingClaims() <= 0 {
			continue
		}
		out = append(out, bn)
	}
	return out
}

func profileRole(in Input) string {
	if in.Profile == nil {
		return ""
	}
	return in.Profile.Role
}
