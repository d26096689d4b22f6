package llm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

// SafeParaphrase replaces a reply that contradicts the catalog.
const SafeParaphrase = "Déjame verificar ese detalle específico para darte la información exacta. Mientras tanto, ¿hay algo más del curso que te gustaría conocer?"

// ValidationResult is the outcome of grounding one model reply.
type ValidationResult struct {
	// Valid is false only when the reply contradicted the catalog.
	Valid bool
	// Text is the reply to use: the original, or SafeParaphrase.
	Text string
	// Contradictions are the fail-closed findings that invalidated the reply.
	Contradictions []string
	// Warnings are unverifiable claims; they never invalidate by themselves.
	Warnings []string
}

var (
	moduleCountRE  = regexp.MustCompile(`(?i)(\d+)\s*(?:módulos?|modulos?|sesiones|sesión|sesion)`)
	moduleWordRE   = regexp.MustCompile(`(?i)\b(?:módulos?|modulos?|sesiones|sesión|sesion)\b`)
	bonusWordRE    = regexp.MustCompile(`(?i)\b(?:bonos?|bonus)\b`)
	priceClaimRE   = regexp.MustCompile(`\$\s*([0-9]+(?:[.,][0-9]{1,2})?)`)
	durationEachRE = regexp.MustCompile(`(?i)(\d+)\s*(?:horas?|hrs?|minutos?|min)\s+cada\s+(?:una|uno|sesión|sesion|módulo|modulo)`)
)

// Validator cross-checks model output against the catalog projection for
// the user's selected course.
type Validator struct {
	logger *logging.Logger
}

// NewValidator creates a grounding validator.
func NewValidator(logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Validator{logger: logger}
}

// Check scans the reply for content-claim tokens and verifies each against
// the loaded projections. Detected contradictions fail closed (reply is
// replaced); anything unverifiable is a warning and the reply stands. An
// internal panic fails open so tool activations are never blocked.
func (v *Validator) Check(reply string, course *catalog.Course, sessions []catalog.Session, bonuses []catalog.Bonus) (result ValidationResult) {
	result = ValidationResult{Valid: true, Text: reply}

	defer func() {
		if r := recover(); r != nil {
			// Fail open: accept the reply rather than block the turn.
			v.logger.Error("response validator panicked, accepting reply", "panic", fmt.Sprint(r))
			result = ValidationResult{Valid: true, Text: reply}
		}
	}()

	if strings.TrimSpace(reply) == "" {
		return result
	}

	var contradictions, warnings []string

	// Structural claims about modules/sessions.
	if moduleWordRE.MatchString(reply) {
		if len(sessions) == 0 {
			contradictions = append(contradictions, "claims sessions but catalog returned none")
		} else if m := moduleCountRE.FindStringSubmatch(reply); m != nil {
			claimed, err := strconv.Atoi(m[1])
			if err == nil && claimed != len(sessions) && !matchesProjectionCount(course, claimed) {
				contradictions = append(contradictions,
					fmt.Sprintf("claims %d sessions, catalog has %d", claimed, len(sessions)))
			}
		}
	}

	// Per-session duration claims need at least one real session to verify.
	if m := durationEachRE.FindStringSubmatch(reply); m != nil && len(sessions) > 0 {
		warnings = append(warnings, "per-session duration claim left unverified")
	}

	// Bonus claims are valid iff matching bonuses exist.
	if bonusWordRE.MatchString(reply) && len(bonuses) == 0 {
		contradictions = append(contradictions, "claims bonuses but catalog returned none")
	}

	// Every price claim must match the course projection when the projection
	// carries a price; otherwise they are merely unverifiable.
	for _, m := range priceClaimRE.FindAllStringSubmatch(reply, -1) {
		claimed, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		switch {
		case course == nil || !course.Price.Valid:
			warnings = append(warnings, "price claim with no catalog price to verify")
		case math.Abs(claimed-course.Price.Value) > 0.01 && !isKnownDerivedFigure(claimed, course.Price.Value):
			contradictions = append(contradictions,
				fmt.Sprintf("claims price %.2f, catalog says %.2f", claimed, course.Price.Value))
		}
	}

	if len(contradictions) > 0 {
		v.logger.Warn("model reply contradicted catalog, replacing with safe paraphrase",
			"contradictions", strings.Join(contradictions, "; "))
		return ValidationResult{
			Valid:          false,
			Text:           SafeParaphrase,
			Contradictions: contradictions,
			Warnings:       warnings,
		}
	}

	if len(warnings) > 0 {
		v.logger.Debug("model reply carries unverifiable claims", "warnings", strings.Join(warnings, "; "))
	}
	result.Warnings = warnings
	return result
}

// matchesProjectionCount accepts a claim that agrees with the course's own
// session_count column even if the sessions table is partially loaded.
func matchesProjectionCount(course *catalog.Course, claimed int) bool {
	return course != nil && course.SessionCount.Valid && course.SessionCount.Int() == claimed
}

// isKnownDerivedFigure tolerates comparison figures tools legitimately
// derive from the price (multiples used by the pricing comparison).
func isKnownDerivedFigure(claimed, price float64) bool {
	for _, factor := range []float64{2, 3, 5, 8, 10} {
		if math.Abs(claimed-price*factor) < 0.01 {
			return true
		}
	}
	return false
}
