package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/impulsa-ai/brenda/internal/catalog"
)

func TestValidatorCheck(t *testing.T) {
	course := &catalog.Course{
		ID:           "curso-ia",
		Name:         "Experto en IA",
		Price:        catalog.Num(297),
		SessionCount: catalog.Num(8),
	}
	eightSessions := make([]catalog.Session, 8)
	oneBonus := []catalog.Bonus{{Name: "Plantillas de prompts"}}

	tests := []struct {
		name      string
		reply     string
		course    *catalog.Course
		sessions  []catalog.Session
		bonuses   []catalog.Bonus
		wantValid bool
	}{
		{
			name:      "plain reply with no claims passes",
			reply:     "¡Claro! Cuéntame qué te gustaría aprender.",
			course:    course,
			sessions:  eightSessions,
			wantValid: true,
		},
		{
			name:      "session count claim matching catalog passes",
			reply:     "El curso tiene 8 sesiones en vivo.",
			course:    course,
			sessions:  eightSessions,
			wantValid: true,
		},
		{
			name:      "session claim with empty catalog is replaced",
			reply:     "El curso tiene 12 módulos de 1 hora cada uno.",
			course:    &catalog.Course{ID: "curso-ia"},
			sessions:  nil,
			wantValid: false,
		},
		{
			name:      "wrong session count is replaced",
			reply:     "Son 15 sesiones intensivas.",
			course:    course,
			sessions:  eightSessions,
			wantValid: false,
		},
		{
			name:      "bonus claim without bonuses is replaced",
			reply:     "Además incluye bonos exclusivos para ti.",
			course:    course,
			sessions:  eightSessions,
			bonuses:   nil,
			wantValid: false,
		},
		{
			name:      "bonus claim with bonuses passes",
			reply:     "Además incluye bonos exclusivos para ti.",
			course:    course,
			sessions:  eightSessions,
			bonuses:   oneBonus,
			wantValid: true,
		},
		{
			name:      "correct price passes",
			reply:     "La inversión es de $297 USD.",
			course:    course,
			sessions:  eightSessions,
			wantValid: true,
		},
		{
			name:      "wrong price is replaced",
			reply:     "La inversión es de $199 USD.",
			course:    course,
			sessions:  eightSessions,
			wantValid: false,
		},
		{
			name:      "price without catalog price is only a warning",
			reply:     "Cuesta alrededor de $300.",
			course:    &catalog.Course{ID: "curso-ia"},
			sessions:  eightSessions,
			wantValid: true,
		},
		{
			name:      "wrong second price is replaced",
			reply:     "La inversión es de $297 USD, o dos pagos de $160 USD.",
			course:    course,
			sessions:  eightSessions,
			wantValid: false,
		},
		{
			name:      "comparison multiple of the price passes",
			reply:     "Otros programas similares cuestan $891 o más.",
			course:    course,
			sessions:  eightSessions,
			wantValid: true,
		},
		{
			name:      "nil course with no claims passes",
			reply:     "Hola, soy Brenda.",
			course:    nil,
			wantValid: true,
		},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Check(tt.reply, tt.course, tt.sessions, tt.bonuses)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.Equal(t, tt.reply, got.Text)
			} else {
				assert.Equal(t, SafeParaphrase, got.Text)
				assert.NotEmpty(t, got.Contradictions)
			}
		})
	}
}

func TestValidatorMatchesSessionCountColumn(t *testing.T) {
	// Claim agrees with the session_count column while only part of the
	// sessions table is loaded.
	course := &catalog.Course{ID: "c", SessionCount: catalog.Num(8)}
	sessions := make([]catalog.Session, 3)

	got := NewValidator(nil).Check("Son 8 sesiones en total.", course, sessions, nil)
	assert.True(t, got.Valid)
}

func TestValidatorEmptyReply(t *testing.T) {
	got := NewValidator(nil).Check("   ", nil, nil, nil)
	assert.True(t, got.Valid)
}
