package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulsa-ai/brenda/internal/catalog"
)

func TestShowSyllabus(t *testing.T) {
	gw := &fakeGateway{course: testCourse(), sessions: testSessions(8)}
	reg := NewRegistry(gw, nil)

	res := reg.Run(context.Background(), ShowSyllabus, testInput())

	assert.Equal(t, TypeMultimedia, res.Type)
	assert.Contains(t, res.Content, "Experto en IA")
	assert.Contains(t, res.Content, "8 sesiones")
	// short view lists at most five items
	assert.Contains(t, res.Content, "y 3 sesiones más")
	require.Len(t, res.Resources, 1)
	assert.Equal(t, "document", res.Resources[0].Type)
	assert.Equal(t, "https://cdn.example.com/temario.pdf", res.Resources[0].URL)
}

func TestShowSyllabusWithoutURL(t *testing.T) {
	course := testCourse()
	course.SyllabusURL = nil
	gw := &fakeGateway{course: course, sessions: testSessions(3)}

	res := NewRegistry(gw, nil).Run(context.Background(), ShowSyllabus, testInput())

	assert.Equal(t, TypeText, res.Type)
	assert.Empty(t, res.Resources)
}

func TestShowPricingComparison(t *testing.T) {
	gw := &fakeGateway{course: testCourse()}

	res := NewRegistry(gw, nil).Run(context.Background(), ShowPricingComparison, testInput())

	assert.Equal(t, TypeText, res.Type)
	assert.Contains(t, res.Content, "$297 USD")
	assert.Contains(t, res.Content, "$1485 USD") // price x5
	assert.Contains(t, res.Content, "$2376 USD") // price x8
}

func TestShowPricingComparisonNoPrice(t *testing.T) {
	gw := &fakeGateway{course: &catalog.Course{ID: "curso-ia", Name: "Experto en IA"}}

	res := NewRegistry(gw, nil).Run(context.Background(), ShowPricingComparison, testInput())

	assert.Equal(t, safeCopyPricing, res.Content)
}

func TestSendFreeResources(t *testing.T) {
	gw := &fakeGateway{resources: []catalog.FreeResource{
		{ID: "r1", Name: "Guía de prompts", Type: "document", URL: "https://cdn.example.com/guia.pdf", Active: true},
		{ID: "r2", Name: "Video introductorio", Type: "video", URL: "https://cdn.example.com/intro.mp4", Active: true},
		{ID: "r3", Name: "Recurso retirado", Type: "document", URL: "https://cdn.example.com/old.pdf", Active: false},
	}}

	res := NewRegistry(gw, nil).Run(context.Background(), SendFreeResources, testInput())

	assert.Equal(t, TypeMultimedia, res.Type)
	assert.Contains(t, res.Content, "Guía de prompts")
	assert.NotContains(t, res.Content, "Recurso retirado")
	require.Len(t, res.Resources, 2)
	assert.Equal(t, "document", res.Resources[0].Type)
	assert.Equal(t, "video", res.Resources[1].Type)
}

func TestSendFreeResourcesEmpty(t *testing.T) {
	res := NewRegistry(&fakeGateway{}, nil).Run(context.Background(), SendFreeResources, testInput())

	assert.Equal(t, TypeText, res.Type)
	assert.Equal(t, safeCopyResources, res.Content)
	assert.Empty(t, res.Resources)
}

func TestSendPaymentInfo(t *testing.T) {
	gw := &fakeGateway{payment: &catalog.PaymentInfo{
		CompanyName:  "Impulsa IA SA de CV",
		BankName:     "BBVA",
		ClabeAccount: "012345678901234567",
		RFC:          "IIA240101AB1",
		Active:       true,
	}}

	res := NewRegistry(gw, nil).Run(context.Background(), SendPaymentInfo, testInput())

	assert.Equal(t, TypeText, res.Type)
	assert.Contains(t, res.Content, "012345678901234567")
	assert.Contains(t, res.Content, "BBVA")
	assert.Contains(t, res.Content, "Impulsa IA SA de CV")
	assert.Contains(t, res.Content, "IIA240101AB1")
}

func TestSendPaymentInfoInactive(t *testing.T) {
	gw := &fakeGateway{payment: &catalog.PaymentInfo{ClabeAccount: "0123", Active: false}}

	res := NewRegistry(gw, nil).Run(context.Background(), SendPaymentInfo, testInput())

	assert.Equal(t, safeCopyPayment, res.Content)
	assert.NotContains(t, res.Content, "0123")
}

func TestShowBonuses(t *testing.T) {
	expired := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	gw := &fakeGateway{bonuses: []catalog.Bonus{
		{ID: "b1", Name: "Plantillas de prompts", OriginalValue: catalog.Num(97), Active: true},
		{ID: "b2", Name: "Bono vencido", Active: true, ExpiresAt: &expired},
		{ID: "b3", Name: "Bono agotado", Active: true, MaxClaims: 10, CurrentClaims: 10},
		{ID: "b4", Name: "Sesión extra", Active: true, ExpiresAt: &future},
		{ID: "b5", Name: "Bono inactivo", Active: false},
	}}

	res := NewRegistry(gw, nil).Run(context.Background(), ShowBonuses, testInput())

	assert.Contains(t, res.Content, "Plantillas de prompts")
	assert.Contains(t, res.Content, "$97 USD")
	assert.Contains(t, res.Content, "Sesión extra")
	assert.NotContains(t, res.Content, "Bono vencido")
	assert.NotContains(t, res.Content, "Bono agotado")
	assert.NotContains(t, res.Content, "Bono inactivo")
}

func TestShowBonusesEmpty(t *testing.T) {
	res := NewRegistry(&fakeGateway{}, nil).Run(context.Background(), ShowBonuses, testInput())

	assert.Equal(t, safeCopyBonuses, res.Content)
}

func TestPresentLimitedOffer(t *testing.T) {
	future := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	gw := &fakeGateway{bonuses: []catalog.Bonus{
		{ID: "b1", Name: "Descuento de lanzamiento", Active: true, ExpiresAt: &future},
		{ID: "b2", Name: "Lugares limitados", Active: true, MaxClaims: 20, CurrentClaims: 15},
	}}

	res := NewRegistry(gw, nil).Run(context.Background(), PresentLimitedOffer, testInput())

	assert.Contains(t, res.Content, "15/09/2026")
	assert.Contains(t, res.Content, "quedan 5 lugares")
}

func TestContactAdvisorDirectly(t *testing.T) {
	res := NewRegistry(&fakeGateway{}, nil).Run(context.Background(), ContactAdvisorDirectly, testInput())

	assert.Equal(t, TypeContactFlow, res.Type)
	assert.Equal(t, AdvisorFlowPrompt, res.Content)
}

func TestHandleTimeObjection(t *testing.T) {
	gw := &fakeGateway{course: testCourse()}

	res := NewRegistry(gw, nil).Run(context.Background(), HandleTimeObjection, testInput())

	assert.Contains(t, res.Content, "8 sesiones")
	assert.Contains(t, res.Content, "1h 0m")
	assert.Contains(t, res.Content, "grabadas")
}

func TestHandleTimeObjectionZeroSessionCount(t *testing.T) {
	course := testCourse()
	course.SessionCount = catalog.Num(0)
	gw := &fakeGateway{course: course}

	res := NewRegistry(gw, nil).Run(context.Background(), HandleTimeObjection, testInput())

	assert.NotContains(t, res.Content, "Inf")
	assert.Contains(t, res.Content, "grabadas")
}

func TestSendPreview(t *testing.T) {
	gw := &fakeGateway{course: testCourse()}

	res := NewRegistry(gw, nil).Run(context.Background(), SendPreview, testInput())

	assert.Equal(t, TypeMultimedia, res.Type)
	require.Len(t, res.Resources, 1)
	assert.Equal(t, "link", res.Resources[0].Type)
	assert.Equal(t, "https://cursos.example.com/experto-ia", res.Resources[0].URL)
}
