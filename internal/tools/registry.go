package tools

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

var tracer = otel.Tracer("brenda.internal.tools")

// ID names one persuasion tool.
type ID string

const (
	ShowSyllabus           ID = "show_syllabus"
	SendPreview            ID = "send_preview"
	SendFreeResources      ID = "send_free_resources"
	ShowPricingComparison  ID = "show_pricing_comparison"
	ShowBonuses            ID = "show_bonuses"
	ShowTestimonials       ID = "show_testimonials"
	ShowGuarantee          ID = "show_guarantee"
	ShowCompetitorCompare  ID = "show_competitor_comparison"
	HandleTimeObjection    ID = "handle_time_objection"
	PresentLimitedOffer    ID = "present_limited_offer"
	PersonalizeByBudget    ID = "personalize_by_budget"
	ShowSuccessCases       ID = "show_similar_success_cases"
	ShowSocialProof        ID = "show_social_proof"
	DetectAutomationNeeds  ID = "detect_automation_needs"
	CalculatePersonalROI   ID = "calculate_personal_roi"
	SchedulePersonalDemo   ID = "schedule_personalized_demo"
	SendPaymentInfo        ID = "send_payment_info"
	ConnectToCommunity     ID = "connect_to_community"
	GamificationOverview   ID = "gamification_overview"
	ResultsTimeline        ID = "results_timeline"
	RecommendTools         ID = "recommend_tools"
	ContactAdvisorDirectly ID = "contact_advisor_directly"
	ScheduleFollowup       ID = "schedule_followup"
)

// ObjectionSet is the subset the policy allows while the user is objecting.
var ObjectionSet = map[ID]bool{
	ShowPricingComparison: true,
	ShowSuccessCases:      true,
	ShowGuarantee:         true,
	HandleTimeObjection:   true,
	ShowCompetitorCompare: true,
	PersonalizeByBudget:   true,
	CalculatePersonalROI:  true,
	ShowTestimonials:      true,
}

// ClosingSet is prioritised when the user is ready to buy.
var ClosingSet = map[ID]bool{
	SendPaymentInfo:        true,
	ContactAdvisorDirectly: true,
	SchedulePersonalDemo:   true,
}

// ResultType tags what a tool produced.
type ResultType string

const (
	TypeText        ResultType = "text"
	TypeMultimedia  ResultType = "multimedia"
	TypeContactFlow ResultType = "contact_flow"
	TypeError       ResultType = "error"
)

// Resource is one attachment a tool may return.
type Resource struct {
	Type    string `json:"type"` // document, video, link
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Result is the outcome of one tool invocation. Tools never touch the
// messenger; results flow to the composer.
type Result struct {
	Tool      ID         `json:"tool"`
	Type      ResultType `json:"type"`
	Content   string     `json:"content"`
	Resources []Resource `json:"resources,omitempty"`
	// Degraded marks a safe-copy fallback: the text still reaches the
	// user, but the material was not delivered, so the run counts as a
	// failure and stays retryable.
	Degraded bool `json:"degraded,omitempty"`
}

// degraded wraps the fixed safe copy a tool falls back to when its
// catalog data is missing or unavailable.
func degraded(content string) Result {
	return Result{Type: TypeText, Content: content, Degraded: true}
}

// Input carries the per-turn context a tool reads.
type Input struct {
	UserID   string
	CourseID string
	Profile  *memory.UserProfile
}

// Func is one tool implementation. Implementations query the catalog,
// assemble copy only from returned data, and fall back to fixed safe copy
// when the data is missing.
type Func func(ctx context.Context, in Input) Result

// Registry holds every registered tool and runs them against the catalog.
type Registry struct {
	catalog catalog.Gateway
	logger  *logging.Logger
	funcs   map[ID]Func
}

// NewRegistry builds the full tool set.
func NewRegistry(gateway catalog.Gateway, logger *logging.Logger) *Registry {
	if gateway == nil {
		panic("tools: catalog gateway is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Registry{catalog: gateway, logger: logger, funcs: make(map[ID]Func)}
	r.register()
	return r
}

func (r *Registry) register() {
	r.funcs[ShowSyllabus] = r.showSyllabus
	r.funcs[SendPreview] = r.sendPreview
	r.funcs[SendFreeResources] = r.sendFreeResources
	r.funcs[ShowPricingComparison] = r.showPricingComparison
	r.funcs[ShowBonuses] = r.showBonuses
	r.funcs[ShowTestimonials] = r.showTestimonials
	r.funcs[ShowGuarantee] = r.showGuarantee
	r.funcs[ShowCompetitorCompare] = r.showCompetitorComparison
	r.funcs[HandleTimeObjection] = r.handleTimeObjection
	r.funcs[PresentLimitedOffer] = r.presentLimitedOffer
	r.funcs[PersonalizeByBudget] = r.personalizeByBudget
	r.funcs[ShowSuccessCases] = r.showSuccessCases
	r.funcs[ShowSocialProof] = r.showSocialProof
	r.funcs[DetectAutomationNeeds] = r.detectAutomationNeeds
	r.funcs[CalculatePersonalROI] = r.calculatePersonalROI
	r.funcs[SchedulePersonalDemo] = r.schedulePersonalDemo
	r.funcs[SendPaymentInfo] = r.sendPaymentInfo
	r.funcs[ConnectToCommunity] = r.connectToCommunity
	r.funcs[GamificationOverview] = r.gamificationOverview
	r.funcs[ResultsTimeline] = r.resultsTimeline
	r.funcs[RecommendTools] = r.recommendTools
	r.funcs[ContactAdvisorDirectly] = r.contactAdvisorDirectly
	r.funcs[ScheduleFollowup] = r.scheduleFollowup
}

// Known reports whether id names a registered tool.
func (r *Registry) Known(id ID) bool {
	_, ok := r.funcs[id]
	return ok
}

// Run executes one tool. Successful runs append an interaction-log row and
// record the tool name into the profile's usage counters; errors and
// degraded safe-copy runs are recorded as failures so the policy can retry
// them later.
func (r *Registry) Run(ctx context.Context, id ID, in Input) Result {
	ctx, span := tracer.Start(ctx, "tools.run")
	span.SetAttributes(attribute.String("brenda.tool", string(id)))
	defer span.End()

	fn, ok := r.funcs[id]
	if !ok {
		r.logger.Error("unknown tool requested", "tool", string(id))
		if in.Profile != nil {
			in.Profile.RecordToolFailure(string(id))
		}
		return Result{Tool: id, Type: TypeError}
	}

	res := fn(ctx, in)
	res.Tool = id

	if res.Type == TypeError || res.Degraded {
		if in.Profile != nil {
			in.Profile.RecordToolFailure(string(id))
		}
		return res
	}

	if in.Profile != nil {
		in.Profile.RecordToolUse(string(id))
		if id == SendFreeResources || id == SendPreview {
			in.Profile.ResourcesSent++
		}
	}
	if err := r.catalog.LogInteraction(ctx, catalog.Interaction{
		LeadID:          in.UserID,
		CourseID:        in.CourseID,
		InteractionType: string(id),
	}); err != nil {
		// The reply already succeeded; losing the analytics row is not
		// a user-facing failure.
		r.logger.Warn("interaction log append failed", "tool", string(id), "error", err.Error())
	}
	return res
}

// course loads the course projection, tolerating a missing row.
func (r *Registry) course(ctx context.Context, courseID string) *catalog.Course {
	if courseID == "" {
		return nil
	}
	c, err := r.catalog.GetCourse(ctx, courseID)
	if err != nil {
		r.logger.Warn("course lookup failed", "course_id", courseID, "error", err.Error())
		return nil
	}
	return c
}
