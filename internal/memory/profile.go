package memory

import (
	"encoding/json"
	"time"
)

// Stage is the intake/dialogue state of one user.
type Stage string

const (
	StageInitial          Stage = "initial"
	StagePrivacyPending   Stage = "privacy_pending"
	StageNamePending      Stage = "name_pending"
	StageCoursePresenting Stage = "course_presenting"
	StageFreeDialogue     Stage = "free_dialogue"
	StageAdvisorHandoff   Stage = "advisor_handoff"
	StageClosed           Stage = "closed"
)

// Engagement is the coarse engagement level learned for a user.
type Engagement string

const (
	EngagementLow      Engagement = "low"
	EngagementMedium   Engagement = "medium"
	EngagementHigh     Engagement = "high"
	EngagementVeryHigh Engagement = "very_high"
)

// LogLimit bounds the per-user conversation log.
const LogLimit = 20

// MessageRecord is one entry of the per-user conversation log.
type MessageRecord struct {
	Role      string          `json:"role"` // user, assistant, system
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Tools     []string        `json:"tools,omitempty"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
}

// UserProfile is the durable per-user record. All mutation helpers keep the
// documented invariants: privacy acceptance is monotonic, the lead score is
// clamped to [0,100], trait sets grow by idempotent union, and the log never
// exceeds LogLimit entries.
type UserProfile struct {
	UserID        string `json:"user_id"`
	FirstName     string `json:"first_name"`
	PreferredName string `json:"preferred_name,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`

	PrivacyAccepted   bool       `json:"privacy_accepted"`
	PrivacyAcceptedAt *time.Time `json:"privacy_accepted_at,omitempty"`

	BrendaIntroduced bool `json:"brenda_introduced"`
	NameCollected    bool `json:"name_collected"`
	CoursePresented  bool `json:"course_presented"`

	SelectedCourseID string `json:"selected_course_id,omitempty"`
	CampaignTag      string `json:"campaign_tag,omitempty"`

	Stage        Stage  `json:"stage"`
	AdvisorState string `json:"advisor_state,omitempty"`

	Role               string     `json:"role,omitempty"`
	Industry           string     `json:"industry,omitempty"`
	Interests          []string   `json:"interests,omitempty"`
	Challenges         []string   `json:"challenges,omitempty"`
	Objections         []string   `json:"objections,omitempty"`
	BuyingSignals      []string   `json:"buying_signals,omitempty"`
	CommunicationStyle string     `json:"communication_style,omitempty"`
	EngagementLevel    Engagement `json:"engagement_level,omitempty"`
	DecisionTimeline   string     `json:"decision_timeline,omitempty"`
	LeadScore          int        `json:"lead_score"`

	TotalMessages    int            `json:"total_messages"`
	ToolsUsed        map[string]int `json:"tools_used,omitempty"`
	FailedTools      map[string]int `json:"failed_tools,omitempty"`
	ResourcesSent    int            `json:"resources_sent"`
	FirstInteraction time.Time      `json:"first_interaction"`
	LastInteraction  time.Time      `json:"last_interaction"`

	Log []MessageRecord `json:"log,omitempty"`
}

// NewUserProfile creates a profile for a first inbound event.
func NewUserProfile(userID, firstName, username string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:           userID,
		FirstName:        firstName,
		Username:         username,
		Stage:            StageInitial,
		ToolsUsed:        make(map[string]int),
		FailedTools:      make(map[string]int),
		FirstInteraction: now,
		LastInteraction:  now,
	}
}

// DisplayName prefers the user-provided name over the messenger one.
func (p *UserProfile) DisplayName() string {
	if p.PreferredName != "" {
		return p.PreferredName
	}
	return p.FirstName
}

// AcceptPrivacy marks consent. Once accepted it can never be revoked here.
func (p *UserProfile) AcceptPrivacy(at time.Time) {
	if p.PrivacyAccepted {
		return
	}
	p.PrivacyAccepted = true
	p.PrivacyAcceptedAt = &at
}

// AddLeadScore adjusts the lead score, clamped to [0,100].
func (p *UserProfile) AddLeadScore(delta int) {
	p.LeadScore += delta
	if p.LeadScore < 0 {
		p.LeadScore = 0
	}
	if p.LeadScore > 100 {
		p.LeadScore = 100
	}
}

// RecordToolUse counts a successful tool emission.
func (p *UserProfile) RecordToolUse(name string) {
	if p.ToolsUsed == nil {
		p.ToolsUsed = make(map[string]int)
	}
	p.ToolsUsed[name]++
}

// RecordToolFailure marks a tool that failed so the policy may retry it.
func (p *UserProfile) RecordToolFailure(name string) {
	if p.FailedTools == nil {
		p.FailedTools = make(map[string]int)
	}
	p.FailedTools[name]++
}

// AppendLog adds a record and truncates to the newest LogLimit entries.
func (p *UserProfile) AppendLog(rec MessageRecord) {
	p.Log = append(p.Log, rec)
	if excess := len(p.Log) - LogLimit; excess > 0 {
		p.Log = p.Log[excess:]
	}
}

// RecentWindow returns the newest n log entries, oldest first.
func (p *UserProfile) RecentWindow(n int) []MessageRecord {
	if n <= 0 || len(p.Log) == 0 {
		return nil
	}
	if len(p.Log) <= n {
		return p.Log
	}
	return p.Log[len(p.Log)-n:]
}

// AttributeDelta is an idempotent update of learned attributes. Scalar
// fields overwrite only when non-empty; set fields merge by union.
type AttributeDelta struct {
	Role               string     `json:"role,omitempty"`
	Industry           string     `json:"industry,omitempty"`
	CommunicationStyle string     `json:"communication_style,omitempty"`
	DecisionTimeline   string     `json:"decision_timeline,omitempty"`
	EngagementLevel    Engagement `json:"engagement_level,omitempty"`
	Interests          []string   `json:"interests,omitempty"`
	Challenges         []string   `json:"challenges,omitempty"`
	Objections         []string   `json:"objections,omitempty"`
	BuyingSignals      []string   `json:"buying_signals,omitempty"`
	LeadScoreDelta     int        `json:"lead_score_delta,omitempty"`
}

// ApplyDelta merges the delta into the profile.
func (p *UserProfile) ApplyDelta(d AttributeDelta) {
	if d.Role != "" {
		p.Role = d.Role
	}
	if d.Industry != "" {
		p.Industry = d.Industry
	}
	if d.CommunicationStyle != "" {
		p.CommunicationStyle = d.CommunicationStyle
	}
	if d.DecisionTimeline != "" {
		p.DecisionTimeline = d.DecisionTimeline
	}
	if d.EngagementLevel != "" {
		p.EngagementLevel = d.EngagementLevel
	}
	p.Interests = mergeSet(p.Interests, d.Interests)
	p.Challenges = mergeSet(p.Challenges, d.Challenges)
	p.Objections = mergeSet(p.Objections, d.Objections)
	p.BuyingSignals = mergeSet(p.BuyingSignals, d.BuyingSignals)
	if d.LeadScoreDelta != 0 {
		p.AddLeadScore(d.LeadScoreDelta)
	}
}

func mergeSet(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range incoming {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		existing = append(existing, v)
	}
	return existing
}

// Clone returns a deep copy safe to hand to tools and prompt builders.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Interests = append([]string(nil), p.Interests...)
	cp.Challenges = append([]string(nil), p.Challenges...)
	cp.Objections = append([]string(nil), p.Objections...)
	cp.BuyingSignals = append([]string(nil), p.BuyingSignals...)
	cp.Log = append([]MessageRecord(nil), p.Log...)
	cp.ToolsUsed = make(map[string]int, len(p.ToolsUsed))
	for k, v := range p.ToolsUsed {
		cp.ToolsUsed[k] = v
	}
	cp.FailedTools = make(map[string]int, len(p.FailedTools))
	for k, v := range p.FailedTools {
		cp.FailedTools[k] = v
	}
	if p.PrivacyAcceptedAt != nil {
		at := *p.PrivacyAcceptedAt
		cp.PrivacyAcceptedAt = &at
	}
	return &cp
}
