package catalog

import "time"

// Course is a read-only projection of one catalog course.
type Course struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	ShortDescription string     `json:"short_description"`
	LongDescription  *string    `json:"long_description,omitempty"`
	Level            *string    `json:"level,omitempty"`
	Price            FlexNumber `json:"price"`
	Currency         string     `json:"currency"`
	TotalDurationMin FlexNumber `json:"total_duration_min"`
	SessionCount     FlexNumber `json:"session_count"`
	Status           string     `json:"status"`
	SubthemeID       *string    `json:"subtheme_id,omitempty"`
	SyllabusURL      *string    `json:"syllabus_url,omitempty"`
	CourseURL        *string    `json:"course_url,omitempty"`
	PurchaseURL      *string    `json:"purchase_url,omitempty"`
	AudienceCategory *string    `json:"audience_category,omitempty"`
}

// Session is one scheduled unit of a course.
type Session struct {
	ID              string     `json:"id"`
	CourseID        string     `json:"course_id"`
	SessionIndex    int        `json:"session_index"`
	Title           string     `json:"title"`
	Objective       *string    `json:"objective,omitempty"`
	DurationMinutes FlexNumber `json:"duration_minutes"`
	Modality        *string    `json:"modality,omitempty"`
}

// Practice is a hands-on exercise owned by a session.
type Practice struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id"`
	PracticeIndex int        `json:"practice_index"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	Duration      FlexNumber `json:"duration"`
	IsMandatory   bool       `json:"is_mandatory"`
	ResourceType  *string    `json:"resource_type,omitempty"`
}

// Deliverable is an artifact the student produces or receives in a session.
type Deliverable struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"session_id"`
	Name        string  `json:"name"`
	Type        *string `json:"type,omitempty"`
	ResourceURL *string `json:"resource_url,omitempty"`
	IsMandatory bool    `json:"is_mandatory"`
}

// Bonus is a limited promotional extra attached to a course.
type Bonus struct {
	ID            string     `json:"id"`
	CourseID      string     `json:"course_id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	OriginalValue FlexNumber `json:"original_value"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MaxClaims     int        `json:"max_claims"`
	CurrentClaims int        `json:"current_claims"`
	Active        bool       `json:"active"`
}

// RemainingClaims reports how many bonus slots are still open.
func (b Bonus) RemainingClaims() int {
	remaining := b.MaxClaims - b.CurrentClaims
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FreeResource is a no-cost downloadable attached to a course.
type FreeResource struct {
	ID          string  `json:"id"`
	CourseID    string  `json:"course_id"`
	Name        string  `json:"resource_name"`
	Type        string  `json:"resource_type"` // document, video, template, guide
	URL         string  `json:"resource_url"`
	Description *string `json:"resource_description,omitempty"`
	Active      bool    `json:"active"`
}

// PaymentInfo carries the bank transfer details shown on purchase intent.
type PaymentInfo struct {
	CompanyName     string  `json:"company_name"`
	BankName        string  `json:"bank_name"`
	ClabeAccount    string  `json:"clabe_account"`
	RFC             string  `json:"rfc"`
	CFDIUsage       *string `json:"cfdi_usage,omitempty"`
	CFDIDescription *string `json:"cfdi_description,omitempty"`
	Active          bool    `json:"is_active"`
}

// Interaction is one append-only row of the interaction log.
type Interaction struct {
	LeadID          string            `json:"lead_id"`
	CourseID        string            `json:"course_id"`
	InteractionType string            `json:"interaction_type"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
