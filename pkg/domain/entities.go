// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by bizcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityContact identifies a business contact record.
	EntityContact EntityType = "contact"
	// EntityBusinessPlan identifies a business plan record.
	EntityBusinessPlan EntityType = "business_plan"
	// EntityDocument identifies a stored document record.
	EntityDocument EntityType = "document"
	// EntityUserProfile identifies the singleton user profile.
	EntityUserProfile EntityType = "user_profile"
	// EntityOnboarding identifies the singleton onboarding data record.
	EntityOnboarding EntityType = "onboarding"
)

// RelationshipType categorises how a contact relates to the business.
type RelationshipType string

// Canonical contact relationship categories.
const (
	RelationshipClient   RelationshipType = "client"
	RelationshipPartner  RelationshipType = "partner"
	RelationshipSupplier RelationshipType = "supplier"
	RelationshipInvestor RelationshipType = "investor"
	RelationshipMentor   RelationshipType = "mentor"
	RelationshipOther    RelationshipType = "other"
)

// RelationshipTypes lists every valid relationship category.
func RelationshipTypes() []RelationshipType {
	return []RelationshipType{
		RelationshipClient,
		RelationshipPartner,
		RelationshipSupplier,
		RelationshipInvestor,
		RelationshipMentor,
		RelationshipOther,
	}
}

// Valid reports whether the relationship type is one of the canonical values.
func (r RelationshipType) Valid() bool {
	for _, known := range RelationshipTypes() {
		if r == known {
			return true
		}
	}
	return false
}

// PlanType enumerates the supported business plan categories.
type PlanType string

// Canonical business plan types.
const (
	PlanTypeStrategic   PlanType = "strategic"
	PlanTypeOperational PlanType = "operational"
	PlanTypeFinancial   PlanType = "financial"
	PlanTypeMarketing   PlanType = "marketing"
)

// Valid reports whether the plan type is one of the canonical values.
func (p PlanType) Valid() bool {
	switch p {
	case PlanTypeStrategic, PlanTypeOperational, PlanTypeFinancial, PlanTypeMarketing:
		return true
	}
	return false
}

// PlanStatus enumerates business plan workflow states.
type PlanStatus string

// Canonical business plan statuses.
const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusPaused    PlanStatus = "paused"
	PlanStatusCompleted PlanStatus = "completed"
)

// Valid reports whether the plan status is one of the canonical values.
func (p PlanStatus) Valid() bool {
	switch p {
	case PlanStatusDraft, PlanStatusActive, PlanStatusPaused, PlanStatusCompleted:
		return true
	}
	return false
}

// DocumentCategory enumerates the supported document classifications.
type DocumentCategory string

// Canonical document categories.
const (
	DocumentCategoryOfficial  DocumentCategory = "official"
	DocumentCategoryLicense   DocumentCategory = "license"
	DocumentCategoryContract  DocumentCategory = "contract"
	DocumentCategoryFinancial DocumentCategory = "financial"
	DocumentCategoryOther     DocumentCategory = "other"
)

// Valid reports whether the category is one of the canonical values.
func (c DocumentCategory) Valid() bool {
	switch c {
	case DocumentCategoryOfficial, DocumentCategoryLicense, DocumentCategoryContract,
		DocumentCategoryFinancial, DocumentCategoryOther:
		return true
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact represents a business relationship tracked by the dashboard.
type Contact struct {
	Base
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone,omitempty"`
	Company          string           `json:"company,omitempty"`
	RelationshipType RelationshipType `json:"relationship_type"`
	ProjectIDs       []string         `json:"project_ids"`
}

// Milestone marks a dated checkpoint within a business plan.
type Milestone struct {
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Completed bool       `json:"completed"`
}

// Budget captures plan funding allocation. Spent is deliberately not
// constrained to stay within Allocated; overruns are reported by an
// advisory rule and visualised upstream.
type Budget struct {
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
	Currency  string  `json:"currency"`
}

// BusinessPlan represents a strategic, operational, financial or marketing plan.
type BusinessPlan struct {
	Base
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Type        PlanType    `json:"type"`
	Status      PlanStatus  `json:"status"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Goals       []string    `json:"goals"`
	Milestones  []Milestone `json:"milestones"`
	Budget      Budget      `json:"budget"`
}

// DocumentItem represents an uploaded business document. Content holds the
// original payload as a self-describing data URI and is immutable once
// stored; ContentRef is set when the payload has been archived to a blob
// backend.
type DocumentItem struct {
	Base
	Filename   string           `json:"filename"`
	MimeType   string           `json:"mime_type"`
	SizeBytes  int64            `json:"size_bytes"`
	Category   DocumentCategory `json:"category"`
	Notes      *string          `json:"notes,omitempty"`
	Content    string           `json:"content,omitempty"`
	ContentRef *string          `json:"content_ref,omitempty"`
}

// Preferences stores per-installation presentation settings.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// UserProfile is the singleton owner profile for an installation.
type UserProfile struct {
	Base
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	CompanyName    string      `json:"company_name,omitempty"`
	CompanyRole    string      `json:"company_role,omitempty"`
	Preferences    Preferences `json:"preferences"`
	ProfilePicture *string     `json:"profile_picture,omitempty"`
}

// OnboardingData captures the business context collected during first-run
// onboarding. Dashboards consume it read-only; known fields are typed and
// anything else rides in Extra.
type OnboardingData struct {
	BusinessName  string         `json:"business_name"`
	Industry      string         `json:"industry,omitempty"`
	BusinessStage string         `json:"business_stage,omitempty"`
	TeamSize      int            `json:"team_size,omitempty"`
	PrimaryGoal   string         `json:"primary_goal,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations in evaluation order.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
