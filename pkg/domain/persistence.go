package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. The store is deliberately dumb:
// SaveContact appends without uniqueness checks and the Update* operations
// are silent no-ops when the id is absent. Validation, duplicate detection
// and absence handling are service-layer concerns.
type Transaction interface {
	Snapshot() TransactionView
	SaveContact(Contact) Contact
	UpdateContact(Contact) bool
	RemoveContact(id string) bool
	SavePlan(BusinessPlan) BusinessPlan
	UpdatePlan(BusinessPlan) bool
	RemovePlan(id string) bool
	SaveDocument(DocumentItem) DocumentItem
	UpdateDocument(DocumentItem) bool
	RemoveDocument(id string) bool
	SetProfile(UserProfile) UserProfile
	ClearProfile()
	SetOnboarding(OnboardingData)
	ClearOnboarding()
	FindContact(id string) (Contact, bool)
	FindPlan(id string) (BusinessPlan, bool)
	FindDocument(id string) (DocumentItem, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	RuleView
	Profile() (UserProfile, bool)
	Onboarding() (OnboardingData, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetContact(id string) (Contact, bool)
	ListContacts() []Contact
	GetPlan(id string) (BusinessPlan, bool)
	ListPlans() []BusinessPlan
	GetDocument(id string) (DocumentItem, bool)
	ListDocuments() []DocumentItem
	GetProfile() (UserProfile, bool)
	GetOnboarding() (OnboardingData, bool)
}
