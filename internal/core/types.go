package core

import "bizcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	RelationshipType   = domain.RelationshipType
	PlanType           = domain.PlanType
	PlanStatus         = domain.PlanStatus
	DocumentCategory   = domain.DocumentCategory
	Severity           = domain.Severity
	Base               = domain.Base
	Contact            = domain.Contact
	BusinessPlan       = domain.BusinessPlan
	Milestone          = domain.Milestone
	Budget             = domain.Budget
	DocumentItem       = domain.DocumentItem
	UserProfile        = domain.UserProfile
	Preferences        = domain.Preferences
	OnboardingData     = domain.OnboardingData
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityContact      = domain.EntityContact
	EntityBusinessPlan = domain.EntityBusinessPlan
	EntityDocument     = domain.EntityDocument
	EntityUserProfile  = domain.EntityUserProfile
	EntityOnboarding   = domain.EntityOnboarding
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
