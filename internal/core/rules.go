package core

import "bizcore/pkg/domain"

// Rule is the in-transaction evaluation contract implemented by the built-in policy set.
type Rule = domain.Rule

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// All shipped rules are advisory: they warn or log, never block a commit.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewBudgetOverrunRule())
	engine.Register(NewPlanDateOrderRule())
	engine.Register(NewDocumentSizeRule())
	return engine
}
