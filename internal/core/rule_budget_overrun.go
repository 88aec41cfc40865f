package core

import (
	"context"
	"fmt"

	"bizcore/pkg/domain"
)

// NewBudgetOverrunRule returns the advisory rule flagging business plans
// whose spend exceeds the allocated budget.
func NewBudgetOverrunRule() domain.Rule {
	return budgetOverrunRule{}
}

type budgetOverrunRule struct{}

func (budgetOverrunRule) Name() string { return "budget_overrun" }

func (budgetOverrunRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plan := range view.ListPlans() {
		if plan.Budget.Allocated <= 0 {
			continue
		}
		if plan.Budget.Spent > plan.Budget.Allocated {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "budget_overrun",
				Severity: domain.SeverityWarn,
				Message: fmt.Sprintf("plan %q over budget: spent %.2f of %.2f %s",
					plan.Title, plan.Budget.Spent, plan.Budget.Allocated, plan.Budget.Currency),
				Entity:   domain.EntityBusinessPlan,
				EntityID: plan.ID,
			})
		}
	}
	return res, nil
}
