package core

import (
	"context"
	"fmt"

	"bizcore/pkg/domain"
)

// NewPlanDateOrderRule returns the advisory rule flagging business plans
// whose end date precedes their start date.
func NewPlanDateOrderRule() domain.Rule {
	return planDateOrderRule{}
}

type planDateOrderRule struct{}

func (planDateOrderRule) Name() string { return "plan_date_order" }

func (planDateOrderRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plan := range view.ListPlans() {
		if plan.StartDate == nil || plan.EndDate == nil {
			continue
		}
		if plan.EndDate.Before(*plan.StartDate) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plan_date_order",
				Severity: domain.SeverityWarn,
				Message: fmt.Sprintf("plan %q ends %s before it starts %s",
					plan.Title, plan.EndDate.Format("2006-01-02"), plan.StartDate.Format("2006-01-02")),
				Entity:   domain.EntityBusinessPlan,
				EntityID: plan.ID,
			})
		}
	}
	return res, nil
}
