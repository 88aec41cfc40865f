package core

import (
	"context"
	"fmt"
	"time"

	"bizcore/internal/diaglog"
	"bizcore/pkg/apperr"
	"bizcore/pkg/domain"
)

const componentPlans = "business_plans"

// PlanInput carries caller-supplied fields for plan creation.
type PlanInput struct {
	Title       string
	Description string
	Type        PlanType
	Status      PlanStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Goals       []string
	Milestones  []Milestone
	Budget      Budget
}

// PlanPatch carries partial fields for plan update; nil means "leave unchanged".
type PlanPatch struct {
	Title       *string
	Description *string
	Type        *PlanType
	Status      *PlanStatus
	StartDate   **time.Time
	EndDate     **time.Time
	Goals       *[]string
	Milestones  *[]Milestone
	Budget      *Budget
}

// ListPlans returns every business plan in insertion order.
func (s *Service) ListPlans() []BusinessPlan { return s.store.ListPlans() }

// GetPlan returns the plan with the given id; the boolean is false when absent.
func (s *Service) GetPlan(id string) (BusinessPlan, bool) { return s.store.GetPlan(id) }

// PlansByType returns plans with the given category.
func (s *Service) PlansByType(pt PlanType) []BusinessPlan {
	var out []BusinessPlan
	for _, p := range s.store.ListPlans() {
		if p.Type == pt {
			out = append(out, p)
		}
	}
	return out
}

// PlansByStatus returns plans in the given workflow state.
func (s *Service) PlansByStatus(st PlanStatus) []BusinessPlan {
	var out []BusinessPlan
	for _, p := range s.store.ListPlans() {
		if p.Status == st {
			out = append(out, p)
		}
	}
	return out
}

// SearchPlans performs case-insensitive substring matching over title and
// description. An empty query matches everything.
func (s *Service) SearchPlans(query string) []BusinessPlan {
	if blank(query) {
		return s.store.ListPlans()
	}
	var out []BusinessPlan
	for _, p := range s.store.ListPlans() {
		if containsFold(p.Title, query) || containsFold(p.Description, query) {
			out = append(out, p)
		}
	}
	return out
}

func validatePlanInput(input PlanInput) error {
	if blank(input.Title) {
		return apperr.NewRequired("title")
	}
	if input.Type == "" {
		return apperr.NewRequired("type")
	}
	if !input.Type.Valid() {
		return apperr.NewValidation("type", fmt.Sprintf("unknown plan type %q", input.Type))
	}
	if input.Status != "" && !input.Status.Valid() {
		return apperr.NewValidation("status", fmt.Sprintf("unknown plan status %q", input.Status))
	}
	return nil
}

// CreatePlan validates input and persists a new business plan. Status
// defaults to draft when unset.
func (s *Service) CreatePlan(ctx context.Context, input PlanInput) (BusinessPlan, error) {
	ctx, finish := s.begin(ctx, "plans.create")
	var created BusinessPlan
	err := func() error {
		if err := validatePlanInput(input); err != nil {
			return err
		}
		plan := BusinessPlan{
			Title:       input.Title,
			Description: input.Description,
			Type:        input.Type,
			Status:      input.Status,
			StartDate:   input.StartDate,
			EndDate:     input.EndDate,
			Goals:       append([]string{}, input.Goals...),
			Milestones:  append([]Milestone{}, input.Milestones...),
			Budget:      input.Budget,
		}
		if plan.Status == "" {
			plan.Status = domain.PlanStatusDraft
		}
		return s.commit(ctx, "plans.create", func(tx Transaction) error {
			created = tx.SavePlan(plan)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return BusinessPlan{}, err
	}
	s.log.TrackDataOperation(componentPlans, "create", string(EntityBusinessPlan), created.ID)
	return created, nil
}

// UpdatePlan merges patch fields over the stored plan, preserving id and
// CreatedAt and refreshing UpdatedAt.
func (s *Service) UpdatePlan(ctx context.Context, id string, patch PlanPatch) (BusinessPlan, error) {
	ctx, finish := s.begin(ctx, "plans.update")
	var updated BusinessPlan
	err := s.commit(ctx, "plans.update", func(tx Transaction) error {
		existing, ok := tx.FindPlan(id)
		if !ok {
			return apperr.NewNotFound(string(EntityBusinessPlan), id)
		}
		merged := existing
		if patch.Title != nil {
			merged.Title = *patch.Title
		}
		if patch.Description != nil {
			merged.Description = *patch.Description
		}
		if patch.Type != nil {
			if !patch.Type.Valid() {
				return apperr.NewValidation("type", fmt.Sprintf("unknown plan type %q", *patch.Type))
			}
			merged.Type = *patch.Type
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return apperr.NewValidation("status", fmt.Sprintf("unknown plan status %q", *patch.Status))
			}
			merged.Status = *patch.Status
		}
		if patch.StartDate != nil {
			merged.StartDate = *patch.StartDate
		}
		if patch.EndDate != nil {
			merged.EndDate = *patch.EndDate
		}
		if patch.Goals != nil {
			merged.Goals = append([]string(nil), (*patch.Goals)...)
		}
		if patch.Milestones != nil {
			merged.Milestones = append([]Milestone(nil), (*patch.Milestones)...)
		}
		if patch.Budget != nil {
			merged.Budget = *patch.Budget
		}
		tx.UpdatePlan(merged)
		updated, _ = tx.FindPlan(id)
		return nil
	})
	finish(err)
	if err != nil {
		return BusinessPlan{}, err
	}
	s.log.TrackDataOperation(componentPlans, "update", string(EntityBusinessPlan), id)
	return updated, nil
}

// DeletePlan removes the plan, failing with a not-found error when absent.
// The deleted title is logged for audit readability.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	ctx, finish := s.begin(ctx, "plans.delete")
	var title string
	err := s.commit(ctx, "plans.delete", func(tx Transaction) error {
		existing, ok := tx.FindPlan(id)
		if !ok {
			return apperr.NewNotFound(string(EntityBusinessPlan), id)
		}
		title = existing.Title
		tx.RemovePlan(id)
		return nil
	})
	finish(err)
	if err != nil {
		return err
	}
	s.log.Info(componentPlans, "delete", fmt.Sprintf("deleted plan %q", title),
		diaglog.DataOperation("delete", string(EntityBusinessPlan), id))
	return nil
}
