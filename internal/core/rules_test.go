package core_test

import (
	"context"
	"testing"
	"time"

	core "bizcore/internal/core"
	"bizcore/pkg/domain"
)

type fakeView struct {
	contacts  []domain.Contact
	plans     []domain.BusinessPlan
	documents []domain.DocumentItem
}

func (v fakeView) ListContacts() []domain.Contact       { return v.contacts }
func (v fakeView) ListPlans() []domain.BusinessPlan     { return v.plans }
func (v fakeView) ListDocuments() []domain.DocumentItem { return v.documents }

func (v fakeView) FindContact(id string) (domain.Contact, bool) {
	for _, c := range v.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contact{}, false
}

func (v fakeView) FindPlan(id string) (domain.BusinessPlan, bool) {
	for _, p := range v.plans {
		if p.ID == id {
			return p, true
		}
	}
	return domain.BusinessPlan{}, false
}

func (v fakeView) FindDocument(id string) (domain.DocumentItem, bool) {
	for _, d := range v.documents {
		if d.ID == id {
			return d, true
		}
	}
	return domain.DocumentItem{}, false
}

func TestBudgetOverrunRule(t *testing.T) {
	rule := core.NewBudgetOverrunRule()
	view := fakeView{plans: []domain.BusinessPlan{
		{Base: domain.Base{ID: "p1"}, Title: "Fine", Budget: domain.Budget{Allocated: 100, Spent: 50}},
		{Base: domain.Base{ID: "p2"}, Title: "Over", Budget: domain.Budget{Allocated: 100, Spent: 150, Currency: "EUR"}},
		{Base: domain.Base{ID: "p3"}, Title: "No budget", Budget: domain.Budget{Allocated: 0, Spent: 10}},
	}}
	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected exactly the overrun flagged, got %+v", res.Violations)
	}
	v := res.Violations[0]
	if v.Severity != domain.SeverityWarn || v.EntityID != "p2" {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if res.HasBlocking() {
		t.Fatalf("budget overruns are advisory, never blocking")
	}
}

func TestPlanDateOrderRule(t *testing.T) {
	rule := core.NewPlanDateOrderRule()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	endBefore := start.AddDate(0, -1, 0)
	endAfter := start.AddDate(0, 1, 0)
	view := fakeView{plans: []domain.BusinessPlan{
		{Base: domain.Base{ID: "ok"}, Title: "Ok", StartDate: &start, EndDate: &endAfter},
		{Base: domain.Base{ID: "bad"}, Title: "Backwards", StartDate: &start, EndDate: &endBefore},
		{Base: domain.Base{ID: "open"}, Title: "Open-ended", StartDate: &start},
	}}
	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "bad" {
		t.Fatalf("expected only the backwards plan flagged, got %+v", res.Violations)
	}
}

func TestDocumentSizeRule(t *testing.T) {
	rule := core.NewDocumentSizeRule()
	ref := "documents/big"
	view := fakeView{documents: []domain.DocumentItem{
		{Base: domain.Base{ID: "small"}, Filename: "s", SizeBytes: 1024},
		{Base: domain.Base{ID: "big"}, Filename: "b", SizeBytes: core.DocumentSizeNoticeBytes + 1},
		{Base: domain.Base{ID: "archived"}, Filename: "a", SizeBytes: core.DocumentSizeNoticeBytes + 1, ContentRef: &ref},
	}}
	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "big" {
		t.Fatalf("expected only the oversized inline document flagged, got %+v", res.Violations)
	}
	if res.Violations[0].Severity != domain.SeverityLog {
		t.Fatalf("size notices are log-severity, got %s", res.Violations[0].Severity)
	}
}

func TestDefaultRulesEngineIsAdvisoryOnly(t *testing.T) {
	engine := core.NewDefaultRulesEngine()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	view := fakeView{
		plans: []domain.BusinessPlan{{
			Base:      domain.Base{ID: "p"},
			Title:     "Troubled",
			StartDate: &start,
			EndDate:   &end,
			Budget:    domain.Budget{Allocated: 1, Spent: 2},
		}},
		documents: []domain.DocumentItem{{
			Base: domain.Base{ID: "d"}, Filename: "big", SizeBytes: core.DocumentSizeNoticeBytes + 1,
		}},
	}
	res, err := engine.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 3 {
		t.Fatalf("expected all three shipped rules to fire, got %+v", res.Violations)
	}
	if res.HasBlocking() {
		t.Fatalf("shipped rules must never block a commit")
	}
}
