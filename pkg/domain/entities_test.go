package domain

import "testing"

func TestRelationshipTypeValid(t *testing.T) {
	for _, rt := range RelationshipTypes() {
		if !rt.Valid() {
			t.Fatalf("%s should be valid", rt)
		}
	}
	if RelationshipType("frenemy").Valid() {
		t.Fatalf("unknown relationship type accepted")
	}
	if RelationshipType("").Valid() {
		t.Fatalf("empty relationship type accepted")
	}
}

func TestPlanEnumsValid(t *testing.T) {
	for _, pt := range []PlanType{PlanTypeStrategic, PlanTypeOperational, PlanTypeFinancial, PlanTypeMarketing} {
		if !pt.Valid() {
			t.Fatalf("%s should be valid", pt)
		}
	}
	if PlanType("tactical").Valid() {
		t.Fatalf("unknown plan type accepted")
	}
	for _, st := range []PlanStatus{PlanStatusDraft, PlanStatusActive, PlanStatusPaused, PlanStatusCompleted} {
		if !st.Valid() {
			t.Fatalf("%s should be valid", st)
		}
	}
	if PlanStatus("archived").Valid() {
		t.Fatalf("unknown plan status accepted")
	}
}

func TestDocumentCategoryValid(t *testing.T) {
	for _, c := range []DocumentCategory{DocumentCategoryOfficial, DocumentCategoryLicense,
		DocumentCategoryContract, DocumentCategoryFinancial, DocumentCategoryOther} {
		if !c.Valid() {
			t.Fatalf("%s should be valid", c)
		}
	}
	if DocumentCategory("misc").Valid() {
		t.Fatalf("unknown document category accepted")
	}
}

func TestResultMergeAndBlocking(t *testing.T) {
	var combined Result
	combined.Merge(Result{})
	if len(combined.Violations) != 0 {
		t.Fatalf("merging an empty result should not allocate violations")
	}

	combined.Merge(Result{Violations: []Violation{
		{Rule: "a", Severity: SeverityWarn, Message: "warn"},
		{Rule: "b", Severity: SeverityLog, Message: "log"},
	}})
	if combined.HasBlocking() {
		t.Fatalf("warn/log severities must not block")
	}
	if got := len(combined.Warnings()); got != 2 {
		t.Fatalf("expected 2 warnings, got %d", got)
	}

	combined.Merge(Result{Violations: []Violation{{Rule: "c", Severity: SeverityBlock, Message: "stop"}}})
	if !combined.HasBlocking() {
		t.Fatalf("block severity must block")
	}
	if got := len(combined.Warnings()); got != 2 {
		t.Fatalf("blocking violations must not appear in warnings, got %d", got)
	}
}
