package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizcore/pkg/domain"
)

func TestSaveAssignsIdentityAndTimestamps(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var created Contact
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		created = tx.SaveContact(Contact{Name: "Ann", Email: "ann@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("save contact: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected matching creation timestamps, got %v / %v", created.CreatedAt, created.UpdatedAt)
	}
	if created.ProjectIDs == nil {
		t.Fatalf("project ids should default to an empty slice")
	}

	got, ok := store.GetContact(created.ID)
	if !ok || got.Name != "Ann" {
		t.Fatalf("expected committed contact, got %+v ok=%v", got, ok)
	}
}

func TestSaveDoesNotEnforceUniqueness(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SaveContact(Contact{Name: "A", Email: "same@example.com"})
		tx.SaveContact(Contact{Name: "B", Email: "same@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := len(store.ListContacts()); got != 2 {
		t.Fatalf("store must persist duplicates verbatim, got %d contacts", got)
	}
}

func TestUpdatePreservesCreatedAtAndAdvancesUpdatedAt(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var created Contact
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		created = tx.SaveContact(Contact{Name: "Ann", Email: "ann@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		created.Name = "Ann Lee"
		if !tx.UpdateContact(created) {
			t.Fatalf("update should find the contact")
		}
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.GetContact(created.ID)
	if got.Name != "Ann Lee" {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt must be preserved across updates")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("UpdatedAt must strictly advance: %v vs %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestUpdateAbsentIsSilentNoOp(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if tx.UpdateContact(Contact{Base: domain.Base{ID: "ghost"}}) {
			t.Fatalf("updating an absent contact must return false")
		}
		if tx.RemoveContact("ghost") {
			t.Fatalf("removing an absent contact must return false")
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if got := len(store.ListContacts()); got != 0 {
		t.Fatalf("no-op transaction must not create records, got %d", got)
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("abort")
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		tx.SaveContact(Contact{Name: "Ghost", Email: "ghost@example.com"})
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if got := len(store.ListContacts()); got != 0 {
		t.Fatalf("aborted transaction must not commit, got %d contacts", got)
	}
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		tx.SaveContact(Contact{Name: "Ann", Email: "ann@example.com"})
		return nil
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListContacts()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	if len(changes) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{Rule: "block_all", Severity: domain.SeverityBlock, Message: "nope"}}}, nil
}

func TestCloneIsolation(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var created Contact
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		created = tx.SaveContact(Contact{Name: "Ann", Email: "ann@example.com", ProjectIDs: []string{"p1"}})
		return nil
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating returned copies must never leak into committed state.
	created.ProjectIDs[0] = "hacked"
	list := store.ListContacts()
	list[0].Name = "hacked"

	got, _ := store.GetContact(created.ID)
	if got.Name != "Ann" || got.ProjectIDs[0] != "p1" {
		t.Fatalf("committed state was mutated through a returned copy: %+v", got)
	}
}

func TestProfileSingletonPreservesIdentity(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var first, second UserProfile
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		first = tx.SetProfile(UserProfile{FirstName: "Ann", Email: "ann@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		second = tx.SetProfile(UserProfile{FirstName: "Ann Lee", Email: "ann@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("overwrite profile: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("profile overwrite must keep the id: %s vs %s", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("profile overwrite must keep CreatedAt")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("profile overwrite must advance UpdatedAt")
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		tx.ClearProfile()
		return nil
	}); err != nil {
		t.Fatalf("clear profile: %v", err)
	}
	if _, ok := store.GetProfile(); ok {
		t.Fatalf("profile should be cleared")
	}
}

func TestOnboardingStoredVerbatim(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	data := OnboardingData{
		BusinessName: "Acme Bakery",
		Industry:     "food",
		TeamSize:     3,
		CompletedAt:  &now,
		Extra:        map[string]any{"referral": "friend"},
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SetOnboarding(data)
		return nil
	}); err != nil {
		t.Fatalf("set onboarding: %v", err)
	}
	got, ok := store.GetOnboarding()
	if !ok {
		t.Fatalf("expected onboarding record")
	}
	if got.BusinessName != "Acme Bakery" || got.TeamSize != 3 || got.Extra["referral"] != "friend" {
		t.Fatalf("onboarding not stored verbatim: %+v", got)
	}

	// Returned copy must be isolated from committed state.
	got.Extra["referral"] = "ad"
	again, _ := store.GetOnboarding()
	if again.Extra["referral"] != "friend" {
		t.Fatalf("onboarding extra leaked a mutable reference")
	}
}

func TestMonotonicClockWithFrozenNow(t *testing.T) {
	store := NewStore(nil)
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return frozen })
	ctx := context.Background()

	var a, b Contact
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		a = tx.SaveContact(Contact{Name: "A", Email: "a@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		b = tx.SaveContact(Contact{Name: "B", Email: "b@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("ids must differ even under a frozen clock")
	}
	if !b.CreatedAt.After(a.CreatedAt) {
		t.Fatalf("instants must strictly increase: %v vs %v", b.CreatedAt, a.CreatedAt)
	}
}

func TestViewSeesCommittedState(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SaveContact(Contact{Name: "Ann", Email: "ann@example.com"})
		tx.SavePlan(BusinessPlan{Title: "Plan"})
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.View(ctx, func(v TransactionView) error {
		if len(v.ListContacts()) != 1 || len(v.ListPlans()) != 1 {
			t.Fatalf("view is missing committed records")
		}
		if _, ok := v.Profile(); ok {
			t.Fatalf("no profile expected")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
