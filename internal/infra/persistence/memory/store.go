// Package memory provides the canonical in-memory implementation of the
// core persistence store, used directly for tests and ephemeral setups and
// embedded by the durable sqlite/postgres backends.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"bizcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Contact aliases domain.Contact for in-memory persistence operations.
	Contact = domain.Contact
	// BusinessPlan aliases domain.BusinessPlan.
	BusinessPlan = domain.BusinessPlan
	// DocumentItem aliases domain.DocumentItem.
	DocumentItem = domain.DocumentItem
	// UserProfile aliases domain.UserProfile.
	UserProfile = domain.UserProfile
	// OnboardingData aliases domain.OnboardingData.
	OnboardingData = domain.OnboardingData
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// state holds every collection as an ordered sequence; collections persist
// whole, so ordering here is the ordering on disk.
type state struct {
	contacts   []Contact
	plans      []BusinessPlan
	documents  []DocumentItem
	profile    *UserProfile
	onboarding *OnboardingData
}

func (s state) clone() state {
	cloned := state{
		contacts:  make([]Contact, 0, len(s.contacts)),
		plans:     make([]BusinessPlan, 0, len(s.plans)),
		documents: make([]DocumentItem, 0, len(s.documents)),
	}
	for _, c := range s.contacts {
		cloned.contacts = append(cloned.contacts, cloneContact(c))
	}
	for _, p := range s.plans {
		cloned.plans = append(cloned.plans, clonePlan(p))
	}
	for _, d := range s.documents {
		cloned.documents = append(cloned.documents, cloneDocument(d))
	}
	if s.profile != nil {
		p := cloneProfile(*s.profile)
		cloned.profile = &p
	}
	if s.onboarding != nil {
		o := cloneOnboarding(*s.onboarding)
		cloned.onboarding = &o
	}
	return cloned
}

func cloneContact(c Contact) Contact {
	cp := c
	cp.ProjectIDs = append([]string(nil), c.ProjectIDs...)
	return cp
}

func clonePlan(p BusinessPlan) BusinessPlan {
	cp := p
	cp.Goals = append([]string(nil), p.Goals...)
	cp.Milestones = append([]domain.Milestone(nil), p.Milestones...)
	return cp
}

func cloneDocument(d DocumentItem) DocumentItem { return d }

func cloneProfile(p UserProfile) UserProfile { return p }

func cloneOnboarding(o OnboardingData) OnboardingData {
	cp := o
	if o.Extra != nil {
		cp.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			cp.Extra[k] = v
		}
	}
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *RulesEngine
	lastID int64
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the store clock; intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// clock returns a strictly increasing instant. The guard makes entity ids
// time-ordered and guarantees UpdatedAt advances across transactions even
// on coarse clocks. Not collision-safe across processes (accepted
// single-installation limitation).
func (s *Store) clock() time.Time {
	now := s.nowFn()
	if now.UnixNano() <= s.lastID {
		now = time.Unix(0, s.lastID+1).UTC()
	}
	s.lastID = now.UnixNano()
	return now
}

func newID(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 36)
}

// transaction implements domain.Transaction over a cloned state.
type transaction struct {
	store   *Store
	state   state
	changes []Change
	now     time.Time
}

// view implements domain.TransactionView over a state snapshot.
type view struct {
	state *state
}

// RunInTransaction executes fn within a transactional copy of the store
// state. On success the copy replaces the committed state after rule
// evaluation; blocking violations abort the commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.clock(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(view{state: &snapshot})
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state read-only.
func (tx *transaction) Snapshot() TransactionView { return view{state: &tx.state} }

// SaveContact appends a contact, assigning id and timestamps when unset.
// No uniqueness enforcement happens here.
func (tx *transaction) SaveContact(c Contact) Contact {
	if c.ID == "" {
		c.ID = newID(tx.now)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	if c.ProjectIDs == nil {
		c.ProjectIDs = []string{}
	}
	tx.state.contacts = append(tx.state.contacts, cloneContact(c))
	tx.recordChange(Change{Entity: domain.EntityContact, Action: domain.ActionCreate, After: cloneContact(c)})
	return cloneContact(c)
}

// UpdateContact replaces the element whose id matches, preserving CreatedAt
// and refreshing UpdatedAt. Silent no-op (false) when absent; absence
// handling is a service concern.
func (tx *transaction) UpdateContact(c Contact) bool {
	for i, existing := range tx.state.contacts {
		if existing.ID != c.ID {
			continue
		}
		before := cloneContact(existing)
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = tx.now
		tx.state.contacts[i] = cloneContact(c)
		tx.recordChange(Change{Entity: domain.EntityContact, Action: domain.ActionUpdate, Before: before, After: cloneContact(c)})
		return true
	}
	return false
}

// RemoveContact filters out the matching element.
func (tx *transaction) RemoveContact(id string) bool {
	for i, existing := range tx.state.contacts {
		if existing.ID != id {
			continue
		}
		before := cloneContact(existing)
		tx.state.contacts = append(tx.state.contacts[:i], tx.state.contacts[i+1:]...)
		tx.recordChange(Change{Entity: domain.EntityContact, Action: domain.ActionDelete, Before: before})
		return true
	}
	return false
}

// SavePlan appends a business plan, assigning id and timestamps.
func (tx *transaction) SavePlan(p BusinessPlan) BusinessPlan {
	if p.ID == "" {
		p.ID = newID(tx.now)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	if p.Goals == nil {
		p.Goals = []string{}
	}
	if p.Milestones == nil {
		p.Milestones = []domain.Milestone{}
	}
	tx.state.plans = append(tx.state.plans, clonePlan(p))
	tx.recordChange(Change{Entity: domain.EntityBusinessPlan, Action: domain.ActionCreate, After: clonePlan(p)})
	return clonePlan(p)
}

// UpdatePlan replaces the matching plan; silent no-op when absent.
func (tx *transaction) UpdatePlan(p BusinessPlan) bool {
	for i, existing := range tx.state.plans {
		if existing.ID != p.ID {
			continue
		}
		before := clonePlan(existing)
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = tx.now
		tx.state.plans[i] = clonePlan(p)
		tx.recordChange(Change{Entity: domain.EntityBusinessPlan, Action: domain.ActionUpdate, Before: before, After: clonePlan(p)})
		return true
	}
	return false
}

// RemovePlan filters out the matching plan.
func (tx *transaction) RemovePlan(id string) bool {
	for i, existing := range tx.state.plans {
		if existing.ID != id {
			continue
		}
		before := clonePlan(existing)
		tx.state.plans = append(tx.state.plans[:i], tx.state.plans[i+1:]...)
		tx.recordChange(Change{Entity: domain.EntityBusinessPlan, Action: domain.ActionDelete, Before: before})
		return true
	}
	return false
}

// SaveDocument appends a document, assigning id and timestamps.
func (tx *transaction) SaveDocument(d DocumentItem) DocumentItem {
	if d.ID == "" {
		d.ID = newID(tx.now)
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.documents = append(tx.state.documents, cloneDocument(d))
	tx.recordChange(Change{Entity: domain.EntityDocument, Action: domain.ActionCreate, After: cloneDocument(d)})
	return cloneDocument(d)
}

// UpdateDocument replaces the matching document; silent no-op when absent.
// Content immutability is enforced one layer up.
func (tx *transaction) UpdateDocument(d DocumentItem) bool {
	for i, existing := range tx.state.documents {
		if existing.ID != d.ID {
			continue
		}
		before := cloneDocument(existing)
		d.CreatedAt = existing.CreatedAt
		d.UpdatedAt = tx.now
		tx.state.documents[i] = cloneDocument(d)
		tx.recordChange(Change{Entity: domain.EntityDocument, Action: domain.ActionUpdate, Before: before, After: cloneDocument(d)})
		return true
	}
	return false
}

// RemoveDocument filters out the matching document.
func (tx *transaction) RemoveDocument(id string) bool {
	for i, existing := range tx.state.documents {
		if existing.ID != id {
			continue
		}
		before := cloneDocument(existing)
		tx.state.documents = append(tx.state.documents[:i], tx.state.documents[i+1:]...)
		tx.recordChange(Change{Entity: domain.EntityDocument, Action: domain.ActionDelete, Before: before})
		return true
	}
	return false
}

// SetProfile stores the singleton profile, assigning id and CreatedAt on
// first write and refreshing UpdatedAt thereafter.
func (tx *transaction) SetProfile(p UserProfile) UserProfile {
	if tx.state.profile != nil {
		p.ID = tx.state.profile.ID
		p.CreatedAt = tx.state.profile.CreatedAt
		tx.recordChange(Change{Entity: domain.EntityUserProfile, Action: domain.ActionUpdate, Before: cloneProfile(*tx.state.profile), After: cloneProfile(p)})
	} else {
		if p.ID == "" {
			p.ID = newID(tx.now)
		}
		p.CreatedAt = tx.now
		tx.recordChange(Change{Entity: domain.EntityUserProfile, Action: domain.ActionCreate, After: cloneProfile(p)})
	}
	p.UpdatedAt = tx.now
	stored := cloneProfile(p)
	tx.state.profile = &stored
	return cloneProfile(p)
}

// ClearProfile removes the singleton profile.
func (tx *transaction) ClearProfile() {
	if tx.state.profile == nil {
		return
	}
	tx.recordChange(Change{Entity: domain.EntityUserProfile, Action: domain.ActionDelete, Before: cloneProfile(*tx.state.profile)})
	tx.state.profile = nil
}

// SetOnboarding stores the singleton onboarding record verbatim; the core
// never mutates its fields.
func (tx *transaction) SetOnboarding(o OnboardingData) {
	action := domain.ActionCreate
	var before any
	if tx.state.onboarding != nil {
		action = domain.ActionUpdate
		before = cloneOnboarding(*tx.state.onboarding)
	}
	stored := cloneOnboarding(o)
	tx.state.onboarding = &stored
	tx.recordChange(Change{Entity: domain.EntityOnboarding, Action: action, Before: before, After: cloneOnboarding(o)})
}

// ClearOnboarding removes the onboarding record.
func (tx *transaction) ClearOnboarding() {
	if tx.state.onboarding == nil {
		return
	}
	tx.recordChange(Change{Entity: domain.EntityOnboarding, Action: domain.ActionDelete, Before: cloneOnboarding(*tx.state.onboarding)})
	tx.state.onboarding = nil
}

// FindContact retrieves a contact by id from the transactional state.
func (tx *transaction) FindContact(id string) (Contact, bool) {
	return view{state: &tx.state}.FindContact(id)
}

// FindPlan retrieves a plan by id from the transactional state.
func (tx *transaction) FindPlan(id string) (BusinessPlan, bool) {
	return view{state: &tx.state}.FindPlan(id)
}

// FindDocument retrieves a document by id from the transactional state.
func (tx *transaction) FindDocument(id string) (DocumentItem, bool) {
	return view{state: &tx.state}.FindDocument(id)
}

// ListContacts returns all contacts in insertion order.
func (v view) ListContacts() []Contact {
	out := make([]Contact, 0, len(v.state.contacts))
	for _, c := range v.state.contacts {
		out = append(out, cloneContact(c))
	}
	return out
}

// ListPlans returns all business plans in insertion order.
func (v view) ListPlans() []BusinessPlan {
	out := make([]BusinessPlan, 0, len(v.state.plans))
	for _, p := range v.state.plans {
		out = append(out, clonePlan(p))
	}
	return out
}

// ListDocuments returns all documents in insertion order.
func (v view) ListDocuments() []DocumentItem {
	out := make([]DocumentItem, 0, len(v.state.documents))
	for _, d := range v.state.documents {
		out = append(out, cloneDocument(d))
	}
	return out
}

// FindContact retrieves a contact by id.
func (v view) FindContact(id string) (Contact, bool) {
	for _, c := range v.state.contacts {
		if c.ID == id {
			return cloneContact(c), true
		}
	}
	return Contact{}, false
}

// FindPlan retrieves a plan by id.
func (v view) FindPlan(id string) (BusinessPlan, bool) {
	for _, p := range v.state.plans {
		if p.ID == id {
			return clonePlan(p), true
		}
	}
	return BusinessPlan{}, false
}

// FindDocument retrieves a document by id.
func (v view) FindDocument(id string) (DocumentItem, bool) {
	for _, d := range v.state.documents {
		if d.ID == id {
			return cloneDocument(d), true
		}
	}
	return DocumentItem{}, false
}

// Profile returns the singleton profile when present.
func (v view) Profile() (UserProfile, bool) {
	if v.state.profile == nil {
		return UserProfile{}, false
	}
	return cloneProfile(*v.state.profile), true
}

// Onboarding returns the onboarding record when present.
func (v view) Onboarding() (OnboardingData, bool) {
	if v.state.onboarding == nil {
		return OnboardingData{}, false
	}
	return cloneOnboarding(*v.state.onboarding), true
}

// Read helpers ---------------------------------------------------------------

// GetContact retrieves a contact by id from committed state.
func (s *Store) GetContact(id string) (Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindContact(id)
}

// ListContacts returns all contacts from committed state.
func (s *Store) ListContacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListContacts()
}

// GetPlan retrieves a plan by id from committed state.
func (s *Store) GetPlan(id string) (BusinessPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindPlan(id)
}

// ListPlans returns all business plans from committed state.
func (s *Store) ListPlans() []BusinessPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListPlans()
}

// GetDocument retrieves a document by id from committed state.
func (s *Store) GetDocument(id string) (DocumentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindDocument(id)
}

// ListDocuments returns all documents from committed state.
func (s *Store) ListDocuments() []DocumentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListDocuments()
}

// GetProfile returns the singleton user profile when present.
func (s *Store) GetProfile() (UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.Profile()
}

// GetOnboarding returns the onboarding record when present.
func (s *Store) GetOnboarding() (OnboardingData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.Onboarding()
}
