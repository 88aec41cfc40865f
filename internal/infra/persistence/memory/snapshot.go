package memory

// Snapshot is a serializable copy of the full store state. Each collection
// is an ordered sequence; the durable backends marshal each field as one
// JSON payload under its bucket key.
type Snapshot struct {
	Contacts   []Contact       `json:"contacts"`
	Plans      []BusinessPlan  `json:"plans"`
	Documents  []DocumentItem  `json:"documents"`
	Profile    *UserProfile    `json:"profile,omitempty"`
	Onboarding *OnboardingData `json:"onboarding,omitempty"`
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	snap := Snapshot{
		Contacts:  cloned.contacts,
		Plans:     cloned.plans,
		Documents: cloned.documents,
	}
	if snap.Contacts == nil {
		snap.Contacts = []Contact{}
	}
	if snap.Plans == nil {
		snap.Plans = []BusinessPlan{}
	}
	if snap.Documents == nil {
		snap.Documents = []DocumentItem{}
	}
	snap.Profile = cloned.profile
	snap.Onboarding = cloned.onboarding
	return snap
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := state{
		contacts:   append([]Contact(nil), snapshot.Contacts...),
		plans:      append([]BusinessPlan(nil), snapshot.Plans...),
		documents:  append([]DocumentItem(nil), snapshot.Documents...),
		profile:    snapshot.Profile,
		onboarding: snapshot.Onboarding,
	}
	s.state = next.clone()
	// Keep the id clock ahead of any imported record so new ids stay
	// time-ordered relative to restored state.
	for _, c := range s.state.contacts {
		if ns := c.UpdatedAt.UnixNano(); ns > s.lastID {
			s.lastID = ns
		}
	}
	for _, p := range s.state.plans {
		if ns := p.UpdatedAt.UnixNano(); ns > s.lastID {
			s.lastID = ns
		}
	}
	for _, d := range s.state.documents {
		if ns := d.UpdatedAt.UnixNano(); ns > s.lastID {
			s.lastID = ns
		}
	}
}
