package cohort

import (
	"context"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	cohorts map[string]Cohort
	members map[string][]Member // cohortID -> members
}

func newMemStore() *memStore {
	return &memStore{cohorts: map[string]Cohort{}, members: map[string][]Member{}}
}

func (m *memStore) Put(_ context.Context, c Cohort) (Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cohorts[c.ID] = c
	return c, nil
}

func (m *memStore) Get(_ context.Context, id string) (Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cohorts[id]
	if !ok {
		return Cohort{}, ErrCohortNotFound
	}
	return c, nil
}

func (m *memStore) List(_ context.Context) ([]Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Cohort, 0, len(m.cohorts))
	for _, c := range m.cohorts {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) AddMember(_ context.Context, mem Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.members[mem.CohortID] {
		if ex.UserID == mem.UserID {
			return nil
		}
	}
	m.members[mem.CohortID] = append(m.members[mem.CohortID], mem)
	return nil
}

func (m *memStore) GetMembership(_ context.Context, cohortID, userID string) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members[cohortID] {
		if mem.UserID == userID {
			return mem, nil
		}
	}
	return Member{}, ErrNotMember
}

func (m *memStore) MembershipsForUser(_ context.Context, userID string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Member
	for _, ms := range m.members {
		for _, mem := range ms {
			if mem.UserID == userID {
				out = append(out, mem)
			}
		}
	}
	return out, nil
}

func (m *memStore) MemberIDs(_ context.Context, cohortID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, mem := range m.members[cohortID] {
		out = append(out, mem.UserID)
	}
	return out, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []string // "type:userID"
}

func (p *capturePublisher) Publish(_ context.Context, typ, userID string, _ interface{}) {
	p.mu.Lock()
	p.events = append(p.events, typ+":"+userID)
	p.mu.Unlock()
}

func TestCurrentWeek(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC).Unix()
	c := Cohort{StartDate: start, Weeks: 8}

	cases := []struct {
		offset time.Duration
		want   int
	}{
		{-24 * time.Hour, 0},
		{0, 1},
		{6 * 24 * time.Hour, 1},
		{7 * 24 * time.Hour, 2},
		{8 * 7 * 24 * time.Hour, 8}, // past the end: capped
	}
	for _, tc := range cases {
		if got := currentWeek(c, start+int64(tc.offset.Seconds())); got != tc.want {
			t.Fatalf("currentWeek at %v = %d, want %d", tc.offset, got, tc.want)
		}
	}
}

func TestDashboardGating(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Put(ctx, Cohort{ID: "c1", Name: "Fall MCAMP", StartDate: start.Unix(), Weeks: 4}); err != nil {
		t.Fatalf("put: %v", err)
	}

	svc := NewService(store, &capturePublisher{})
	svc.now = func() time.Time { return start.Add(10 * 24 * time.Hour) } // week 2

	if _, err := svc.DashboardFor(ctx, "c1", "u1"); err != ErrNotMember {
		t.Fatalf("dashboard before enroll: %v, want ErrNotMember", err)
	}
	if err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("re-enroll should be a no-op: %v", err)
	}

	d, err := svc.DashboardFor(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.CurrentWeek != 2 {
		t.Fatalf("current week = %d, want 2", d.CurrentWeek)
	}
	for _, w := range d.Weeks {
		unlocked := w.Week <= 2
		if w.Unlocked != unlocked {
			t.Fatalf("week %d unlocked=%v, want %v", w.Week, w.Unlocked, unlocked)
		}
	}
}

func TestSweepAnnouncesOnlyOnAdvance(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Put(ctx, Cohort{ID: "c1", Name: "Fall MCAMP", StartDate: start.Unix(), Weeks: 4}); err != nil {
		t.Fatalf("put: %v", err)
	}

	pub := &capturePublisher{}
	svc := NewService(store, pub)
	now := start.Add(24 * time.Hour)
	svc.now = func() time.Time { return now }

	if err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	// First sweep only records the baseline.
	svc.SweepUnlocks(ctx)
	if len(pub.events) != 0 {
		t.Fatalf("first sweep published %v", pub.events)
	}

	// Same week: still quiet.
	now = start.Add(2 * 24 * time.Hour)
	svc.SweepUnlocks(ctx)
	if len(pub.events) != 0 {
		t.Fatalf("same-week sweep published %v", pub.events)
	}

	// Week advanced: every member gets the unlock push, once.
	now = start.Add(8 * 24 * time.Hour)
	svc.SweepUnlocks(ctx)
	svc.SweepUnlocks(ctx)
	if len(pub.events) != 1 || pub.events[0] != "curriculum_unlocked:u1" {
		t.Fatalf("advance sweeps published %v, want one curriculum_unlocked:u1", pub.events)
	}
}
