package billing

import (
	"context"
	"testing"
	"time"
)

func TestProActive(t *testing.T) {
	now := time.Now().Unix()
	cases := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active in period", Subscription{Status: StatusActive, CurrentPeriodEnd: now + 100}, true},
		{"active past period", Subscription{Status: StatusActive, CurrentPeriodEnd: now - 1}, false},
		{"canceled keeps access", Subscription{Status: StatusCanceled, CurrentPeriodEnd: now + 100}, true},
		{"expired", Subscription{Status: StatusExpired, CurrentPeriodEnd: now + 100}, false},
	}
	for _, tc := range cases {
		if got := tc.sub.ProActive(now); got != tc.want {
			t.Fatalf("%s: ProActive = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type fakeSubStore struct {
	subs map[string]Subscription
}

func (f *fakeSubStore) Upsert(_ context.Context, s Subscription) error {
	f.subs[s.UserID] = s
	return nil
}

func (f *fakeSubStore) GetForUser(_ context.Context, userID string) (Subscription, error) {
	s, ok := f.subs[userID]
	if !ok {
		return Subscription{}, ErrNoSubscription
	}
	return s, nil
}

func (f *fakeSubStore) ExpireDue(_ context.Context, now int64) ([]string, error) {
	var out []string
	for u, s := range f.subs {
		if (s.Status == StatusActive || s.Status == StatusCanceled) && s.CurrentPeriodEnd <= now {
			s.Status = StatusExpired
			f.subs[u] = s
			out = append(out, u)
		}
	}
	return out, nil
}

type fakePublisher struct{ events []string }

func (p *fakePublisher) Publish(_ context.Context, typ, userID string, _ interface{}) {
	p.events = append(p.events, typ+":"+userID)
}

func TestSweepExpired(t *testing.T) {
	store := &fakeSubStore{subs: map[string]Subscription{}}
	pub := &fakePublisher{}
	svc := NewService(store, nil, pub)
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	store.subs["u1"] = Subscription{UserID: "u1", Status: StatusActive, CurrentPeriodEnd: base.Unix() - 10}
	store.subs["u2"] = Subscription{UserID: "u2", Status: StatusActive, CurrentPeriodEnd: base.Unix() + 10}

	svc.SweepExpired(context.Background())

	if got := store.subs["u1"].Status; got != StatusExpired {
		t.Fatalf("u1 status = %s, want expired", got)
	}
	if got := store.subs["u2"].Status; got != StatusActive {
		t.Fatalf("u2 status = %s, want active", got)
	}
	if len(pub.events) != 1 || pub.events[0] != "subscription_state:u1" {
		t.Fatalf("events = %v, want one subscription_state:u1", pub.events)
	}
	if svc.ProActive(context.Background(), "u1") {
		t.Fatal("expired subscription still gates pro")
	}
	if !svc.ProActive(context.Background(), "u2") {
		t.Fatal("active subscription not recognized")
	}
}
