package cohort

import (
	"context"
	"log"
	"sync"
	"time"

	syncx "github.com/learnhub-io/learnhub-portal/internal/sync"
)

const weekSeconds = 7 * 24 * 60 * 60

// Publisher pushes events to cohort members. Satisfied by *syncx.Hub.
type Publisher interface {
	Publish(ctx context.Context, typ, userID string, payload interface{})
}

// Service computes week gating for MCAMP dashboards and announces new
// unlocks to members.
type Service struct {
	store Store
	hub   Publisher
	now   func() time.Time

	mu        sync.Mutex
	announced map[string]int // cohortID -> last week announced
}

func NewService(store Store, hub Publisher) *Service {
	return &Service{store: store, hub: hub, now: time.Now, announced: map[string]int{}}
}

// currentWeek is 0 before the start date, 1 during the first week, and
// caps at the cohort's week count.
func currentWeek(c Cohort, now int64) int {
	if now < c.StartDate {
		return 0
	}
	w := int((now-c.StartDate)/weekSeconds) + 1
	if w > c.Weeks {
		w = c.Weeks
	}
	return w
}

// Enroll adds the user to the cohort; enrolling twice is a no-op.
func (s *Service) Enroll(ctx context.Context, cohortID, userID string) error {
	if _, err := s.store.Get(ctx, cohortID); err != nil {
		return err
	}
	return s.store.AddMember(ctx, Member{
		CohortID: cohortID,
		UserID:   userID,
		JoinedAt: s.now().Unix(),
	})
}

// DashboardFor builds the member's week-gated view.
func (s *Service) DashboardFor(ctx context.Context, cohortID, userID string) (Dashboard, error) {
	c, err := s.store.Get(ctx, cohortID)
	if err != nil {
		return Dashboard{}, err
	}
	if _, err := s.store.GetMembership(ctx, cohortID, userID); err != nil {
		return Dashboard{}, err
	}
	now := s.now().Unix()
	cur := currentWeek(c, now)
	weeks := make([]WeekStatus, 0, c.Weeks)
	for w := 1; w <= c.Weeks; w++ {
		weeks = append(weeks, WeekStatus{
			Week:      w,
			Unlocked:  w <= cur,
			UnlocksAt: c.StartDate + int64(w-1)*weekSeconds,
		})
	}
	return Dashboard{Cohort: c, CurrentWeek: cur, Weeks: weeks}, nil
}

// Cohorts lists the cohorts the user belongs to.
func (s *Service) Cohorts(ctx context.Context, userID string) ([]Cohort, error) {
	ms, err := s.store.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Cohort, 0, len(ms))
	for _, m := range ms {
		c, err := s.store.Get(ctx, m.CohortID)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// SweepUnlocks publishes a curriculum_unlocked push to every member of a
// cohort whose current week advanced since the last sweep. Subscribers
// replace their dashboard state with the payload.
func (s *Service) SweepUnlocks(ctx context.Context) {
	cs, err := s.store.List(ctx)
	if err != nil {
		log.Printf("cohort: unlock sweep: %v", err)
		return
	}
	now := s.now().Unix()
	for _, c := range cs {
		cur := currentWeek(c, now)
		s.mu.Lock()
		last, seen := s.announced[c.ID]
		if !seen {
			// first sweep after boot: remember without announcing
			s.announced[c.ID] = cur
			s.mu.Unlock()
			continue
		}
		if cur <= last {
			s.mu.Unlock()
			continue
		}
		s.announced[c.ID] = cur
		s.mu.Unlock()

		members, err := s.store.MemberIDs(ctx, c.ID)
		if err != nil {
			log.Printf("cohort: unlock sweep members: %v", err)
			continue
		}
		payload := map[string]interface{}{"cohort_id": c.ID, "current_week": cur}
		for _, u := range members {
			s.hub.Publish(ctx, syncx.EventCurriculumUnlock, u, payload)
		}
	}
}
