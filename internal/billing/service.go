package billing

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/learnhub-io/learnhub-portal/internal/payments"
	syncx "github.com/learnhub-io/learnhub-portal/internal/sync"
)

// Publisher pushes subscription state changes. Satisfied by *syncx.Hub.
type Publisher interface {
	Publish(ctx context.Context, typ, userID string, payload interface{})
}

// Service manages pro subscriptions through the payment gateway.
type Service struct {
	store   Store
	gateway *payments.Client
	hub     Publisher
	now     func() time.Time
}

func NewService(store Store, gateway *payments.Client, hub Publisher) *Service {
	return &Service{store: store, gateway: gateway, hub: hub, now: time.Now}
}

// Subscribe starts a plan for the user via the gateway and records it.
func (s *Service) Subscribe(ctx context.Context, userID, plan string) (Subscription, error) {
	ps, err := s.gateway.CreateSubscription(ctx, payments.SubscriptionParams{
		Reference: uuid.NewString(),
		Plan:      plan,
		Customer:  userID,
	})
	if err != nil {
		return Subscription{}, err
	}
	sub := Subscription{
		ID:               uuid.NewString(),
		UserID:           userID,
		Plan:             plan,
		Status:           StatusActive,
		CurrentPeriodEnd: ps.CurrentPeriodEnd,
		ProviderRef:      ps.ID,
	}
	if sub.CurrentPeriodEnd == 0 {
		sub.CurrentPeriodEnd = s.now().AddDate(0, 1, 0).Unix()
	}
	if err := s.store.Upsert(ctx, sub); err != nil {
		return Subscription{}, err
	}
	s.publishState(ctx, sub)
	return sub, nil
}

// Cancel stops renewal; access continues to period end.
func (s *Service) Cancel(ctx context.Context, userID string) (Subscription, error) {
	sub, err := s.store.GetForUser(ctx, userID)
	if err != nil {
		return Subscription{}, err
	}
	if err := s.gateway.CancelSubscription(ctx, sub.ProviderRef); err != nil {
		return Subscription{}, err
	}
	sub.Status = StatusCanceled
	if err := s.store.Upsert(ctx, sub); err != nil {
		return Subscription{}, err
	}
	s.publishState(ctx, sub)
	return sub, nil
}

func (s *Service) Status(ctx context.Context, userID string) (Subscription, error) {
	return s.store.GetForUser(ctx, userID)
}

// ProActive is the gate used by pro-only content.
func (s *Service) ProActive(ctx context.Context, userID string) bool {
	sub, err := s.store.GetForUser(ctx, userID)
	if err != nil {
		return false
	}
	return sub.ProActive(s.now().Unix())
}

// SweepExpired expires rows past their period end and notifies the
// affected users.
func (s *Service) SweepExpired(ctx context.Context) {
	users, err := s.store.ExpireDue(ctx, s.now().Unix())
	if err != nil {
		log.Printf("billing: expiry sweep: %v", err)
		return
	}
	for _, u := range users {
		sub, err := s.store.GetForUser(ctx, u)
		if err != nil {
			continue
		}
		s.publishState(ctx, sub)
	}
}

// Schedule registers the hourly expiry sweep on the given cron runner.
func (s *Service) Schedule(c *cron.Cron) error {
	_, err := c.AddFunc("@hourly", func() {
		s.SweepExpired(context.Background())
	})
	return err
}

func (s *Service) publishState(ctx context.Context, sub Subscription) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ctx, syncx.EventSubscriptionState, sub.UserID, sub)
}
