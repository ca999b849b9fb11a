package billing

import (
	"context"
	"database/sql"
	"errors"
)

type Store interface {
	Upsert(ctx context.Context, s Subscription) error
	GetForUser(ctx context.Context, userID string) (Subscription, error)
	// ExpireDue flips active/canceled rows whose period end has passed
	// and returns the affected user ids.
	ExpireDue(ctx context.Context, now int64) ([]string, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Upsert(ctx context.Context, sub Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id,user_id,plan,status,current_period_end,provider_ref)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (user_id) DO UPDATE SET plan=EXCLUDED.plan, status=EXCLUDED.status,
			current_period_end=EXCLUDED.current_period_end, provider_ref=EXCLUDED.provider_ref`,
		sub.ID, sub.UserID, sub.Plan, sub.Status, sub.CurrentPeriodEnd, sub.ProviderRef)
	return err
}

func (s *SQLStore) GetForUser(ctx context.Context, userID string) (Subscription, error) {
	var sub Subscription
	err := s.db.QueryRowContext(ctx,
		`SELECT id,user_id,plan,status,current_period_end,provider_ref FROM subscriptions WHERE user_id=$1`, userID).
		Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.CurrentPeriodEnd, &sub.ProviderRef)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNoSubscription
	}
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (s *SQLStore) ExpireDue(ctx context.Context, now int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM subscriptions
		 WHERE status IN ($1,$2) AND current_period_end <= $3`,
		StatusActive, StatusCanceled, now)
	if err != nil {
		return nil, err
	}
	users := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status=$1
		 WHERE status IN ($2,$3) AND current_period_end <= $4`,
		StatusExpired, StatusActive, StatusCanceled, now)
	if err != nil {
		return nil, err
	}
	return users, nil
}
