package syncx

import (
	"context"
	"database/sql"
)

// Push event types consumed by the client.
const (
	EventAttemptGraded     = "attempt_graded"
	EventCurriculumUnlock  = "curriculum_unlocked"
	EventSubscriptionState = "subscription_state"
)

type Event struct {
	Offset    int64  `json:"offset"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: the target user id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Append writes the event to the log and returns its offset.
func (r *EventRepo) Append(ctx context.Context, e Event) (int64, error) {
	var offset int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING "offset"`,
		e.Type, e.Key, e.DataJSON, e.CreatedAt).Scan(&offset)
	return offset, err
}

// Since returns events after the given offset for one key, oldest first.
// Used to replay missed pushes on reconnect.
func (r *EventRepo) Since(ctx context.Context, key string, offset int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", typ, key, data, created_at FROM event_log
		 WHERE key=$1 AND "offset" > $2 ORDER BY "offset" LIMIT $3`,
		key, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
