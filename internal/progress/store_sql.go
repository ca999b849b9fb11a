package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, userID, resourceID string) (ResourceProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id,resource_id,type,progress,completed,metadata_json,last_updated
		 FROM resource_progress WHERE user_id=$1 AND resource_id=$2`, userID, resourceID)
	var rp ResourceProgress
	var mjson string
	if err := row.Scan(&rp.UserID, &rp.ResourceID, &rp.Type, &rp.Progress, &rp.Completed, &mjson, &rp.LastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResourceProgress{}, ErrNotFound
		}
		return ResourceProgress{}, err
	}
	if err := json.Unmarshal([]byte(mjson), &rp.Metadata); err != nil {
		rp.Metadata = Metadata{}
	}
	return rp, nil
}

// Upsert relies on a conditional conflict update so concurrent or
// out-of-order writes resolve to max(progress) server-side.
func (s *SQLStore) Upsert(ctx context.Context, rp ResourceProgress) error {
	mj, err := json.Marshal(rp.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resource_progress (user_id,resource_id,type,progress,completed,metadata_json,last_updated)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id,resource_id) DO UPDATE SET
			progress=EXCLUDED.progress, completed=EXCLUDED.completed,
			metadata_json=EXCLUDED.metadata_json, last_updated=EXCLUDED.last_updated
		 WHERE resource_progress.progress < EXCLUDED.progress`,
		rp.UserID, rp.ResourceID, rp.Type, rp.Progress, rp.Completed, string(mj), rp.LastUpdated)
	return err
}

func (s *SQLStore) ListForUser(ctx context.Context, userID string) ([]ResourceProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id,resource_id,type,progress,completed,metadata_json,last_updated
		 FROM resource_progress WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ResourceProgress{}
	for rows.Next() {
		var rp ResourceProgress
		var mjson string
		if err := rows.Scan(&rp.UserID, &rp.ResourceID, &rp.Type, &rp.Progress, &rp.Completed, &mjson, &rp.LastUpdated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(mjson), &rp.Metadata); err != nil {
			rp.Metadata = Metadata{}
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}
