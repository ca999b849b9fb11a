package cohort

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type Store interface {
	Put(ctx context.Context, c Cohort) (Cohort, error)
	Get(ctx context.Context, id string) (Cohort, error)
	List(ctx context.Context) ([]Cohort, error)
	AddMember(ctx context.Context, m Member) error
	GetMembership(ctx context.Context, cohortID, userID string) (Member, error)
	MembershipsForUser(ctx context.Context, userID string) ([]Member, error)
	MemberIDs(ctx context.Context, cohortID string) ([]string, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, c Cohort) (Cohort, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cohorts (id,name,start_date,weeks,mentor_id) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, start_date=EXCLUDED.start_date,
			weeks=EXCLUDED.weeks, mentor_id=EXCLUDED.mentor_id`,
		c.ID, c.Name, c.StartDate, c.Weeks, c.MentorID)
	if err != nil {
		return Cohort{}, err
	}
	return c, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Cohort, error) {
	var c Cohort
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,start_date,weeks,mentor_id FROM cohorts WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.StartDate, &c.Weeks, &c.MentorID)
	if errors.Is(err, sql.ErrNoRows) {
		return Cohort{}, ErrCohortNotFound
	}
	if err != nil {
		return Cohort{}, err
	}
	return c, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Cohort, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,start_date,weeks,mentor_id FROM cohorts ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Cohort{}
	for rows.Next() {
		var c Cohort
		if err := rows.Scan(&c.ID, &c.Name, &c.StartDate, &c.Weeks, &c.MentorID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddMember(ctx context.Context, m Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cohort_members (cohort_id,user_id,joined_at) VALUES ($1,$2,$3)
		 ON CONFLICT (cohort_id,user_id) DO NOTHING`,
		m.CohortID, m.UserID, m.JoinedAt)
	return err
}

func (s *SQLStore) GetMembership(ctx context.Context, cohortID, userID string) (Member, error) {
	var m Member
	err := s.db.QueryRowContext(ctx,
		`SELECT cohort_id,user_id,joined_at FROM cohort_members WHERE cohort_id=$1 AND user_id=$2`,
		cohortID, userID).Scan(&m.CohortID, &m.UserID, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotMember
	}
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

func (s *SQLStore) MembershipsForUser(ctx context.Context, userID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cohort_id,user_id,joined_at FROM cohort_members WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.CohortID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) MemberIDs(ctx context.Context, cohortID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM cohort_members WHERE cohort_id=$1`, cohortID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
