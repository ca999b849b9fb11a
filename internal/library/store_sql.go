package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Put(ctx context.Context, r Resource) (Resource, error)
	Get(ctx context.Context, id string) (Resource, error)
	// GetByQuizID resolves the library entry wrapping a quiz session.
	GetByQuizID(ctx context.Context, quizID string) (Resource, error)
	List(ctx context.Context) ([]Resource, error)
	PDFInfo(ctx context.Context, id string) (PDFInfo, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Put(ctx context.Context, r Resource) (Resource, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	wc, err := json.Marshal(r.WordsPerPage)
	if err != nil {
		return Resource{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resources (id,type,title,url,duration_sec,page_count,word_counts_json,quiz_id,week_number,pro_only,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (id) DO UPDATE SET type=EXCLUDED.type, title=EXCLUDED.title, url=EXCLUDED.url,
			duration_sec=EXCLUDED.duration_sec, page_count=EXCLUDED.page_count,
			word_counts_json=EXCLUDED.word_counts_json, quiz_id=EXCLUDED.quiz_id,
			week_number=EXCLUDED.week_number, pro_only=EXCLUDED.pro_only`,
		r.ID, r.Type, r.Title, r.URL, r.DurationSec, r.PageCount, string(wc), r.QuizID, r.WeekNumber, r.ProOnly, r.CreatedAt)
	if err != nil {
		return Resource{}, err
	}
	return r, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Resource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,type,title,url,duration_sec,page_count,word_counts_json,quiz_id,week_number,pro_only,created_at
		 FROM resources WHERE id=$1`, id)
	return scanResource(row)
}

func (s *SQLStore) GetByQuizID(ctx context.Context, quizID string) (Resource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,type,title,url,duration_sec,page_count,word_counts_json,quiz_id,week_number,pro_only,created_at
		 FROM resources WHERE quiz_id=$1`, quizID)
	return scanResource(row)
}

func (s *SQLStore) List(ctx context.Context) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,type,title,url,duration_sec,page_count,word_counts_json,quiz_id,week_number,pro_only,created_at
		 FROM resources ORDER BY week_number, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Resource{}
	for rows.Next() {
		r, err := scanResourceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) PDFInfo(ctx context.Context, id string) (PDFInfo, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return PDFInfo{}, err
	}
	return PDFInfo{PageCount: r.PageCount, WordsPerPage: r.WordsPerPage}, nil
}

func scanResource(row *sql.Row) (Resource, error) {
	var r Resource
	var wc string
	err := row.Scan(&r.ID, &r.Type, &r.Title, &r.URL, &r.DurationSec, &r.PageCount, &wc, &r.QuizID, &r.WeekNumber, &r.ProOnly, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Resource{}, ErrResourceNotFound
	}
	if err != nil {
		return Resource{}, err
	}
	if wc != "" {
		_ = json.Unmarshal([]byte(wc), &r.WordsPerPage)
	}
	return r, nil
}

func scanResourceRows(rows *sql.Rows) (Resource, error) {
	var r Resource
	var wc string
	if err := rows.Scan(&r.ID, &r.Type, &r.Title, &r.URL, &r.DurationSec, &r.PageCount, &wc, &r.QuizID, &r.WeekNumber, &r.ProOnly, &r.CreatedAt); err != nil {
		return Resource{}, err
	}
	if wc != "" {
		_ = json.Unmarshal([]byte(wc), &r.WordsPerPage)
	}
	return r, nil
}
