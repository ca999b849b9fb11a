package quiz

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutQuiz(q Quiz) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO quizzes (id,title,description,duration_minutes,week_number,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			duration_minutes=EXCLUDED.duration_minutes, week_number=EXCLUDED.week_number,
			questions_json=EXCLUDED.questions_json`,
		q.ID, q.Title, q.Description, q.DurationMinutes, q.WeekNumber, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(id string) (Quiz, error) {
	q, err := s.GetQuizWithKeys(id)
	if err != nil {
		return Quiz{}, err
	}
	return q.StripAnswers(), nil
}

func (s *SQLStore) GetQuizWithKeys(id string) (Quiz, error) {
	row := s.db.QueryRow(`SELECT id,title,description,duration_minutes,week_number,questions_json,created_at
		FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.Title, &q.Description, &q.DurationMinutes, &q.WeekNumber, &qjson, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuizzes() ([]Quiz, error) {
	rows, err := s.db.Query(`SELECT id,title,description,duration_minutes,week_number,created_at
		FROM quizzes ORDER BY week_number, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		var q Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.DurationMinutes, &q.WeekNumber, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAttempt(a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO quiz_attempts (id,quiz_id,user_id,status,score,total,answers_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.QuizID, a.UserID, a.Status, a.Score, a.Total, string(aj), a.SubmittedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyAttempted
	}
	return err
}

func (s *SQLStore) GetAttempt(id string) (Attempt, error) {
	return s.scanAttempt(s.db.QueryRow(
		`SELECT id,quiz_id,user_id,status,score,total,answers_json,submitted_at
		 FROM quiz_attempts WHERE id=$1`, id))
}

func (s *SQLStore) GetUserAttempt(quizID, userID string) (Attempt, error) {
	return s.scanAttempt(s.db.QueryRow(
		`SELECT id,quiz_id,user_id,status,score,total,answers_json,submitted_at
		 FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2`, quizID, userID))
}

func (s *SQLStore) GradeAttempt(id string, score int) (Attempt, error) {
	res, err := s.db.Exec(`UPDATE quiz_attempts SET status=$1, score=$2 WHERE id=$3`,
		StatusCompleted, score, id)
	if err != nil {
		return Attempt{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Attempt{}, ErrAttemptNotFound
	}
	return s.GetAttempt(id)
}

func (s *SQLStore) scanAttempt(row *sql.Row) (Attempt, error) {
	var a Attempt
	var score sql.NullInt64
	var ajson string
	if err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &score, &a.Total, &ajson, &a.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	if score.Valid {
		v := int(score.Int64)
		a.Score = &v
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		a.Answers = map[string]interface{}{}
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}
