package quiz

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	ErrNotGraded        = errors.New("attempt not graded yet")
)

type Store interface {
	PutQuiz(q Quiz) error
	// GetQuiz returns a quiz with answer keys stripped.
	GetQuiz(id string) (Quiz, error)
	// GetQuizWithKeys returns the full quiz for grading and review.
	GetQuizWithKeys(id string) (Quiz, error)
	ListQuizzes() ([]Quiz, error)

	// CreateAttempt inserts the attempt; ErrAlreadyAttempted if one
	// exists for (quiz, user).
	CreateAttempt(a Attempt) error
	GetAttempt(id string) (Attempt, error)
	// GetUserAttempt returns the attempt for (quiz, user), or
	// ErrAttemptNotFound.
	GetUserAttempt(quizID, userID string) (Attempt, error)
	// GradeAttempt finalizes a pending attempt with its score.
	GradeAttempt(id string, score int) (Attempt, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) PutQuiz(q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = time.Now().Unix()
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(id string) (Quiz, error) {
	q, err := m.GetQuizWithKeys(id)
	if err != nil {
		return Quiz{}, err
	}
	return q.StripAnswers(), nil
}

func (m *memoryStore) GetQuizWithKeys(id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzes() ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		out = append(out, q.StripAnswers())
	}
	return out, nil
}

func (m *memoryStore) CreateAttempt(a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.attempts {
		if ex.QuizID == a.QuizID && ex.UserID == a.UserID {
			return ErrAlreadyAttempted
		}
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) GetUserAttempt(quizID, userID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			return a, nil
		}
	}
	return Attempt{}, ErrAttemptNotFound
}

func (m *memoryStore) GradeAttempt(id string, score int) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	a.Status = StatusCompleted
	a.Score = &score
	m.attempts[id] = a
	return a, nil
}
