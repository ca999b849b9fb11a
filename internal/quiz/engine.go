package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub-io/learnhub-portal/internal/grading"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrTimeExpired     = errors.New("time expired")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrBadAnswer       = errors.New("bad answer shape")
)

// Overview is what the intro screen shows: quiz metadata plus the prior
// attempt, if one exists. CanStart is false once any attempt exists.
type Overview struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
	WeekNumber      int      `json:"week_number,omitempty"`
	QuestionCount   int      `json:"question_count"`
	CanStart        bool     `json:"can_start"`
	Attempt         *Attempt `json:"attempt,omitempty"`
}

// ActiveState is the running session as seen by the client.
type ActiveState struct {
	Quiz             Quiz                   `json:"quiz"` // answer keys stripped
	Answers          map[string]interface{} `json:"answers"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	UnansweredCount  int                    `json:"unanswered_count"`
}

// ReviewItem is one row of the read-only per-question breakdown.
type ReviewItem struct {
	Question Question    `json:"question"` // includes the answer key
	Answer   interface{} `json:"answer,omitempty"`
	Correct  bool        `json:"correct"`
	Excluded bool        `json:"excluded"` // essay: outside automated scoring
}

type session struct {
	quiz     Quiz // with answer keys
	userID   string
	deadline time.Time
	answers  map[string]interface{}
}

// Engine runs timed quiz sessions: Intro -> Active -> submitted attempt.
// Sessions live in memory; attempts are written exactly once at
// submission. A 1-second sweep forces submission of sessions whose
// countdown ran out with no further client interaction.
type Engine struct {
	store  Store
	grader grading.Grader
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session // key: userID|quizID

	onFinish func(Attempt) // optional, called outside the lock
}

type EngineOption func(*Engine)

// WithClock injects a time source (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithFinishHook registers a callback invoked after every submission,
// forced or explicit.
func WithFinishHook(fn func(Attempt)) EngineOption {
	return func(e *Engine) { e.onFinish = fn }
}

func NewEngine(store Store, grader grading.Grader, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		grader:   grader,
		now:      time.Now,
		sessions: map[string]*session{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func sessionKey(userID, quizID string) string { return userID + "|" + quizID }

// Overview implements the intro state: metadata, prior-attempt summary
// and whether a start is allowed.
func (e *Engine) Overview(ctx context.Context, quizID, userID string) (Overview, error) {
	q, err := e.store.GetQuiz(quizID)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		DurationMinutes: q.DurationMinutes,
		WeekNumber:      q.WeekNumber,
		QuestionCount:   len(q.Questions),
		CanStart:        true,
	}
	a, err := e.store.GetUserAttempt(quizID, userID)
	switch {
	case err == nil:
		a.Answers = nil // intro shows status only
		ov.Attempt = &a
		ov.CanStart = false
	case errors.Is(err, ErrAttemptNotFound):
	default:
		return Overview{}, err
	}
	return ov, nil
}

// Start transitions Intro -> Active. A quiz that has already been
// attempted is never restarted.
func (e *Engine) Start(ctx context.Context, quizID, userID string) (ActiveState, error) {
	if _, err := e.store.GetUserAttempt(quizID, userID); err == nil {
		return ActiveState{}, ErrAlreadyAttempted
	} else if !errors.Is(err, ErrAttemptNotFound) {
		return ActiveState{}, err
	}

	q, err := e.store.GetQuizWithKeys(quizID)
	if err != nil {
		return ActiveState{}, err
	}
	if err := q.Validate(); err != nil {
		return ActiveState{}, err
	}

	e.mu.Lock()
	key := sessionKey(userID, quizID)
	s, ok := e.sessions[key]
	if !ok {
		s = &session{
			quiz:     q,
			userID:   userID,
			deadline: e.now().Add(time.Duration(q.DurationMinutes) * time.Minute),
			answers:  map[string]interface{}{},
		}
		e.sessions[key] = s
	}
	state := e.stateLocked(s)
	e.mu.Unlock()
	return state, nil
}

// SaveAnswer records one answer, keyed by question id and typed per
// question type. Navigation is the client's concern: any question may be
// answered at any time before the deadline.
func (e *Engine) SaveAnswer(ctx context.Context, quizID, userID, questionID string, answer interface{}) error {
	e.mu.Lock()
	s, ok := e.sessions[sessionKey(userID, quizID)]
	if !ok {
		e.mu.Unlock()
		return ErrNoActiveSession
	}
	if !e.now().Before(s.deadline) {
		// Countdown hit zero: the late answer is dropped and whatever is
		// recorded gets submitted.
		a, err := e.finishLocked(s)
		e.mu.Unlock()
		if err == nil {
			e.notifyFinish(a)
		}
		return ErrTimeExpired
	}
	var q *Question
	for i := range s.quiz.Questions {
		if s.quiz.Questions[i].ID == questionID {
			q = &s.quiz.Questions[i]
			break
		}
	}
	if q == nil {
		e.mu.Unlock()
		return ErrUnknownQuestion
	}
	if err := checkAnswerShape(*q, answer); err != nil {
		e.mu.Unlock()
		return err
	}
	s.answers[questionID] = answer
	e.mu.Unlock()
	return nil
}

// State reports the running session; it also enforces the deadline, so a
// polling client observes the forced submission.
func (e *Engine) State(ctx context.Context, quizID, userID string) (ActiveState, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionKey(userID, quizID)]
	if !ok {
		e.mu.Unlock()
		return ActiveState{}, ErrNoActiveSession
	}
	if !e.now().Before(s.deadline) {
		a, err := e.finishLocked(s)
		e.mu.Unlock()
		if err == nil {
			e.notifyFinish(a)
		}
		return ActiveState{}, ErrTimeExpired
	}
	state := e.stateLocked(s)
	e.mu.Unlock()
	return state, nil
}

// Submit is the explicit submission from the confirmation step.
func (e *Engine) Submit(ctx context.Context, quizID, userID string) (Attempt, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionKey(userID, quizID)]
	if !ok {
		e.mu.Unlock()
		return Attempt{}, ErrNoActiveSession
	}
	a, err := e.finishLocked(s)
	e.mu.Unlock()
	if err != nil {
		return Attempt{}, err
	}
	e.notifyFinish(a)
	return a, nil
}

// SweepExpired force-submits every session whose countdown reached zero.
// Driven by Run once per second, mirroring the client-visible tick.
func (e *Engine) SweepExpired() {
	e.mu.Lock()
	var finished []Attempt
	for _, s := range e.sessions {
		if !e.now().Before(s.deadline) {
			if a, err := e.finishLocked(s); err == nil {
				finished = append(finished, a)
			}
		}
	}
	e.mu.Unlock()
	for _, a := range finished {
		e.notifyFinish(a)
	}
}

// Run ticks the countdown sweep until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.SweepExpired()
		}
	}
}

// Review serves the read-only per-question breakdown, reachable only
// once the attempt has been graded.
func (e *Engine) Review(ctx context.Context, quizID, userID string) ([]ReviewItem, error) {
	a, err := e.store.GetUserAttempt(quizID, userID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusCompleted || a.Score == nil {
		return nil, ErrNotGraded
	}
	q, err := e.store.GetQuizWithKeys(quizID)
	if err != nil {
		return nil, err
	}
	items := make([]ReviewItem, 0, len(q.Questions))
	for _, qu := range q.Questions {
		item := ReviewItem{Question: qu, Answer: a.Answers[qu.ID]}
		if qu.Type == TypeEssay {
			item.Excluded = true
		} else if ans, ok := a.Answers[qu.ID]; ok {
			res, err := e.grader.Grade(ctx, gradingView(qu), ans)
			if err == nil {
				item.Correct = res.Correct
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// finishLocked grades the recorded answers, writes the attempt exactly
// once and drops the session. Callers hold e.mu.
func (e *Engine) finishLocked(s *session) (Attempt, error) {
	score := 0
	for _, qu := range s.quiz.Questions {
		if qu.Type == TypeEssay {
			continue
		}
		ans, ok := s.answers[qu.ID]
		if !ok {
			continue
		}
		res, err := e.grader.Grade(context.Background(), gradingView(qu), ans)
		if err != nil {
			continue
		}
		if res.Correct {
			score++
		}
	}

	status := StatusCompleted
	if s.quiz.HasEssay() {
		// Essays need a mentor; the attempt stays pending with its auto
		// score until grading finalizes it.
		status = StatusPendingGrading
	}
	sc := score
	a := Attempt{
		ID:          uuid.NewString(),
		QuizID:      s.quiz.ID,
		UserID:      s.userID,
		Status:      status,
		Score:       &sc,
		Total:       s.quiz.AutoGradable(),
		Answers:     s.answers,
		SubmittedAt: e.now().Unix(),
	}
	if err := e.store.CreateAttempt(a); err != nil {
		if errors.Is(err, ErrAlreadyAttempted) {
			// lost a race with another submit path; keep the stored one
			delete(e.sessions, sessionKey(s.userID, s.quiz.ID))
			return e.store.GetUserAttempt(s.quiz.ID, s.userID)
		}
		return Attempt{}, err
	}
	delete(e.sessions, sessionKey(s.userID, s.quiz.ID))
	return a, nil
}

func (e *Engine) stateLocked(s *session) ActiveState {
	remaining := int(s.deadline.Sub(e.now()).Round(time.Second) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	unanswered := 0
	for _, qu := range s.quiz.Questions {
		if _, ok := s.answers[qu.ID]; !ok {
			unanswered++
		}
	}
	ans := make(map[string]interface{}, len(s.answers))
	for k, v := range s.answers {
		ans[k] = v
	}
	return ActiveState{
		Quiz:             s.quiz.StripAnswers(),
		Answers:          ans,
		RemainingSeconds: remaining,
		UnansweredCount:  unanswered,
	}
}

func (e *Engine) notifyFinish(a Attempt) {
	if e.onFinish != nil {
		e.onFinish(a)
	}
}

func gradingView(q Question) grading.Q {
	g := grading.Q{Type: q.Type}
	switch q.Type {
	case TypeSingleChoice:
		if q.AnswerIndex != nil {
			g.AnswerIndex = *q.AnswerIndex
		}
	case TypeMultiChoice:
		g.AnswerIndices = q.AnswerIndices
	case TypeFreeText:
		g.AnswerText = q.AnswerText
	case TypeMultiBlank:
		g.AnswerBlanks = q.AnswerBlanks
	}
	return g
}

func checkAnswerShape(q Question, answer interface{}) error {
	switch q.Type {
	case TypeSingleChoice:
		if _, ok := answerIndex(answer); !ok {
			return fmt.Errorf("%w: want option index", ErrBadAnswer)
		}
	case TypeMultiChoice:
		if _, ok := answerIndices(answer); !ok {
			return fmt.Errorf("%w: want list of option indices", ErrBadAnswer)
		}
	case TypeFreeText, TypeEssay:
		if _, ok := answer.(string); !ok {
			return fmt.Errorf("%w: want string", ErrBadAnswer)
		}
	case TypeMultiBlank:
		if _, ok := answerStrings(answer); !ok {
			return fmt.Errorf("%w: want list of strings", ErrBadAnswer)
		}
	}
	return nil
}

func answerIndex(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

func answerIndices(v interface{}) ([]int, bool) {
	switch t := v.(type) {
	case []int:
		return t, true
	case []interface{}:
		out := make([]int, 0, len(t))
		for _, e := range t {
			n, ok := answerIndex(e)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}

func answerStrings(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
