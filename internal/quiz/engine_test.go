package quiz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnhub-io/learnhub-portal/internal/grading"
	"github.com/learnhub-io/learnhub-portal/internal/quiz"
)

func intp(n int) *int { return &n }

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:              "q1",
		Title:           "Week 1 check",
		DurationMinutes: 1,
		Questions: []quiz.Question{
			{ID: "a", Type: quiz.TypeSingleChoice, Prompt: "2+2?", Options: []string{"3", "4"}, AnswerIndex: intp(1)},
			{ID: "b", Type: quiz.TypeFreeText, Prompt: "Capital of France?", AnswerText: "paris"},
			{ID: "c", Type: quiz.TypeMultiChoice, Prompt: "Primes?", Options: []string{"2", "3", "4"}, AnswerIndices: []int{0, 1}},
		},
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, q quiz.Quiz, opts ...quiz.EngineOption) (*quiz.Engine, quiz.Store, *fakeClock) {
	t.Helper()
	store := quiz.NewInMemoryStore()
	if err := store.PutQuiz(q); err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	opts = append([]quiz.EngineOption{quiz.WithClock(clk.now)}, opts...)
	return quiz.NewEngine(store, grading.NewDefaultGrader(), opts...), store, clk
}

func TestStartAndSubmit(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, sampleQuiz())

	st, err := e.Start(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.RemainingSeconds != 60 {
		t.Fatalf("remaining = %d, want 60", st.RemainingSeconds)
	}
	for _, qu := range st.Quiz.Questions {
		if qu.AnswerIndex != nil || qu.AnswerText != "" || qu.AnswerIndices != nil {
			t.Fatalf("question %s leaked its answer key", qu.ID)
		}
	}

	if err := e.SaveAnswer(ctx, "q1", "u1", "a", 1); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "b", "Paris "); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "c", []int{1, 0}); err != nil {
		t.Fatalf("save c: %v", err)
	}

	a, err := e.Submit(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.Status != quiz.StatusCompleted {
		t.Fatalf("status = %s, want completed", a.Status)
	}
	if a.Score == nil || *a.Score != 3 || a.Total != 3 {
		t.Fatalf("score = %v/%d, want 3/3", a.Score, a.Total)
	}
}

func TestOverviewBlocksSecondAttempt(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, sampleQuiz())

	if _, err := e.Start(ctx, "q1", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.Submit(ctx, "q1", "u1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ov, err := e.Overview(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.CanStart {
		t.Fatal("overview allows restart after an attempt")
	}
	if ov.Attempt == nil || ov.Attempt.Answers != nil {
		t.Fatal("overview attempt summary missing or carrying answers")
	}

	if _, err := e.Start(ctx, "q1", "u1"); !errors.Is(err, quiz.ErrAlreadyAttempted) {
		t.Fatalf("second start: %v, want ErrAlreadyAttempted", err)
	}
}

func TestDeadlineForcesSubmission(t *testing.T) {
	ctx := context.Background()
	e, store, clk := newTestEngine(t, sampleQuiz())

	if _, err := e.Start(ctx, "q1", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "a", 1); err != nil {
		t.Fatalf("save: %v", err)
	}

	clk.advance(61 * time.Second)

	// The late answer is dropped and the session is force-submitted.
	if err := e.SaveAnswer(ctx, "q1", "u1", "b", "paris"); !errors.Is(err, quiz.ErrTimeExpired) {
		t.Fatalf("late save: %v, want ErrTimeExpired", err)
	}
	a, err := store.GetUserAttempt("q1", "u1")
	if err != nil {
		t.Fatalf("attempt after expiry: %v", err)
	}
	if a.Score == nil || *a.Score != 1 {
		t.Fatalf("score = %v, want 1 (late answer dropped)", a.Score)
	}
	if _, ok := a.Answers["b"]; ok {
		t.Fatal("late answer was recorded")
	}
}

func TestSweepSubmitsIdleSession(t *testing.T) {
	ctx := context.Background()
	var finished []quiz.Attempt
	e, store, clk := newTestEngine(t, sampleQuiz(),
		quiz.WithFinishHook(func(a quiz.Attempt) { finished = append(finished, a) }))

	if _, err := e.Start(ctx, "q1", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.advance(2 * time.Minute)
	e.SweepExpired()

	a, err := store.GetUserAttempt("q1", "u1")
	if err != nil {
		t.Fatalf("attempt after sweep: %v", err)
	}
	if a.Score == nil || *a.Score != 0 {
		t.Fatalf("score = %v, want 0 for untouched session", a.Score)
	}
	if len(finished) != 1 {
		t.Fatalf("finish hook fired %d times, want 1", len(finished))
	}
	if _, err := e.State(ctx, "q1", "u1"); !errors.Is(err, quiz.ErrNoActiveSession) {
		t.Fatalf("state after sweep: %v, want ErrNoActiveSession", err)
	}
}

func TestMalformedQuizRejectedAtStart(t *testing.T) {
	ctx := context.Background()
	cases := []quiz.Quiz{
		{ID: "empty", Title: "t", DurationMinutes: 5},
		{ID: "noduration", Title: "t", Questions: []quiz.Question{
			{ID: "a", Type: quiz.TypeFreeText, AnswerText: "x"},
		}},
		{ID: "nokey", Title: "t", DurationMinutes: 5, Questions: []quiz.Question{
			{ID: "a", Type: quiz.TypeSingleChoice, Options: []string{"x", "y"}},
		}},
	}
	for _, q := range cases {
		store := quiz.NewInMemoryStore()
		if err := store.PutQuiz(q); err != nil {
			t.Fatalf("put %s: %v", q.ID, err)
		}
		e := quiz.NewEngine(store, grading.NewDefaultGrader())
		if _, err := e.Start(ctx, q.ID, "u1"); !errors.Is(err, quiz.ErrMalformed) {
			t.Fatalf("start %s: %v, want ErrMalformed", q.ID, err)
		}
	}
}

func TestBadAnswerShapes(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, sampleQuiz())
	if _, err := e.Start(ctx, "q1", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "a", "not an index"); !errors.Is(err, quiz.ErrBadAnswer) {
		t.Fatalf("string for single_choice: %v, want ErrBadAnswer", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "zz", 1); !errors.Is(err, quiz.ErrUnknownQuestion) {
		t.Fatalf("unknown question: %v, want ErrUnknownQuestion", err)
	}
}

func TestEssayGoesPendingThenReview(t *testing.T) {
	ctx := context.Background()
	q := sampleQuiz()
	q.Questions = append(q.Questions, quiz.Question{ID: "d", Type: quiz.TypeEssay, Prompt: "Discuss."})
	e, store, _ := newTestEngine(t, q)

	if _, err := e.Start(ctx, "q1", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "a", 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := e.SaveAnswer(ctx, "q1", "u1", "d", "a thoughtful essay"); err != nil {
		t.Fatalf("save essay: %v", err)
	}

	a, err := e.Submit(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.Status != quiz.StatusPendingGrading {
		t.Fatalf("status = %s, want pending_grading", a.Status)
	}
	if a.Total != 3 {
		t.Fatalf("total = %d, want 3 (essay excluded)", a.Total)
	}

	// Not reviewable until a mentor finalizes.
	if _, err := e.Review(ctx, "q1", "u1"); !errors.Is(err, quiz.ErrNotGraded) {
		t.Fatalf("review before grading: %v, want ErrNotGraded", err)
	}
	if _, err := store.GradeAttempt(a.ID, 2); err != nil {
		t.Fatalf("grade: %v", err)
	}

	items, err := e.Review(ctx, "q1", "u1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("review items = %d, want 4", len(items))
	}
	for _, it := range items {
		switch it.Question.ID {
		case "a":
			if !it.Correct {
				t.Fatal("question a should be correct in review")
			}
		case "d":
			if !it.Excluded {
				t.Fatal("essay should be excluded in review")
			}
		}
	}
}
