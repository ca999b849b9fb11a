// Package portal wires the quiz engine's outcomes into the rest of the
// system: progress records and push events.
package portal

import (
	"context"
	"errors"
	"log"

	"github.com/learnhub-io/learnhub-portal/internal/library"
	"github.com/learnhub-io/learnhub-portal/internal/progress"
	"github.com/learnhub-io/learnhub-portal/internal/quiz"
	syncx "github.com/learnhub-io/learnhub-portal/internal/sync"
)

type Grading struct {
	quizzes quiz.Store
	lib     library.Store
	tracker *progress.Tracker
	hub     *syncx.Hub
}

func NewGrading(quizzes quiz.Store, lib library.Store, tracker *progress.Tracker, hub *syncx.Hub) *Grading {
	return &Grading{quizzes: quizzes, lib: lib, tracker: tracker, hub: hub}
}

// OnQuizFinish runs on every submission, forced or explicit: it feeds
// the attempt's auto score into the progress tracker's quiz variant.
// Registered as the engine's finish hook.
func (g *Grading) OnQuizFinish(a quiz.Attempt) {
	if a.Score == nil || a.Total == 0 {
		return
	}
	g.feedProgress(context.Background(), a)
}

// Finalize is the mentor grading operation: it completes a pending
// attempt with its final score, refreshes the progress record and
// pushes an attempt_graded event to the student.
func (g *Grading) Finalize(ctx context.Context, attemptID string, score int) (quiz.Attempt, error) {
	a, err := g.quizzes.GradeAttempt(attemptID, score)
	if err != nil {
		return quiz.Attempt{}, err
	}
	g.feedProgress(ctx, a)
	if g.hub != nil {
		g.hub.Publish(ctx, syncx.EventAttemptGraded, a.UserID, a)
	}
	return a, nil
}

func (g *Grading) feedProgress(ctx context.Context, a quiz.Attempt) {
	res, err := g.lib.GetByQuizID(ctx, a.QuizID)
	if err != nil {
		if !errors.Is(err, library.ErrResourceNotFound) {
			log.Printf("portal: quiz %s resource lookup: %v", a.QuizID, err)
		}
		return // quiz not surfaced in the library; nothing to track
	}
	if _, err := g.tracker.QuizResult(ctx, a.UserID, res.ID, *a.Score, a.Total); err != nil {
		log.Printf("portal: quiz progress for %s/%s: %v", a.UserID, res.ID, err)
	}
}
