package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/quiz"
	"github.com/learnhub-io/learnhub-portal/internal/rbac"
)

func quizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound), errors.Is(err, quiz.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrAlreadyAttempted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrMalformed), errors.Is(err, quiz.ErrBadAnswer),
		errors.Is(err, quiz.ErrUnknownQuestion):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrNoActiveSession), errors.Is(err, quiz.ErrNotGraded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrTimeExpired):
		http.Error(w, err.Error(), http.StatusGone)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func PutQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := decodeValid(r, &q); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := q.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutQuiz(q); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": q.ID})
	}
}

func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuizzes()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// QuizOverviewHandler is the intro state: metadata, prior-attempt
// summary and whether a start is allowed.
func QuizOverviewHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := engine.Overview(r.Context(), chi.URLParam(r, "quizID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}

func StartQuizHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := engine.Start(r.Context(), chi.URLParam(r, "quizID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

type saveAnswerReq struct {
	QuestionID string      `json:"question_id" validate:"required"`
	Answer     interface{} `json:"answer"`
}

func SaveAnswerHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveAnswerReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := engine.SaveAnswer(r.Context(), chi.URLParam(r, "quizID"), auth.SubjectFromContext(r.Context()),
			req.QuestionID, req.Answer)
		if err != nil {
			quizError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func QuizStateHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := engine.State(r.Context(), chi.URLParam(r, "quizID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func SubmitQuizHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := engine.Submit(r.Context(), chi.URLParam(r, "quizID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func QuizReviewHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := engine.Review(r.Context(), chi.URLParam(r, "quizID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// GetAttemptHandler serves a single attempt. Students only see their
// own; mentors see any (for essay grading).
func GetAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAttempt(chi.URLParam(r, "attemptID"))
		if err != nil {
			quizError(w, err)
			return
		}
		if a.UserID != auth.SubjectFromContext(r.Context()) &&
			!rbac.Allowed(r.Context(), "attempt:view-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

type gradeAttemptReq struct {
	Score int `json:"score" validate:"gte=0"`
}

// Grader lets mentors finalize pending attempts; satisfied by
// portal.Grading.
type Grader interface {
	Finalize(ctx context.Context, attemptID string, score int) (quiz.Attempt, error)
}

func GradeAttemptHandler(g Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeAttemptReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		a, err := g.Finalize(r.Context(), chi.URLParam(r, "attemptID"), req.Score)
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
