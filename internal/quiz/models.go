package quiz

import (
	"errors"
	"fmt"
)

// Question types supported by the engine.
const (
	TypeSingleChoice = "single_choice"
	TypeMultiChoice  = "multi_choice"
	TypeFreeText     = "free_text"
	TypeMultiBlank   = "multi_blank"
	TypeEssay        = "essay"
)

// Attempt statuses. An attempt is written exactly once at submission;
// grading later flips pending_grading to completed.
const (
	StatusPendingGrading = "pending_grading"
	StatusCompleted      = "completed"
)

type Question struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Prompt   string   `json:"prompt"`
	ImageURL string   `json:"image_url,omitempty"`
	Options  []string `json:"options,omitempty"` // choice types
	Blanks   int      `json:"blanks,omitempty"`  // multi_blank

	// Hidden answer key; stripped before serving to students.
	// Which field is set depends on Type.
	AnswerIndex   *int     `json:"answer_index,omitempty"`
	AnswerIndices []int    `json:"answer_indices,omitempty"`
	AnswerText    string   `json:"answer_text,omitempty"`
	AnswerBlanks  []string `json:"answer_blanks,omitempty"`
}

type Quiz struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	WeekNumber      int        `json:"week_number,omitempty"`
	Questions       []Question `json:"questions"`
	CreatedAt       int64      `json:"created_at,omitempty"`
}

type Attempt struct {
	ID          string                 `json:"id"`
	QuizID      string                 `json:"quiz_id"`
	UserID      string                 `json:"user_id"`
	Status      string                 `json:"status"`
	Score       *int                   `json:"score,omitempty"`
	Total       int                    `json:"total"` // auto-gradable question count
	Answers     map[string]interface{} `json:"answers"`
	SubmittedAt int64                  `json:"submitted_at"`
}

var ErrMalformed = errors.New("malformed quiz")

// Validate rejects sessions the engine cannot run: empty question lists,
// non-positive durations and questions missing their answer key.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrMalformed)
	}
	if q.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrMalformed)
	}
	for i, qu := range q.Questions {
		if qu.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrMalformed, i)
		}
		switch qu.Type {
		case TypeSingleChoice:
			if len(qu.Options) == 0 {
				return fmt.Errorf("%w: question %s has no options", ErrMalformed, qu.ID)
			}
			if qu.AnswerIndex == nil || *qu.AnswerIndex < 0 || *qu.AnswerIndex >= len(qu.Options) {
				return fmt.Errorf("%w: question %s has no valid answer index", ErrMalformed, qu.ID)
			}
		case TypeMultiChoice:
			if len(qu.Options) == 0 {
				return fmt.Errorf("%w: question %s has no options", ErrMalformed, qu.ID)
			}
			for _, idx := range qu.AnswerIndices {
				if idx < 0 || idx >= len(qu.Options) {
					return fmt.Errorf("%w: question %s answer index out of range", ErrMalformed, qu.ID)
				}
			}
		case TypeFreeText:
			if qu.AnswerText == "" {
				return fmt.Errorf("%w: question %s has no answer text", ErrMalformed, qu.ID)
			}
		case TypeMultiBlank:
			if len(qu.AnswerBlanks) == 0 {
				return fmt.Errorf("%w: question %s has no answer blanks", ErrMalformed, qu.ID)
			}
		case TypeEssay:
			// no key; graded by a mentor
		default:
			return fmt.Errorf("%w: question %s has unknown type %q", ErrMalformed, qu.ID, qu.Type)
		}
	}
	return nil
}

// StripAnswers returns a copy safe to serve to students.
func (q Quiz) StripAnswers() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qu := range q.Questions {
		qu.AnswerIndex = nil
		qu.AnswerIndices = nil
		qu.AnswerText = ""
		qu.AnswerBlanks = nil
		out.Questions[i] = qu
	}
	return out
}

// AutoGradable counts the questions that participate in automated
// scoring (everything except essays).
func (q Quiz) AutoGradable() int {
	n := 0
	for _, qu := range q.Questions {
		if qu.Type != TypeEssay {
			n++
		}
	}
	return n
}

// HasEssay reports whether any question needs mentor grading.
func (q Quiz) HasEssay() bool {
	for _, qu := range q.Questions {
		if qu.Type == TypeEssay {
			return true
		}
	}
	return false
}
