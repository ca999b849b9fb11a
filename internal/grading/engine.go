package grading

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
)

// Q is a minimal view of a question needed for grading.
// Exactly one answer-key field is populated, depending on Type.
type Q struct {
	Type          string
	AnswerIndex   int      // single_choice
	AnswerIndices []int    // multi_choice
	AnswerText    string   // free_text
	AnswerBlanks  []string // multi_blank, ordered
}

// Result is the outcome of grading a single question response.
type Result struct {
	Correct     bool
	Excluded    bool // true for questions outside automated scoring (essay)
	NeedsManual bool // true if mentor review is required
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response interface{}) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response interface{}) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response interface{}) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, errors.New("unknown question type: " + q.Type)
	}
	return s.Grade(ctx, q, response)
}

type Option func(*config)

type config struct {
	overrides map[string]Strategy
}

// WithStrategy replaces the built-in strategy for a question type.
func WithStrategy(qtype string, s Strategy) Option {
	return func(c *config) { c.overrides[qtype] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{overrides: map[string]Strategy{}}
	for _, o := range opts {
		o(cfg)
	}
	strategies := map[string]Strategy{
		"single_choice": singleChoiceStrategy{},
		"multi_choice":  multiChoiceStrategy{},
		"free_text":     freeTextStrategy{},
		"multi_blank":   multiBlankStrategy{},
		"essay":         essayStrategy{},
	}
	for t, s := range cfg.overrides {
		strategies[t] = s
	}
	return &defaultGrader{strategies: strategies}
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	idx, ok := toInt(response)
	if !ok {
		return Result{}, errors.New("response must be an option index")
	}
	return Result{Correct: idx == q.AnswerIndex}, nil
}

type multiChoiceStrategy struct{}

func (multiChoiceStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	picked, ok := toIntSlice(response)
	if !ok {
		return Result{}, errors.New("response must be a list of option indices")
	}
	// An empty submission is never correct, even against an empty key.
	if len(picked) == 0 {
		return Result{}, nil
	}
	return Result{Correct: equalIntSets(picked, q.AnswerIndices)}, nil
}

type freeTextStrategy struct{}

func (freeTextStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	s, ok := response.(string)
	if !ok {
		return Result{}, errors.New("response must be string")
	}
	return Result{Correct: fold(s) == fold(q.AnswerText)}, nil
}

type multiBlankStrategy struct{}

func (multiBlankStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	blanks, ok := toStringSlice(response)
	if !ok {
		return Result{}, errors.New("response must be a list of strings")
	}
	if len(blanks) != len(q.AnswerBlanks) {
		return Result{}, nil
	}
	for i, b := range blanks {
		if fold(b) != fold(q.AnswerBlanks[i]) {
			return Result{}, nil
		}
	}
	return Result{Correct: true}, nil
}

type essayStrategy struct{}

func (essayStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	return Result{Excluded: true, NeedsManual: true}, nil
}

// --- helpers ---

// Responses round-trip through JSON, so numbers arrive as float64 and
// lists as []interface{}.

func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toIntSlice(v interface{}) ([]int, bool) {
	switch t := v.(type) {
	case []int:
		return t, true
	case []interface{}:
		out := make([]int, 0, len(t))
		for _, e := range t {
			n, ok := toInt(e)
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

func toStringSlice(v interface{}) ([]string, bool) {
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

func equalIntSets(a, b []int) bool {
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	// drop duplicates so a toggled-twice pick cannot skew the comparison
	as = dedupSorted(as)
	bs = dedupSorted(bs)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func dedupSorted(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}
