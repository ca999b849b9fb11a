package grading_test

import (
	"context"
	"testing"

	"github.com/learnhub-io/learnhub-portal/internal/grading"
)

func grade(t *testing.T, q grading.Q, response interface{}) grading.Result {
	t.Helper()
	res, err := grading.NewDefaultGrader().Grade(context.Background(), q, response)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	return res
}

func TestSingleChoice(t *testing.T) {
	q := grading.Q{Type: "single_choice", AnswerIndex: 2}
	if !grade(t, q, 2).Correct {
		t.Fatal("exact index should be correct")
	}
	if grade(t, q, 1).Correct {
		t.Fatal("wrong index should be incorrect")
	}
	// JSON decoding hands over float64
	if !grade(t, q, float64(2)).Correct {
		t.Fatal("float64 index should be correct")
	}
}

func TestMultiChoiceSetEquality(t *testing.T) {
	q := grading.Q{Type: "multi_choice", AnswerIndices: []int{1, 3}}

	if !grade(t, q, []int{3, 1}).Correct {
		t.Fatal("order must not matter")
	}
	if !grade(t, q, []int{1, 3, 3}).Correct {
		t.Fatal("duplicate picks must not matter")
	}
	if grade(t, q, []int{1}).Correct {
		t.Fatal("subset is not correct")
	}
	if grade(t, q, []int{1, 2, 3}).Correct {
		t.Fatal("superset is not correct")
	}
	if !grade(t, q, []interface{}{float64(3), float64(1)}).Correct {
		t.Fatal("json-decoded list should be correct")
	}
}

func TestMultiChoiceEmptySubmission(t *testing.T) {
	// Submitting nothing is never correct, even if the key is empty.
	if grade(t, grading.Q{Type: "multi_choice", AnswerIndices: []int{1}}, []int{}).Correct {
		t.Fatal("empty submission graded correct")
	}
	if grade(t, grading.Q{Type: "multi_choice", AnswerIndices: nil}, []int{}).Correct {
		t.Fatal("empty submission against empty key graded correct")
	}
}

func TestFreeTextFolding(t *testing.T) {
	q := grading.Q{Type: "free_text", AnswerText: "paris"}
	for _, s := range []string{"paris", "Paris", "  PARIS  ", "Paris\t"} {
		if !grade(t, q, s).Correct {
			t.Fatalf("%q should match after trim+lowercase", s)
		}
	}
	if grade(t, q, "pariss").Correct {
		t.Fatal("different word graded correct")
	}
}

func TestMultiBlank(t *testing.T) {
	q := grading.Q{Type: "multi_blank", AnswerBlanks: []string{"red", "blue"}}

	if !grade(t, q, []string{" Red", "BLUE "}).Correct {
		t.Fatal("per-blank trim+lowercase should match")
	}
	if grade(t, q, []string{"blue", "red"}).Correct {
		t.Fatal("blanks are positional")
	}
	if grade(t, q, []string{"red"}).Correct {
		t.Fatal("missing blank graded correct")
	}
}

func TestEssayExcluded(t *testing.T) {
	res := grade(t, grading.Q{Type: "essay"}, "my long answer")
	if res.Correct {
		t.Fatal("essay must not auto-grade correct")
	}
	if !res.Excluded || !res.NeedsManual {
		t.Fatal("essay should be excluded and flagged for manual review")
	}
}

func TestUnknownType(t *testing.T) {
	_, err := grading.NewDefaultGrader().Grade(context.Background(), grading.Q{Type: "matching"}, 1)
	if err == nil {
		t.Fatal("unknown type should error")
	}
}

type alwaysRight struct{}

func (alwaysRight) Grade(_ context.Context, _ grading.Q, _ interface{}) (grading.Result, error) {
	return grading.Result{Correct: true}, nil
}

func TestStrategyOverride(t *testing.T) {
	g := grading.NewDefaultGrader(grading.WithStrategy("free_text", alwaysRight{}))
	res, err := g.Grade(context.Background(), grading.Q{Type: "free_text", AnswerText: "x"}, "y")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !res.Correct {
		t.Fatal("override strategy not used")
	}
}
