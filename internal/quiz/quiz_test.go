package quiz

import (
	"errors"
	"testing"

	"studyhelper/internal/models"
	"studyhelper/internal/notify"
)

func twoQuestions(secondAnswer string) models.QuizPayload {
	return models.QuizPayload{
		{Question: "Q1", Options: []string{"A) one", "B) two", "C) three"}, CorrectAnswer: "B"},
		{Question: "Q2", Options: []string{"A) one", "B) two", "C) three"}, CorrectAnswer: secondAnswer},
	}
}

func TestWorkedExample(t *testing.T) {
	q := Prepare(twoQuestions("A"))
	if err := q.Select(0, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := q.Select(1, 1); err != nil {
		t.Fatalf("select: %v", err)
	}

	result, err := q.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.Total != 2 || result.Percent != 50 || result.Kind != notify.KindInfo {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Label() != "Score: 1/2" || result.Summary() != "You scored 1/2 (50%)" {
		t.Fatalf("label=%q summary=%q", result.Label(), result.Summary())
	}

	second := q.Questions()[1]
	if second.Options[0].Mark != MarkCorrect || second.Options[1].Mark != MarkIncorrect {
		t.Fatalf("unexpected marks: %+v", second.Options)
	}
	first := q.Questions()[0]
	if first.Options[1].Mark != MarkCorrect || first.Options[0].Mark != MarkNone {
		t.Fatalf("unexpected marks: %+v", first.Options)
	}
}

func TestMissingCorrectAnswerDefaultsToB(t *testing.T) {
	q := Prepare(twoQuestions(""))
	_ = q.Select(0, 1)
	_ = q.Select(1, 1)

	result, err := q.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 2 || result.Kind != notify.KindSuccess {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !q.Questions()[1].Defaulted {
		t.Fatalf("expected defaulted flag")
	}
}

func TestLetterComparisonIgnoresCase(t *testing.T) {
	q := Prepare(models.QuizPayload{
		{Question: "Q", Options: []string{"  a) lower", "b) other"}, CorrectAnswer: " A"},
	})
	if got := q.Questions()[0].Options[0].Letter; got != "a" {
		t.Fatalf("letter=%q", got)
	}
	_ = q.Select(0, 0)
	result, _ := q.Submit()
	if result.Score != 1 || result.Percent != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIncompleteSubmitChangesNothing(t *testing.T) {
	q := Prepare(twoQuestions("A"))
	_ = q.Select(0, 2)

	if _, err := q.Submit(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if q.Graded() {
		t.Fatalf("incomplete submit must not grade")
	}
	for _, question := range q.Questions() {
		for _, opt := range question.Options {
			if opt.Mark != MarkNone {
				t.Fatalf("incomplete submit must not mark options")
			}
		}
	}
	if err := q.Select(1, 0); err != nil {
		t.Fatalf("quiz should remain interactive: %v", err)
	}
}

func TestGradingIsTerminal(t *testing.T) {
	q := Prepare(twoQuestions("A"))
	_ = q.Select(0, 0)
	_ = q.Select(1, 0)
	first, _ := q.Submit()

	if err := q.Select(0, 1); !errors.Is(err, ErrGraded) {
		t.Fatalf("expected ErrGraded, got %v", err)
	}
	again, err := q.Submit()
	if !errors.Is(err, ErrGraded) || again != first {
		t.Fatalf("second submit should be rejected with the same result")
	}
}

func TestReselectReplacesChoice(t *testing.T) {
	q := Prepare(twoQuestions("A"))
	_ = q.Select(0, 0)
	_ = q.Select(0, 2)
	_ = q.Select(1, 1)

	if got := q.Selections(); got[0] != 2 || got[1] != 1 {
		t.Fatalf("selections=%v", got)
	}
}

func TestSelectRejectsUnknownIndexes(t *testing.T) {
	q := Prepare(twoQuestions("A"))
	if err := q.Select(5, 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if err := q.Select(0, 9); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
}

func TestPrepareDropsQuestionsWithoutText(t *testing.T) {
	q := Prepare(models.QuizPayload{
		{Question: "   ", Options: []string{"A) x"}},
		{},
		{Question: "Kept", Options: []string{"A) x"}},
	})
	if q.Len() != 1 || q.Questions()[0].Text != "Kept" {
		t.Fatalf("unexpected questions: %+v", q.Questions())
	}
}

func TestResultKinds(t *testing.T) {
	cases := []struct {
		score, total, percent int
		kind                  notify.Kind
	}{
		{7, 10, 70, notify.KindSuccess},
		{2, 3, 67, notify.KindInfo},
		{1, 2, 50, notify.KindInfo},
		{4, 10, 40, notify.KindError},
		{0, 0, 0, notify.KindError},
	}
	for _, tc := range cases {
		got := newResult(tc.score, tc.total)
		if got.Percent != tc.percent || got.Kind != tc.kind {
			t.Fatalf("newResult(%d,%d)=%+v", tc.score, tc.total, got)
		}
	}
}
