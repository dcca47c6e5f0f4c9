// Package quiz renders and grades the self-check quiz built from the stored
// quiz payload.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"studyhelper/internal/models"
	"studyhelper/internal/notify"
)

// DefaultCorrectLetter is used for questions that arrive without a correctAnswer.
const DefaultCorrectLetter = "B"

var (
	ErrGraded          = errors.New("quiz already graded")
	ErrIncomplete      = errors.New("not every question has an answer")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnknownOption   = errors.New("unknown option")
	ErrNoQuiz          = errors.New("no quiz loaded")
)

type Mark int

const (
	MarkNone Mark = iota
	MarkCorrect
	MarkIncorrect
)

type Option struct {
	Text   string
	Letter string
	Mark   Mark
}

type Question struct {
	Text          string
	Options       []Option
	CorrectLetter string
	// Defaulted is set when CorrectLetter came from DefaultCorrectLetter.
	Defaulted bool
	Selected  int
}

func (q Question) Answered() bool { return q.Selected >= 0 }

type Result struct {
	Score   int         `json:"score"`
	Total   int         `json:"total"`
	Percent int         `json:"percent"`
	Kind    notify.Kind `json:"kind"`
}

func (r Result) Label() string { return fmt.Sprintf("Score: %d/%d", r.Score, r.Total) }

func (r Result) Summary() string {
	return fmt.Sprintf("You scored %d/%d (%d%%)", r.Score, r.Total, r.Percent)
}

// Quiz holds the per-question selections of one quiz page. Grading is
// terminal.
type Quiz struct {
	questions []Question
	graded    bool
	result    Result
}

// Prepare drops questions without text and derives option letters.
func Prepare(payload models.QuizPayload) *Quiz {
	q := &Quiz{}
	for _, item := range payload {
		text := strings.TrimSpace(item.Question)
		if text == "" {
			continue
		}
		question := Question{Text: text, Selected: -1}
		for _, opt := range item.Options {
			question.Options = append(question.Options, Option{Text: opt, Letter: firstLetter(opt)})
		}
		question.CorrectLetter = firstLetter(item.CorrectAnswer)
		if question.CorrectLetter == "" {
			question.CorrectLetter = DefaultCorrectLetter
			question.Defaulted = true
		}
		q.questions = append(q.questions, question)
	}
	return q
}

func (q *Quiz) Questions() []Question {
	out := make([]Question, len(q.questions))
	for i, question := range q.questions {
		question.Options = append([]Option(nil), question.Options...)
		out[i] = question
	}
	return out
}

func (q *Quiz) Len() int { return len(q.questions) }

func (q *Quiz) Graded() bool { return q.graded }

func (q *Quiz) Result() Result { return q.result }

// Select records one choice for a question, replacing any earlier choice.
func (q *Quiz) Select(question, option int) error {
	if q.graded {
		return ErrGraded
	}
	if question < 0 || question >= len(q.questions) {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, question)
	}
	if option < 0 || option >= len(q.questions[question].Options) {
		return fmt.Errorf("%w: %d", ErrUnknownOption, option)
	}
	q.questions[question].Selected = option
	return nil
}

// Selections returns the chosen option index per question, -1 when unanswered.
func (q *Quiz) Selections() []int {
	out := make([]int, len(q.questions))
	for i, question := range q.questions {
		out[i] = question.Selected
	}
	return out
}

// Submit grades every question at once or, if any is unanswered, changes
// nothing and returns ErrIncomplete.
func (q *Quiz) Submit() (Result, error) {
	if q.graded {
		return q.result, ErrGraded
	}
	for _, question := range q.questions {
		if !question.Answered() {
			return Result{}, ErrIncomplete
		}
	}

	score := 0
	for i := range q.questions {
		question := &q.questions[i]
		for j := range question.Options {
			if strings.EqualFold(question.Options[j].Letter, question.CorrectLetter) {
				question.Options[j].Mark = MarkCorrect
			}
		}
		selected := &question.Options[question.Selected]
		if strings.EqualFold(selected.Letter, question.CorrectLetter) {
			score++
		} else {
			selected.Mark = MarkIncorrect
		}
	}

	q.graded = true
	q.result = newResult(score, len(q.questions))
	return q.result, nil
}

func newResult(score, total int) Result {
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(score) / float64(total) * 100))
	}
	kind := notify.KindError
	switch {
	case percent >= 70:
		kind = notify.KindSuccess
	case percent >= 50:
		kind = notify.KindInfo
	}
	return Result{Score: score, Total: total, Percent: percent, Kind: kind}
}

// firstLetter is the option identifier: the first non-whitespace character.
func firstLetter(s string) string {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return string(r)
		}
	}
	return ""
}
