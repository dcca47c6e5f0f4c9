package quiz

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"studyhelper/internal/bridge"
	"studyhelper/internal/logger"
	"studyhelper/internal/models"
	"studyhelper/internal/notify"
)

const (
	RevealAfter = 1500 * time.Millisecond

	SubmitLabel       = "Submit Quiz"
	IncompleteMessage = "Please answer all questions before submitting."
	ReuploadMessage   = "Could not load your quiz. Please upload your files again."
)

// Source is the part of the session bridge the quiz page uses.
type Source interface {
	Quiz() (models.QuizPayload, string, error)
	Read(slot string) (string, bool)
	Write(slot, value string) error
}

var _ Source = (*bridge.Bridge)(nil)

// Runtime is the quiz progress kept in the session between requests.
type Runtime struct {
	Fingerprint string `json:"fingerprint"`
	Selections  []int  `json:"selections"`
	Graded      bool   `json:"graded"`
	Score       int    `json:"score"`
}

type OptionView struct {
	Index     int    `json:"index"`
	Letter    string `json:"letter"`
	Text      string `json:"text"`
	Selected  bool   `json:"selected"`
	Correct   bool   `json:"correct"`
	Incorrect bool   `json:"incorrect"`
}

type QuestionView struct {
	Index   int          `json:"index"`
	Number  int          `json:"number"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

type View struct {
	LoadingVisible   bool           `json:"loadingVisible"`
	ContainerVisible bool           `json:"containerVisible"`
	EmptyVisible     bool           `json:"emptyVisible"`
	Questions        []QuestionView `json:"questions"`
	RevealAfterMs    int64          `json:"revealAfterMs"`
	SubmitLabel      string         `json:"submitLabel"`
	SubmitDisabled   bool           `json:"submitDisabled"`
	Graded           bool           `json:"graded"`
	Result           *Result        `json:"result,omitempty"`
}

func emptyView() View {
	return View{EmptyVisible: true, Questions: []QuestionView{}, SubmitLabel: SubmitLabel, SubmitDisabled: true}
}

// Controller binds a Quiz to the session for one request.
type Controller struct {
	source   Source
	notifier notify.Notifier
	log      *logger.Logger

	quiz        *Quiz
	fingerprint string
	fresh       bool
}

func NewController(source Source, notifier notify.Notifier, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{source: source, notifier: notifier, log: log.With("component", "quiz")}
}

// Load reads the stored quiz and any saved progress for it.
func (c *Controller) Load() View {
	payload, raw, err := c.source.Quiz()
	switch {
	case errors.Is(err, bridge.ErrAbsent):
		return emptyView()
	case errors.Is(err, bridge.ErrStale):
		c.log.Info("ignoring quiz from an older session format")
		return emptyView()
	case err != nil:
		c.log.Warn("quiz payload unreadable", "error", err)
		c.notifier.Notify(ReuploadMessage, notify.KindError)
		return emptyView()
	}

	quiz := Prepare(payload)
	if quiz.Len() == 0 {
		return emptyView()
	}
	for i, question := range quiz.questions {
		if question.Defaulted {
			c.log.Warn("question has no correct answer, defaulting", "question", i+1, "letter", DefaultCorrectLetter)
		}
	}

	c.quiz = quiz
	c.fingerprint = fingerprint(raw)
	c.fresh = !c.restore()
	return c.view()
}

func (c *Controller) restore() bool {
	raw, ok := c.source.Read(bridge.SlotQuizRuntime)
	if !ok {
		return false
	}
	var rt Runtime
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		c.log.Warn("discarding unreadable quiz progress", "error", err)
		return false
	}
	if rt.Fingerprint != c.fingerprint || len(rt.Selections) != c.quiz.Len() {
		return false
	}

	restored := Prepare(nil)
	restored.questions = c.quiz.Questions()
	for i, opt := range rt.Selections {
		if opt < 0 {
			continue
		}
		if err := restored.Select(i, opt); err != nil {
			c.log.Warn("discarding inconsistent quiz progress", "error", err)
			return false
		}
	}
	if rt.Graded {
		if _, err := restored.Submit(); err != nil {
			c.log.Warn("discarding inconsistent graded quiz", "error", err)
			return false
		}
	}
	c.quiz = restored
	return true
}

// Select records a choice and saves progress.
func (c *Controller) Select(question, option int) (View, error) {
	if c.quiz == nil {
		return emptyView(), ErrNoQuiz
	}
	c.fresh = false
	if err := c.quiz.Select(question, option); err != nil {
		return c.view(), err
	}
	if err := c.persist(); err != nil {
		return c.view(), err
	}
	return c.view(), nil
}

// SubmitQuiz grades the quiz. An incomplete quiz raises a warning and is left
// untouched.
func (c *Controller) SubmitQuiz() (View, error) {
	if c.quiz == nil {
		return emptyView(), ErrNoQuiz
	}
	c.fresh = false
	result, err := c.quiz.Submit()
	switch {
	case errors.Is(err, ErrIncomplete):
		c.notifier.Notify(IncompleteMessage, notify.KindWarning)
		return c.view(), err
	case err != nil:
		return c.view(), err
	}

	if err := c.persist(); err != nil {
		return c.view(), err
	}
	c.log.Info("quiz graded", "score", result.Score, "total", result.Total, "percent", result.Percent)
	c.notifier.Notify(result.Summary(), result.Kind)
	return c.view(), nil
}

func (c *Controller) persist() error {
	rt := Runtime{
		Fingerprint: c.fingerprint,
		Selections:  c.quiz.Selections(),
		Graded:      c.quiz.Graded(),
		Score:       c.quiz.Result().Score,
	}
	raw, err := json.Marshal(rt)
	if err != nil {
		return err
	}
	return c.source.Write(bridge.SlotQuizRuntime, string(raw))
}

func (c *Controller) view() View {
	v := View{
		ContainerVisible: true,
		SubmitLabel:      SubmitLabel,
		Graded:           c.quiz.Graded(),
	}
	if c.fresh {
		v.LoadingVisible = true
		v.RevealAfterMs = RevealAfter.Milliseconds()
	}
	if v.Graded {
		result := c.quiz.Result()
		v.Result = &result
		v.SubmitLabel = result.Label()
		v.SubmitDisabled = true
	}

	for i, question := range c.quiz.questions {
		qv := QuestionView{Index: i, Number: i + 1, Text: question.Text}
		for j, opt := range question.Options {
			qv.Options = append(qv.Options, OptionView{
				Index:     j,
				Letter:    opt.Letter,
				Text:      opt.Text,
				Selected:  question.Selected == j,
				Correct:   opt.Mark == MarkCorrect,
				Incorrect: opt.Mark == MarkIncorrect,
			})
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
