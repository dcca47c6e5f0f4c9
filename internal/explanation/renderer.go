// Package explanation turns the stored explanation payload into the view the
// explanation page renders.
package explanation

import (
	"errors"
	"time"

	"studyhelper/internal/bridge"
	"studyhelper/internal/logger"
	"studyhelper/internal/models"
	"studyhelper/internal/notify"
)

const (
	RevealAfter = 1500 * time.Millisecond
	QuizPath    = "/quiz"

	ReuploadMessage = "Could not read your study material. Please upload your files again."
)

// Source is the read side of the session bridge.
type Source interface {
	Explanation() (models.ExplanationPayload, error)
}

var _ Source = (*bridge.Bridge)(nil)

type View struct {
	LoadingVisible   bool                        `json:"loadingVisible"`
	ContainerVisible bool                        `json:"containerVisible"`
	EmptyVisible     bool                        `json:"emptyVisible"`
	Sections         []models.ExplanationSection `json:"sections"`
	RevealAfterMs    int64                       `json:"revealAfterMs"`
	QuizPath         string                      `json:"quizPath,omitempty"`
}

// Empty is the view for a session without usable material.
func Empty() View {
	return View{EmptyVisible: true, Sections: []models.ExplanationSection{}}
}

type Renderer struct {
	source   Source
	notifier notify.Notifier
	log      *logger.Logger
}

func NewRenderer(source Source, notifier notify.Notifier, log *logger.Logger) *Renderer {
	if log == nil {
		log = logger.Nop()
	}
	return &Renderer{source: source, notifier: notifier, log: log.With("component", "explanation")}
}

func (r *Renderer) Render() View {
	sections, err := r.source.Explanation()
	switch {
	case errors.Is(err, bridge.ErrAbsent):
		return Empty()
	case errors.Is(err, bridge.ErrStale):
		r.log.Info("ignoring explanation from an older session format")
		return Empty()
	case err != nil:
		r.log.Warn("explanation payload unreadable", "error", err)
		r.notifier.Notify(ReuploadMessage, notify.KindError)
		return Empty()
	}
	if len(sections) == 0 {
		return Empty()
	}

	return View{
		LoadingVisible:   true,
		ContainerVisible: true,
		Sections:         sections,
		RevealAfterMs:    RevealAfter.Milliseconds(),
		QuizPath:         QuizPath,
	}
}
