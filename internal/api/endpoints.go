package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyhelper/internal/explanation"
	"studyhelper/internal/notify"
	"studyhelper/internal/quiz"
)

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"ai":           h.processor.Configured(),
		"sessionStore": h.cfg.SessionStore,
	})
}

func (h *Handler) HandleGetExplanation(c *gin.Context) {
	_, b := h.session(c)
	rec := &notify.Recorder{}
	view := explanation.NewRenderer(b, h.notifier(rec), h.log).Render()

	c.JSON(http.StatusOK, gin.H{
		"view":           view,
		"filesProcessed": b.FilesProcessed(),
		"notifications":  rec.Notifications(),
	})
}

func (h *Handler) HandleGetQuiz(c *gin.Context) {
	_, b := h.session(c)
	rec := &notify.Recorder{}
	view := quiz.NewController(b, h.notifier(rec), h.log).Load()

	c.JSON(http.StatusOK, gin.H{
		"view":          view,
		"notifications": rec.Notifications(),
	})
}

type selectRequest struct {
	Question *int `json:"question" binding:"required"`
	Option   *int `json:"option" binding:"required"`
}

func (h *Handler) HandleSelectAnswer(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "question and option are required")
		return
	}

	_, b := h.session(c)
	rec := &notify.Recorder{}
	ctrl := quiz.NewController(b, h.notifier(rec), h.log)
	ctrl.Load()

	view, err := ctrl.Select(*req.Question, *req.Option)
	if err != nil {
		h.quizError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view":          view,
		"notifications": rec.Notifications(),
	})
}

func (h *Handler) HandleSubmitQuiz(c *gin.Context) {
	_, b := h.session(c)
	rec := &notify.Recorder{}
	ctrl := quiz.NewController(b, h.notifier(rec), h.log)
	ctrl.Load()
	loaded := len(rec.Notifications())

	view, err := ctrl.SubmitQuiz()
	if errors.Is(err, quiz.ErrIncomplete) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         quiz.IncompleteMessage,
			"view":          view,
			"notifications": rec.Notifications()[loaded:],
		})
		return
	}
	if err != nil {
		h.quizError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view":          view,
		"result":        view.Result,
		"notifications": rec.Notifications()[loaded:],
	})
}

func (h *Handler) quizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quiz.ErrNoQuiz):
		respondError(c, http.StatusNotFound, "No quiz available. Please upload your files first.")
	case errors.Is(err, quiz.ErrGraded):
		respondError(c, http.StatusConflict, "Quiz has already been submitted.")
	case errors.Is(err, quiz.ErrUnknownQuestion), errors.Is(err, quiz.ErrUnknownOption):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.handleErrorAndNotify(c, http.StatusInternalServerError, "Failed to save quiz progress", err)
	}
}

// HandleClearSession drops the stored study material and quiz progress.
func (h *Handler) HandleClearSession(c *gin.Context) {
	_, b := h.session(c)
	if err := b.Clear(); err != nil {
		h.handleErrorAndNotify(c, http.StatusInternalServerError, "Failed to clear session", err)
		return
	}
	c.Status(http.StatusNoContent)
}
