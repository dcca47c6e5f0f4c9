package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"studyhelper/internal/explanation"
	"studyhelper/internal/notify"
	"studyhelper/internal/quiz"
	"studyhelper/internal/upload"
)

type redirectJSON struct {
	URL     string `json:"url"`
	AfterMs int64  `json:"afterMs"`
}

type uploadResponse struct {
	State           string                `json:"state"`
	Notifications   []notify.Notification `json:"notifications"`
	TriggerDisabled bool                  `json:"triggerDisabled"`
	Redirect        *redirectJSON         `json:"redirect,omitempty"`
}

// drainFlashes pops parked notifications and saves the session so they are
// shown once.
func (h *Handler) drainFlashes(session sessions.Session) []notify.Notification {
	notes := notify.PopFlashes(session)
	if len(notes) > 0 {
		if err := session.Save(); err != nil {
			h.log.Warn("failed to save session after reading flashes", "error", err)
		}
	}
	return notes
}

func (h *Handler) HandleUploadPage(c *gin.Context) {
	session, b := h.session(c)
	notes := h.drainFlashes(session)

	// The session cookie must exist before the first upload so that
	// concurrent submissions from this browser share one guard key.
	busy := false
	id, err := b.ClientID()
	if err != nil {
		h.log.Warn("failed to save session client id", "error", err)
	} else {
		held, err := h.guard.Held(c.Request.Context(), id)
		if err != nil {
			h.log.Warn("upload guard check failed", "error", err)
		}
		busy = held || err != nil
	}

	h.renderPage(c, http.StatusOK, pageUpload, pageData{
		Notifications:  notes,
		Upload:         &uploadView{TriggerDisabled: busy, MaxUploadMB: h.cfg.MaxUploadBytes / (1024 * 1024), State: upload.StateIdle.String()},
		HasMaterial:    b.Present(),
		FilesProcessed: b.FilesProcessed(),
	})
}

// HandleUpload runs one UploadController attempt for the submitted files.
func (h *Handler) HandleUpload(c *gin.Context) {
	_, b := h.session(c)

	clientID, err := b.ClientID()
	if err != nil {
		h.handleErrorAndNotify(c, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	var files []upload.File
	form, err := c.MultipartForm()
	switch {
	case isBodyTooLarge(err):
		respondError(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	case err == nil:
		files = upload.FromHeaders(form.File[upload.FilesField])
	}

	rec := &notify.Recorder{}
	trigger := upload.NewGuardTrigger(c.Request.Context(), h.guard, clientID, h.log)
	defer trigger.Release()
	redirect := &upload.PendingRedirect{}

	ctrl := upload.NewController(upload.Deps{
		Notifier:  h.notifier(rec),
		Handoff:   b,
		Backend:   h.backend,
		Trigger:   trigger,
		Navigator: redirect,
		Logger:    h.log,
	})
	err = ctrl.CaptureSelection(c.Request.Context(), files)

	var failed *upload.FailedError
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, upload.ErrEmptySelection):
		c.Status(http.StatusNoContent)
		return
	case errors.Is(err, upload.ErrInFlight):
		status = http.StatusConflict
	case errors.As(err, &failed):
		status = http.StatusBadGateway
	default:
		h.handleErrorAndNotify(c, http.StatusInternalServerError, "Upload failed", err)
		return
	}

	resp := uploadResponse{
		State:           ctrl.State().String(),
		Notifications:   rec.Notifications(),
		TriggerDisabled: trigger.ShowsDisabled() || errors.Is(err, upload.ErrInFlight),
	}
	if redirect.Requested() {
		resp.Redirect = &redirectJSON{URL: redirect.Path, AfterMs: redirect.After.Milliseconds()}
	}

	if wantsJSON(c) {
		c.JSON(status, resp)
		return
	}

	data := pageData{
		Notifications: resp.Notifications,
		Upload:        &uploadView{TriggerDisabled: resp.TriggerDisabled, MaxUploadMB: h.cfg.MaxUploadBytes / (1024 * 1024), State: resp.State},
	}
	if resp.Redirect != nil {
		data.Redirect = &redirectView{URL: resp.Redirect.URL, AfterMs: resp.Redirect.AfterMs}
	}
	h.renderPage(c, status, pageUpload, data)
}

func (h *Handler) HandleExplanationPage(c *gin.Context) {
	session, b := h.session(c)
	notes := h.drainFlashes(session)

	rec := &notify.Recorder{}
	view := explanation.NewRenderer(b, h.notifier(rec), h.log).Render()

	h.renderPage(c, http.StatusOK, pageExplanation, pageData{
		Notifications:  append(notes, rec.Notifications()...),
		Explanation:    &view,
		FilesProcessed: b.FilesProcessed(),
	})
}

func (h *Handler) HandleQuizPage(c *gin.Context) {
	session, b := h.session(c)
	notes := h.drainFlashes(session)

	rec := &notify.Recorder{}
	view := quiz.NewController(b, h.notifier(rec), h.log).Load()

	h.renderPage(c, http.StatusOK, pageQuiz, pageData{
		Notifications: append(notes, rec.Notifications()...),
		Quiz:          &view,
	})
}

// quizAction loads the quiz, applies action and parks the notifications the
// action raised for the redirected GET.
func (h *Handler) quizAction(c *gin.Context, action func(*quiz.Controller) error) {
	session, b := h.session(c)
	rec := &notify.Recorder{}
	ctrl := quiz.NewController(b, h.notifier(rec), h.log)
	ctrl.Load()
	loaded := len(rec.Notifications())

	if err := action(ctrl); err != nil {
		h.log.Debug("quiz action rejected", "path", c.Request.URL.Path, "error", err)
	}

	flash := notify.NewFlashSink(session)
	for _, n := range rec.Notifications()[loaded:] {
		flash.Deliver(n)
	}
	if err := session.Save(); err != nil {
		h.log.Warn("failed to save quiz notifications", "error", err)
	}
	c.Redirect(http.StatusSeeOther, "/quiz")
}

func (h *Handler) HandleQuizSelectForm(c *gin.Context) {
	question, errQ := strconv.Atoi(c.PostForm("question"))
	option, errO := strconv.Atoi(c.PostForm("option"))
	h.quizAction(c, func(ctrl *quiz.Controller) error {
		if errQ != nil || errO != nil {
			return errors.New("malformed selection")
		}
		_, err := ctrl.Select(question, option)
		return err
	})
}

func (h *Handler) HandleQuizSubmitForm(c *gin.Context) {
	h.quizAction(c, func(ctrl *quiz.Controller) error {
		_, err := ctrl.SubmitQuiz()
		return err
	})
}
