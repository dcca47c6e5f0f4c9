// Package upload drives one file-upload attempt: it submits the selection to
// the processing backend, stores the result for the next pages and reports
// progress through notifications.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyhelper/internal/bridge"
	"studyhelper/internal/logger"
	"studyhelper/internal/models"
	"studyhelper/internal/notify"
)

const (
	ProcessingMessage = "Processing your files... this may take a moment"
	SuccessMessage    = "Files processed successfully! Loading your study material..."
	FallbackMessage   = "Failed to process files. Please try again."

	ExplanationPath = "/explanation"
	RedirectDelay   = 1500 * time.Millisecond
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

var (
	ErrEmptySelection = errors.New("no files selected")
	ErrInFlight       = errors.New("an upload is already in progress")
)

// FailedError is returned when an attempt ends in the Failed state. Message
// is what the user was shown.
type FailedError struct {
	Message string
	Err     error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload failed: %s: %v", e.Message, e.Err)
	}
	return "upload failed: " + e.Message
}

func (e *FailedError) Unwrap() error { return e.Err }

// Backend submits every file in a single request.
type Backend interface {
	Process(ctx context.Context, files []File) (*models.ProcessingResult, error)
}

// Trigger is the upload control. Disable reports false when the control was
// already disabled by someone else.
type Trigger interface {
	Disabled() bool
	Disable() bool
	Enable()
}

type Navigator interface {
	Navigate(path string, after time.Duration)
}

type Deps struct {
	Notifier  notify.Notifier
	Handoff   bridge.HandoffWriter
	Backend   Backend
	Trigger   Trigger
	Navigator Navigator
	Logger    *logger.Logger
}

// Controller handles a single upload attempt and is not safe for concurrent use.
type Controller struct {
	notifier notify.Notifier
	handoff  bridge.HandoffWriter
	backend  Backend
	trigger  Trigger
	nav      Navigator
	log      *logger.Logger
	state    State
}

func NewController(deps Deps) *Controller {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		notifier: deps.Notifier,
		handoff:  deps.Handoff,
		backend:  deps.Backend,
		trigger:  deps.Trigger,
		nav:      deps.Navigator,
		log:      log.With("component", "upload"),
		state:    StateIdle,
	}
}

func (c *Controller) State() State { return c.state }

// CaptureSelection is the entry point for both click-to-browse and drop.
func (c *Controller) CaptureSelection(ctx context.Context, files []File) error {
	if len(files) == 0 {
		return ErrEmptySelection
	}
	if c.trigger.Disabled() {
		c.log.Debug("selection ignored while upload in flight", "files", len(files))
		return ErrInFlight
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	c.notifier.Notify(fmt.Sprintf("%d file(s) selected: %s", len(files), strings.Join(names, ", ")), notify.KindInfo)

	return c.Submit(ctx, files)
}

func (c *Controller) Submit(ctx context.Context, files []File) error {
	if len(files) == 0 {
		return ErrEmptySelection
	}
	if !c.trigger.Disable() {
		return ErrInFlight
	}
	c.state = StateSubmitting
	c.notifier.Notify(ProcessingMessage, notify.KindInfo)

	start := time.Now()
	result, err := c.backend.Process(ctx, files)
	if err != nil {
		return c.fail(messageFor(err), err)
	}
	if !result.Complete() {
		msg := ""
		if result != nil {
			msg = strings.TrimSpace(result.Error)
		}
		if msg == "" {
			msg = FallbackMessage
		}
		return c.fail(msg, nil)
	}

	handoff := models.Handoff{
		Explanation:    result.Explanation,
		Quiz:           result.Quiz,
		FilesProcessed: result.ProcessedCount(),
	}
	if err := c.handoff.WriteHandoff(handoff); err != nil {
		return c.fail(FallbackMessage, err)
	}

	c.state = StateSucceeded
	c.log.Info("upload processed",
		"files", len(files),
		"files_processed", handoff.FilesProcessed,
		"sections", len(handoff.Explanation),
		"questions", len(handoff.Quiz),
		"duration", time.Since(start),
	)
	c.notifier.Notify(SuccessMessage, notify.KindSuccess)
	c.nav.Navigate(ExplanationPath, RedirectDelay)
	return nil
}

func (c *Controller) fail(message string, cause error) error {
	c.state = StateFailed
	if cause != nil {
		c.log.Warn("upload failed", "message", message, "error", cause)
	} else {
		c.log.Warn("upload failed", "message", message)
	}
	c.notifier.Notify(message, notify.KindError)
	c.trigger.Enable()
	return &FailedError{Message: message, Err: cause}
}

// messageFor picks the most specific user-facing text for a backend error.
func messageFor(err error) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) && strings.TrimSpace(backendErr.Message) != "" {
		return backendErr.Message
	}
	return FallbackMessage
}
