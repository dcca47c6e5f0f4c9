package api

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"studyhelper/internal/bridge"
	"studyhelper/internal/config"
	"studyhelper/internal/logger"
	"studyhelper/internal/notify"
	"studyhelper/internal/processor"
	"studyhelper/internal/upload"
)

const genericErrorMessage = "An internal server error occurred during processing. Please check server logs."

// Handler holds the dependencies shared by every request. Page controllers
// are created per request.
type Handler struct {
	cfg       config.Config
	log       *logger.Logger
	guard     upload.Guard
	backend   upload.Backend
	processor *processor.Service
	sinks     []notify.Sink
	alerts    *notify.Service
	pages     map[string]*template.Template
}

type Deps struct {
	Config    config.Config
	Logger    *logger.Logger
	Guard     upload.Guard
	Backend   upload.Backend
	Processor *processor.Service
	// Sinks receive every user notification in addition to the page itself.
	Sinks []notify.Sink
	// Alerts receive server-side failures, typically a webhook.
	Alerts []notify.Sink
}

// NewHandler creates a new Handler instance
func NewHandler(deps Deps) (*Handler, error) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	guard := deps.Guard
	if guard == nil {
		guard = upload.NewMemoryGuard()
	}
	backend := deps.Backend
	if backend == nil {
		backend = upload.NewClient(deps.Config.ProcessorURL, deps.Config.BackendTimeout)
	}
	proc := deps.Processor
	if proc == nil {
		proc = processor.NewService(nil, log)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		cfg:       deps.Config,
		log:       log,
		guard:     guard,
		backend:   backend,
		processor: proc,
		sinks:     deps.Sinks,
		alerts:    notify.NewService(deps.Alerts...),
		pages:     pages,
	}, nil
}

// notifier returns the per-request notification service. Extra sinks, such
// as a recorder for the response, are appended to the shared ones.
func (h *Handler) notifier(extra ...notify.Sink) *notify.Service {
	return notify.NewService(h.sinks...).With(extra...)
}

func (h *Handler) session(c *gin.Context) (sessions.Session, *bridge.Bridge) {
	session := sessions.Default(c)
	return session, bridge.New(session)
}

// respondError writes the standard {"error": ...} body.
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// handleErrorAndNotify logs a server-side failure, raises an operator alert
// and aborts the request with a generic message.
func (h *Handler) handleErrorAndNotify(c *gin.Context, statusCode int, errorContext string, err error) {
	h.log.Error(errorContext, "error", err, "path", c.Request.URL.Path, "status", statusCode)
	h.alerts.Notify(fmt.Sprintf("%s (%s %s): %v", errorContext, c.Request.Method, c.Request.URL.Path, err), notify.KindError)
	respondError(c, statusCode, genericErrorMessage)
}

func wantsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File size exceeds %dMB limit.", h.cfg.MaxUploadBytes/(1024*1024))
}

func (h *Handler) renderPage(c *gin.Context, status int, name string, data pageData) {
	tpl, ok := h.pages[name]
	if !ok {
		h.handleErrorAndNotify(c, http.StatusInternalServerError, "render page", fmt.Errorf("unknown page %q", name))
		return
	}
	data.Page = name
	c.Render(status, render.HTML{Template: tpl, Name: "layout.html", Data: data})
}
