package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"studyhelper/internal/logger"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

const (
	errorDismissAfter   = 5000 * time.Millisecond
	defaultDismissAfter = 3000 * time.Millisecond
)

// Notification is one transient, dismissible banner.
type Notification struct {
	ID             string `json:"id"`
	Message        string `json:"message"`
	Kind           Kind   `json:"kind"`
	DismissAfterMs int64  `json:"dismissAfterMs"`
}

// DismissAfter is how long a banner of the given kind stays on screen.
func DismissAfter(kind Kind) time.Duration {
	if kind == KindError {
		return errorDismissAfter
	}
	return defaultDismissAfter
}

// Notifier is what the page controllers depend on.
type Notifier interface {
	Notify(message string, kind Kind)
}

// Sink presents or records a notification. Deliver must not block for long.
type Sink interface {
	Deliver(n Notification)
}

// Service fans each notification out to every sink. Calls are independent:
// nothing is queued or de-duplicated.
type Service struct {
	sinks []Sink
}

func NewService(sinks ...Sink) *Service {
	return &Service{sinks: sinks}
}

// With returns a service that also delivers to the given sinks.
func (s *Service) With(sinks ...Sink) *Service {
	merged := make([]Sink, 0, len(s.sinks)+len(sinks))
	merged = append(merged, s.sinks...)
	merged = append(merged, sinks...)
	return &Service{sinks: merged}
}

func (s *Service) Notify(message string, kind Kind) {
	switch kind {
	case KindInfo, KindSuccess, KindWarning, KindError:
	default:
		kind = KindInfo
	}
	n := Notification{
		ID:             uuid.NewString(),
		Message:        message,
		Kind:           kind,
		DismissAfterMs: DismissAfter(kind).Milliseconds(),
	}
	for _, sink := range s.sinks {
		if sink != nil {
			sink.Deliver(n)
		}
	}
}

// Recorder keeps every delivered notification in order.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Deliver(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// LogSink writes each notification as a structured log line.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.With("component", "notify")}
}

func (s *LogSink) Deliver(n Notification) {
	switch n.Kind {
	case KindError:
		s.log.Warn("notification", "kind", n.Kind, "message", n.Message)
	default:
		s.log.Debug("notification", "kind", n.Kind, "message", n.Message)
	}
}
