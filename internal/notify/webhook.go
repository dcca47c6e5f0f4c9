package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studyhelper/internal/logger"
)

// Embed colours per kind, decimal RGB as Discord expects.
var embedColors = map[Kind]int{
	KindInfo:    0x3498DB,
	KindSuccess: 0x00FF00,
	KindWarning: 0xFFA500,
	KindError:   0xFF0000,
}

type webhookEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Color       int    `json:"color,omitempty"`
}

type webhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []webhookEmbed `json:"embeds"`
}

// WebhookSink forwards notifications of at least MinKind to a
// Discord-compatible webhook. Delivery runs on its own goroutine.
type WebhookSink struct {
	url     string
	minKind Kind
	client  *http.Client
	log     *logger.Logger
	sent    func() // test hook, called after each attempt
}

func NewWebhookSink(url string, minKind Kind, log *logger.Logger) *WebhookSink {
	return &WebhookSink{
		url:     url,
		minKind: minKind,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log.With("component", "notify_webhook"),
	}
}

func (s *WebhookSink) Deliver(n Notification) {
	if s.url == "" || severity(n.Kind) < severity(s.minKind) {
		return
	}
	go func() {
		if s.sent != nil {
			defer s.sent()
		}
		if err := s.post(n); err != nil {
			s.log.Error("webhook delivery failed", "error", err)
		}
	}()
}

func (s *WebhookSink) post(n Notification) error {
	payload := webhookPayload{
		Username: "Study Helper",
		Embeds: []webhookEmbed{{
			Title:       fmt.Sprintf("Notification: %s", n.Kind),
			Description: n.Message,
			Timestamp:   time.Now().Format(time.RFC3339),
			Color:       embedColors[n.Kind],
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}

func severity(kind Kind) int {
	switch kind {
	case KindSuccess:
		return 1
	case KindWarning:
		return 2
	case KindError:
		return 3
	default:
		return 0
	}
}
