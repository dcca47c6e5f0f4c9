package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"studyhelper/internal/logger"
)

const (
	// MaxInlineSize is the maximum size for inline PDF data (20MB)
	MaxInlineSize = 20 * 1024 * 1024
	// DefaultModel is used when no model name is configured
	DefaultModel = "gemini-2.0-flash"

	maxAttempts     = 3
	retryDelay      = 2 * time.Second
	maxOutputTokens = 3000
	temperature     = 0.7
)

// Document is a file sent to the model as an inline blob.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Client wraps the Gemini client
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    *logger.Logger
}

// NewClient creates a Gemini client configured for JSON study-material output.
func NewClient(ctx context.Context, apiKey, modelName string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if log == nil {
		log = logger.Nop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemInstruction)}}
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)

	return &Client{
		client: client,
		model:  model,
		log:    log.With("component", "gemini", "model", modelName),
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() {
	c.client.Close()
}

// Generate sends the prompt followed by each document and returns the
// concatenated text of the first candidate. Empty or failed generations are
// retried.
func (c *Client) Generate(ctx context.Context, prompt string, docs []Document) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	for _, doc := range docs {
		parts = append(parts, genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data})
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("generation cancelled: %w", ctx.Err())
			case <-time.After(retryDelay):
			}
		}

		start := time.Now()
		resp, err := c.model.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = fmt.Errorf("failed to generate content (attempt %d): %w", attempt, err)
			c.log.Warn("gemini generation failed", "attempt", attempt, "error", err)
			continue
		}

		text := responseText(resp)
		if strings.TrimSpace(text) == "" {
			lastErr = fmt.Errorf("no content generated (attempt %d)", attempt)
			c.log.Warn("gemini returned no content", "attempt", attempt)
			continue
		}

		c.log.Debug("gemini generation complete", "attempt", attempt, "chars", len(text), "duration", time.Since(start))
		return text, nil
	}

	return "", fmt.Errorf("failed to generate content after %d attempts: %w", maxAttempts, lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
