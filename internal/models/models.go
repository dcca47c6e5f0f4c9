package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultTopic labels an explanation section that arrived without a topic.
const DefaultTopic = "Study Material"

// ProcessingResult is the JSON body returned by POST /api/process-files.
type ProcessingResult struct {
	Success          bool               `json:"success"`
	Explanation      ExplanationPayload `json:"explanation"`
	Quiz             QuizPayload        `json:"quiz"`
	FilesProcessed   int                `json:"filesProcessed"`
	Error            string             `json:"error,omitempty"`
	ProcessedFiles   []string           `json:"processedFiles,omitempty"`
	QuizStatus       string             `json:"quizStatus,omitempty"`
	ExtractionErrors []string           `json:"extractionErrors,omitempty"`
}

// Complete reports whether a successful result carries both payloads.
func (r *ProcessingResult) Complete() bool {
	return r != nil && r.Success && r.Explanation != nil && r.Quiz != nil
}

// ProcessedCount falls back to the processed file names when the count is missing.
func (r *ProcessingResult) ProcessedCount() int {
	if r.FilesProcessed == 0 && len(r.ProcessedFiles) > 0 {
		return len(r.ProcessedFiles)
	}
	return r.FilesProcessed
}

// Handoff is the typed payload carried from the upload page to the
// explanation and quiz pages.
type Handoff struct {
	Explanation    ExplanationPayload
	Quiz           QuizPayload
	FilesProcessed int
}

type ExplanationSection struct {
	Topic   string   `json:"topic"`
	Content []string `json:"content"`
}

// ExplanationPayload accepts either a single section object or an array of
// them and always holds a sequence once decoded.
type ExplanationPayload []ExplanationSection

func (p *ExplanationPayload) UnmarshalJSON(data []byte) error {
	items, err := objectOrArray(data)
	if err != nil {
		return fmt.Errorf("explanation payload: %w", err)
	}
	if items == nil {
		*p = nil
		return nil
	}

	sections := make(ExplanationPayload, 0, len(items))
	for _, item := range items {
		var raw struct {
			Topic   json.RawMessage `json:"topic"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(item, &raw); err != nil {
			return fmt.Errorf("explanation section: %w", err)
		}

		topic := strings.TrimSpace(scalarString(raw.Topic))
		if topic == "" {
			topic = DefaultTopic
		}
		sections = append(sections, ExplanationSection{
			Topic:   topic,
			Content: coerceStrings(raw.Content),
		})
	}
	*p = sections
	return nil
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// QuizPayload accepts either a single question object or an array of them.
// Elements that are not objects decode to an empty question, which the quiz
// page drops.
type QuizPayload []QuizQuestion

func (p *QuizPayload) UnmarshalJSON(data []byte) error {
	items, err := objectOrArray(data)
	if err != nil {
		return fmt.Errorf("quiz payload: %w", err)
	}
	if items == nil {
		*p = nil
		return nil
	}

	questions := make(QuizPayload, 0, len(items))
	for _, item := range items {
		var raw struct {
			Question      json.RawMessage `json:"question"`
			Options       json.RawMessage `json:"options"`
			CorrectAnswer json.RawMessage `json:"correctAnswer"`
		}
		if err := json.Unmarshal(item, &raw); err != nil {
			questions = append(questions, QuizQuestion{})
			continue
		}

		var options []string
		if len(raw.Options) > 0 && !isNull(raw.Options) {
			options = coerceStrings(raw.Options)
		}
		questions = append(questions, QuizQuestion{
			Question:      scalarString(raw.Question),
			Options:       options,
			CorrectAnswer: scalarString(raw.CorrectAnswer),
		})
	}
	*p = questions
	return nil
}

// objectOrArray returns the elements of a JSON array, a one-element slice for
// a JSON object, or nil for null.
func objectOrArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || isNull(trimmed) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return items, nil
	case '{':
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %q", string(trimmed[:1]))
	}
}

// coerceStrings turns an array into its string elements and anything else
// (including a missing value) into a one-element sequence.
func coerceStrings(data json.RawMessage) []string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			out := make([]string, 0, len(items))
			for _, item := range items {
				out = append(out, scalarString(item))
			}
			return out
		}
	}
	return []string{scalarString(trimmed)}
}

func scalarString(data json.RawMessage) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || isNull(trimmed) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}
