// Package processor turns uploaded study files into an explanation and a
// quiz using a text generator.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"studyhelper/internal/gemini"
	"studyhelper/internal/logger"
	"studyhelper/internal/models"
)

const (
	MaxTextFileBytes = 5 * 1024 * 1024
	MaxContextChars  = 8000
	MinQuizQuestions = 5
	MinQuizOptions   = 4

	FallbackTopic       = "Study Material Analysis (Failed to Parse JSON)"
	FallbackExplanation = "Unable to generate explanation or parse response."
	QuizStatusSuccess   = "Success"

	truncationNote = "\n\n[...Content truncated for API processing efficiency]"
)

var ErrNotConfigured = errors.New("AI processing is not configured")

// InputError means the upload itself cannot be processed. Message is safe to
// show to the user.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// File is one uploaded file.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, docs []gemini.Document) (string, error)
}

type Service struct {
	gen Generator
	log *logger.Logger
}

// NewService returns a processor. A nil generator makes every Process call
// fail with ErrNotConfigured.
func NewService(gen Generator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{gen: gen, log: log.With("component", "processor")}
}

func (s *Service) Configured() bool { return s.gen != nil }

func (s *Service) Process(ctx context.Context, files []File) (*models.ProcessingResult, error) {
	if s.gen == nil {
		return nil, ErrNotConfigured
	}

	ex, err := extract(files)
	if err != nil {
		return nil, err
	}
	s.log.Info("files extracted",
		"processed", len(ex.processed),
		"documents", len(ex.docs),
		"text_chars", utf8.RuneCountInString(ex.text),
		"errors", len(ex.errors),
	)

	var (
		wg          sync.WaitGroup
		explanation models.ExplanationPayload
		quiz        models.QuizPayload
		quizStatus  string
	)
	start := time.Now()
	wg.Add(2)
	go func() {
		defer wg.Done()
		explanation = s.explain(ctx, ex)
	}()
	go func() {
		defer wg.Done()
		quiz, quizStatus = s.quiz(ctx, ex)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing cancelled: %w", err)
	}
	s.log.Info("study material generated",
		"sections", len(explanation),
		"questions", len(quiz),
		"quiz_status", quizStatus,
		"duration", time.Since(start),
	)

	return &models.ProcessingResult{
		Success:          true,
		Explanation:      explanation,
		Quiz:             quiz,
		FilesProcessed:   len(ex.processed),
		ProcessedFiles:   ex.processed,
		QuizStatus:       quizStatus,
		ExtractionErrors: ex.errors,
	}, nil
}

func (s *Service) explain(ctx context.Context, ex *extraction) models.ExplanationPayload {
	text, err := s.gen.Generate(ctx, gemini.ExplanationPrompt(ex.text, len(ex.docs)), ex.docs)
	if err != nil {
		s.log.Error("explanation generation failed", "error", err)
		text = ""
	}
	if payload, err := parseExplanation(text); err == nil {
		return payload
	} else if text != "" {
		s.log.Warn("explanation response unparseable, using fallback", "error", err)
	}
	return fallbackExplanation(text)
}

func (s *Service) quiz(ctx context.Context, ex *extraction) (models.QuizPayload, string) {
	text, err := s.gen.Generate(ctx, gemini.QuizPrompt(ex.text, len(ex.docs)), ex.docs)
	if err != nil {
		s.log.Error("quiz generation failed", "error", err)
		text = ""
	}
	questions := parseQuiz(text)
	if len(questions) < MinQuizQuestions {
		s.log.Warn("not enough valid quiz questions, using fallback", "valid", len(questions))
		return fallbackQuiz(), fmt.Sprintf(
			"Failed to generate enough valid questions (parsed only %d). Explanation generated successfully.",
			len(questions))
	}
	return questions, QuizStatusSuccess
}

func parseExplanation(text string) (models.ExplanationPayload, error) {
	raw, err := gemini.CleanJSON(text, false)
	if err != nil {
		raw, err = gemini.CleanJSON(text, true)
		if err != nil {
			return nil, err
		}
	}
	var payload models.ExplanationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("explanation has no sections")
	}
	return payload, nil
}

func fallbackExplanation(text string) models.ExplanationPayload {
	content := []string{FallbackExplanation}
	if text != "" {
		content = strings.Split(text, "\n\n")
		if len(content) > 5 {
			content = content[:5]
		}
	}
	return models.ExplanationPayload{{Topic: FallbackTopic, Content: content}}
}

type candidateQuestion struct {
	Question      interface{}   `json:"question"`
	Options       []interface{} `json:"options"`
	CorrectAnswer interface{}   `json:"correctAnswer"`
}

// parseQuiz keeps only questions with text, at least four options and an
// answer. Wrapped ({"quiz": [...]}, {"questions": [...]}) and single-object
// responses are accepted.
func parseQuiz(text string) models.QuizPayload {
	raw, err := gemini.CleanJSON(text, true)
	if err != nil {
		raw, err = gemini.CleanJSON(text, false)
		if err != nil {
			return nil
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil
		}
		items = []json.RawMessage{raw}
		for _, key := range []string{"quiz", "questions"} {
			var inner []json.RawMessage
			if err := json.Unmarshal(wrapper[key], &inner); err == nil && inner != nil {
				items = inner
				break
			}
		}
	}

	var valid models.QuizPayload
	for _, item := range items {
		var c candidateQuestion
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		question := truthyString(c.Question)
		answer := truthyString(c.CorrectAnswer)
		if question == "" || answer == "" || len(c.Options) < MinQuizOptions {
			continue
		}
		options := make([]string, 0, len(c.Options))
		for _, opt := range c.Options {
			options = append(options, fmt.Sprint(opt))
		}
		valid = append(valid, models.QuizQuestion{Question: question, Options: options, CorrectAnswer: answer})
	}
	return valid
}

func truthyString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if !val {
			return ""
		}
	}
	return fmt.Sprint(v)
}

func fallbackQuiz() models.QuizPayload {
	return models.QuizPayload{{
		Question: "Quiz generation failed (Error: Not enough valid questions generated).",
		Options: []string{
			"A) Please check the content.",
			"B) Try re-uploading the file.",
			"C) The material might be too short or complex.",
			"D) All of the above.",
		},
		CorrectAnswer: "D",
	}}
}

type extraction struct {
	text      string
	docs      []gemini.Document
	processed []string
	errors    []string
}

func extract(files []File) (*extraction, error) {
	ex := &extraction{}
	var combined strings.Builder

	for _, f := range files {
		name := cleanName(f.Name())
		if name == "" {
			continue
		}
		kind := strings.ToLower(path.Ext(name))
		if kind != ".pdf" && kind != ".txt" {
			ex.errors = append(ex.errors, fmt.Sprintf("%s: File type not supported. Only PDF and TXT are supported.", name))
			continue
		}

		data, err := readFile(f, kind)
		if err != nil {
			ex.errors = append(ex.errors, fmt.Sprintf("%s: Processing error: %v", name, err))
			continue
		}

		switch kind {
		case ".txt":
			text := strings.ToValidUTF8(string(data), "")
			if strings.TrimSpace(text) == "" {
				ex.errors = append(ex.errors, fmt.Sprintf("%s: Could not extract text (returned empty content).", name))
				continue
			}
			fmt.Fprintf(&combined, "\n\n--- Content from %s ---\n\n%s", name, text)
		case ".pdf":
			if len(data) == 0 {
				ex.errors = append(ex.errors, fmt.Sprintf("%s: Could not extract text (returned empty content).", name))
				continue
			}
			if len(data) > gemini.MaxInlineSize {
				ex.errors = append(ex.errors, fmt.Sprintf("%s: PDF is larger than the 20MB processing limit.", name))
				continue
			}
			ex.docs = append(ex.docs, gemini.Document{Name: name, MIMEType: "application/pdf", Data: data})
		}
		ex.processed = append(ex.processed, name)
	}

	text := combined.String()
	if strings.TrimSpace(text) == "" && len(ex.docs) == 0 {
		msg := "Could not extract usable text from files."
		if len(ex.errors) > 0 {
			msg += " Detailed errors: " + strings.Join(ex.errors, " | ")
		}
		return nil, &InputError{Message: msg}
	}

	if utf8.RuneCountInString(text) > MaxContextChars {
		text = string([]rune(text)[:MaxContextChars]) + truncationNote
	}
	ex.text = strings.TrimSpace(text)
	return ex, nil
}

func readFile(f File, kind string) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := int64(gemini.MaxInlineSize + 1)
	if kind == ".txt" {
		limit = MaxTextFileBytes
	}
	return io.ReadAll(io.LimitReader(rc, limit))
}

// cleanName drops any directory components a browser may send.
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
