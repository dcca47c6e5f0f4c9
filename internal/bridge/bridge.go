// Package bridge carries study material from the upload page to the
// explanation and quiz pages through the browser session.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"studyhelper/internal/models"
)

// Slot names shared by every page.
const (
	SlotExplanation    = "explanationData"
	SlotQuiz           = "quizData"
	SlotFilesProcessed = "filesProcessed"
	SlotDataProcessed  = "dataProcessed"
	SlotVersion        = "handoffVersion"
	SlotQuizRuntime    = "quizRuntime"
	SlotClientID       = "clientID"

	Sentinel      = "true"
	SchemaVersion = "1"
)

var handoffSlots = []string{
	SlotExplanation,
	SlotQuiz,
	SlotFilesProcessed,
	SlotDataProcessed,
	SlotVersion,
	SlotQuizRuntime,
}

var (
	ErrAbsent = errors.New("no study material in session")
	ErrStale  = errors.New("study material was written by an incompatible version")
)

// Store is the subset of sessions.Session the bridge needs.
type Store interface {
	Get(key interface{}) interface{}
	Set(key interface{}, val interface{})
	Delete(key interface{})
	Save() error
}

// HandoffWriter is what the upload controller depends on.
type HandoffWriter interface {
	WriteHandoff(h models.Handoff) error
}

type Bridge struct {
	store Store
}

func New(store Store) *Bridge {
	return &Bridge{store: store}
}

// Write overwrites a slot and saves the session.
func (b *Bridge) Write(slot, value string) error {
	b.store.Set(slot, value)
	if err := b.store.Save(); err != nil {
		return fmt.Errorf("save session slot %s: %w", slot, err)
	}
	return nil
}

// Read returns the stored string and false when the slot was never written.
func (b *Bridge) Read(slot string) (string, bool) {
	value, ok := b.store.Get(slot).(string)
	return value, ok
}

// WriteHandoff replaces the whole handoff in one save and drops any quiz
// progress from an earlier upload.
func (b *Bridge) WriteHandoff(h models.Handoff) error {
	explanation := h.Explanation
	if explanation == nil {
		explanation = models.ExplanationPayload{}
	}
	quiz := h.Quiz
	if quiz == nil {
		quiz = models.QuizPayload{}
	}

	rawExplanation, err := json.Marshal(explanation)
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}
	rawQuiz, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}

	b.store.Delete(SlotQuizRuntime)
	b.store.Set(SlotExplanation, string(rawExplanation))
	b.store.Set(SlotQuiz, string(rawQuiz))
	b.store.Set(SlotFilesProcessed, strconv.Itoa(h.FilesProcessed))
	b.store.Set(SlotDataProcessed, Sentinel)
	b.store.Set(SlotVersion, SchemaVersion)

	if err := b.store.Save(); err != nil {
		return fmt.Errorf("save handoff: %w", err)
	}
	return nil
}

// Present reports whether a current-version handoff is stored.
func (b *Bridge) Present() bool {
	flag, ok := b.Read(SlotDataProcessed)
	return ok && flag == Sentinel && b.current()
}

func (b *Bridge) current() bool {
	version, _ := b.Read(SlotVersion)
	return version == SchemaVersion
}

// Raw returns a handoff slot after the version check.
func (b *Bridge) Raw(slot string) (string, error) {
	value, ok := b.Read(slot)
	if !ok {
		return "", ErrAbsent
	}
	if !b.current() {
		return "", ErrStale
	}
	return value, nil
}

func (b *Bridge) Explanation() (models.ExplanationPayload, error) {
	raw, err := b.Raw(SlotExplanation)
	if err != nil {
		return nil, err
	}
	var payload models.ExplanationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", SlotExplanation, err)
	}
	return payload, nil
}

// Quiz decodes the quiz slot and also returns its raw text, which callers use
// to tell one upload's quiz from another's.
func (b *Bridge) Quiz() (models.QuizPayload, string, error) {
	raw, err := b.Raw(SlotQuiz)
	if err != nil {
		return nil, "", err
	}
	var payload models.QuizPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, raw, fmt.Errorf("decode %s: %w", SlotQuiz, err)
	}
	return payload, raw, nil
}

func (b *Bridge) FilesProcessed() int {
	raw, err := b.Raw(SlotFilesProcessed)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// Clear removes every handoff slot and the quiz runtime.
func (b *Bridge) Clear() error {
	for _, slot := range handoffSlots {
		b.store.Delete(slot)
	}
	if err := b.store.Save(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ClientID returns the per-browser identifier, minting one on first use.
func (b *Bridge) ClientID() (string, error) {
	if id, ok := b.Read(SlotClientID); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	if err := b.Write(SlotClientID, id); err != nil {
		return "", err
	}
	return id, nil
}
