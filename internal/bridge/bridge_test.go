package bridge

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"studyhelper/internal/models"
)

type mapStore struct {
	values  map[interface{}]interface{}
	saves   int
	saveErr error
}

func newMapStore() *mapStore {
	return &mapStore{values: map[interface{}]interface{}{}}
}

func (m *mapStore) Get(key interface{}) interface{}      { return m.values[key] }
func (m *mapStore) Set(key interface{}, val interface{}) { m.values[key] = val }
func (m *mapStore) Delete(key interface{})               { delete(m.values, key) }
func (m *mapStore) Save() error {
	m.saves++
	return m.saveErr
}

func TestReadNeverWritten(t *testing.T) {
	b := New(newMapStore())
	if _, ok := b.Read(SlotExplanation); ok {
		t.Fatalf("expected absent slot")
	}
	if _, err := b.Explanation(); !errors.Is(err, ErrAbsent) {
		t.Fatalf("expected ErrAbsent, got %v", err)
	}
	if b.Present() {
		t.Fatalf("empty session must not report data")
	}
}

func TestWriteOverwrites(t *testing.T) {
	b := New(newMapStore())
	if err := b.Write(SlotFilesProcessed, "1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Write(SlotFilesProcessed, "2"); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok := b.Read(SlotFilesProcessed)
	if !ok || got != "2" {
		t.Fatalf("got=%q ok=%v", got, ok)
	}
}

func TestHandoffRoundTrip(t *testing.T) {
	cases := map[string]string{
		"object": `{"success":true,"explanation":{"topic":"Cells","content":"one"},"quiz":{"question":"Q","options":["A) x","B) y"],"correctAnswer":"B"},"filesProcessed":1}`,
		"array":  `{"success":true,"explanation":[{"topic":"","content":["a","b"]}],"quiz":[{"question":"Q1","options":["A) 1","B) 2"]}],"filesProcessed":2}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var result models.ProcessingResult
			if err := json.Unmarshal([]byte(body), &result); err != nil {
				t.Fatalf("decode result: %v", err)
			}

			store := newMapStore()
			b := New(store)
			err := b.WriteHandoff(models.Handoff{
				Explanation:    result.Explanation,
				Quiz:           result.Quiz,
				FilesProcessed: result.ProcessedCount(),
			})
			if err != nil {
				t.Fatalf("write handoff: %v", err)
			}
			if store.saves != 1 {
				t.Fatalf("expected one save, got %d", store.saves)
			}

			explanation, err := b.Explanation()
			if err != nil {
				t.Fatalf("read explanation: %v", err)
			}
			if !reflect.DeepEqual(explanation, result.Explanation) {
				t.Fatalf("explanation mismatch: got=%+v want=%+v", explanation, result.Explanation)
			}
			quiz, raw, err := b.Quiz()
			if err != nil {
				t.Fatalf("read quiz: %v", err)
			}
			if raw == "" || !reflect.DeepEqual(quiz, result.Quiz) {
				t.Fatalf("quiz mismatch: got=%+v want=%+v", quiz, result.Quiz)
			}
			if !b.Present() {
				t.Fatalf("expected sentinel")
			}
			if got, _ := b.Read(SlotDataProcessed); got != "true" {
				t.Fatalf("sentinel=%q", got)
			}
			if b.FilesProcessed() != result.FilesProcessed {
				t.Fatalf("files processed=%d", b.FilesProcessed())
			}
		})
	}
}

func TestHandoffDropsQuizRuntime(t *testing.T) {
	store := newMapStore()
	b := New(store)
	_ = b.Write(SlotQuizRuntime, `{"graded":true}`)

	if err := b.WriteHandoff(models.Handoff{}); err != nil {
		t.Fatalf("write handoff: %v", err)
	}
	if _, ok := b.Read(SlotQuizRuntime); ok {
		t.Fatalf("quiz runtime should be dropped by a new upload")
	}
	if raw, _ := b.Read(SlotQuiz); raw != "[]" {
		t.Fatalf("nil quiz should be stored as empty array, got %q", raw)
	}
}

func TestStaleVersionReadsAsStale(t *testing.T) {
	store := newMapStore()
	b := New(store)
	_ = b.WriteHandoff(models.Handoff{Quiz: models.QuizPayload{{Question: "Q"}}})
	store.Set(SlotVersion, "0")

	if _, _, err := b.Quiz(); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if b.Present() {
		t.Fatalf("stale handoff must not count as present")
	}
}

func TestClearRemovesEverything(t *testing.T) {
	store := newMapStore()
	b := New(store)
	_ = b.WriteHandoff(models.Handoff{FilesProcessed: 3})
	_ = b.Write(SlotQuizRuntime, "{}")
	id, _ := b.ClientID()

	if err := b.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, slot := range handoffSlots {
		if _, ok := b.Read(slot); ok {
			t.Fatalf("slot %s survived clear", slot)
		}
	}
	again, _ := b.ClientID()
	if again != id {
		t.Fatalf("client id should survive clear")
	}
}

func TestSaveFailureSurfaces(t *testing.T) {
	store := newMapStore()
	store.saveErr = errors.New("disk full")
	b := New(store)
	if err := b.WriteHandoff(models.Handoff{}); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestClientIDIsStable(t *testing.T) {
	b := New(newMapStore())
	first, err := b.ClientID()
	if err != nil || first == "" {
		t.Fatalf("client id: %q %v", first, err)
	}
	second, _ := b.ClientID()
	if first != second {
		t.Fatalf("client id changed: %s -> %s", first, second)
	}
}
