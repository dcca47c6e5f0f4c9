package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"studyhelper/internal/logger"
)

func TestServiceDismissTimesAndKinds(t *testing.T) {
	rec := &Recorder{}
	svc := NewService(rec)

	svc.Notify("boom", KindError)
	svc.Notify("ok", KindSuccess)
	svc.Notify("odd", Kind("shout"))
	svc.Notify("ok", KindSuccess)

	got := rec.Notifications()
	if len(got) != 4 {
		t.Fatalf("expected 4 independent notifications, got %d", len(got))
	}
	if got[0].DismissAfterMs != 5000 {
		t.Fatalf("error dismiss: got=%d want=5000", got[0].DismissAfterMs)
	}
	if got[1].DismissAfterMs != 3000 {
		t.Fatalf("success dismiss: got=%d want=3000", got[1].DismissAfterMs)
	}
	if got[2].Kind != KindInfo {
		t.Fatalf("unknown kind should coerce to info, got %q", got[2].Kind)
	}
	if got[1].ID == got[3].ID {
		t.Fatalf("repeated messages must not be de-duplicated")
	}
}

func TestServiceWithAddsSinks(t *testing.T) {
	base := &Recorder{}
	extra := &Recorder{}
	svc := NewService(base).With(extra)

	svc.Notify("hello", KindInfo)

	if len(base.Notifications()) != 1 || len(extra.Notifications()) != 1 {
		t.Fatalf("expected delivery to both sinks")
	}
}

type fakeFlashes struct {
	items map[string][]interface{}
}

func (f *fakeFlashes) AddFlash(value interface{}, vars ...string) {
	if f.items == nil {
		f.items = map[string][]interface{}{}
	}
	f.items[vars[0]] = append(f.items[vars[0]], value)
}

func (f *fakeFlashes) Flashes(vars ...string) []interface{} {
	out := f.items[vars[0]]
	delete(f.items, vars[0])
	return out
}

func TestFlashSinkRoundTrip(t *testing.T) {
	store := &fakeFlashes{}
	svc := NewService(NewFlashSink(store))

	svc.Notify("Please answer all questions before submitting.", KindWarning)

	got := PopFlashes(store)
	if len(got) != 1 || got[0].Kind != KindWarning {
		t.Fatalf("unexpected flashes: %+v", got)
	}
	if again := PopFlashes(store); len(again) != 0 {
		t.Fatalf("flashes must drain, got %+v", again)
	}
}

func TestWebhookSinkOnlyForwardsErrors(t *testing.T) {
	var mu sync.Mutex
	var received []webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var wg sync.WaitGroup
	sink := NewWebhookSink(srv.URL, KindError, logger.Nop())
	sink.sent = wg.Done

	wg.Add(1)
	svc := NewService(sink)
	svc.Notify("fine", KindSuccess)
	svc.Notify("backend down", KindError)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected one webhook call, got %d", len(received))
	}
	if received[0].Embeds[0].Description != "backend down" {
		t.Fatalf("unexpected payload: %+v", received[0])
	}
}
