package notify

import "encoding/json"

const flashKey = "notifications"

// FlashStore is the flash subset of a gin-contrib/sessions Session.
type FlashStore interface {
	AddFlash(value interface{}, vars ...string)
	Flashes(vars ...string) []interface{}
}

// FlashSink parks notifications in the session so they survive a
// POST/redirect/GET round trip. The caller saves the session.
type FlashSink struct {
	store FlashStore
}

func NewFlashSink(store FlashStore) *FlashSink {
	return &FlashSink{store: store}
}

func (s *FlashSink) Deliver(n Notification) {
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	s.store.AddFlash(string(raw), flashKey)
}

// PopFlashes drains the notifications parked by a FlashSink.
func PopFlashes(store FlashStore) []Notification {
	var out []Notification
	for _, item := range store.Flashes(flashKey) {
		raw, ok := item.(string)
		if !ok {
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
