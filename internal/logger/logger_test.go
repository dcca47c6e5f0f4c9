package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"session_secret", "abc", "files", 2, "GEMINI_API_KEY", "k", "dangling"})

	want := []interface{}{"session_secret", "[REDACTED]", "files", 2, "GEMINI_API_KEY", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: got=%d want=%d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got=%v want=%v", i, got[i], want[i])
		}
	}
}
