package upload

import "time"

// PendingRedirect records a navigation request so the HTTP layer can render
// it as a delayed redirect.
type PendingRedirect struct {
	Path  string
	After time.Duration
}

func (r *PendingRedirect) Navigate(path string, after time.Duration) {
	r.Path = path
	r.After = after
}

func (r *PendingRedirect) Requested() bool { return r.Path != "" }
