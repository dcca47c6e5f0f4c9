package api

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"studyhelper/internal/explanation"
	"studyhelper/internal/notify"
	"studyhelper/internal/quiz"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFiles embed.FS

const (
	pageUpload      = "upload.html"
	pageExplanation = "explanation.html"
	pageQuiz        = "quiz.html"
)

type redirectView struct {
	URL     string
	AfterMs int64
}

// Seconds is the meta refresh delay.
func (r redirectView) Seconds() float64 {
	return float64(r.AfterMs) / float64(time.Second/time.Millisecond)
}

type uploadView struct {
	TriggerDisabled bool
	MaxUploadMB     int64
	State           string
}

type pageData struct {
	Page           string
	Notifications  []notify.Notification
	Redirect       *redirectView
	Upload         *uploadView
	Explanation    *explanation.View
	Quiz           *quiz.View
	HasMaterial    bool
	FilesProcessed int
}

func parsePages() (map[string]*template.Template, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{pageUpload, pageExplanation, pageQuiz} {
		tpl, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = tpl
	}
	return pages, nil
}

func (h *Handler) staticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
