package gemini

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoJSON      = errors.New("no JSON value found in model output")
	ErrInvalidJSON = errors.New("model output is not valid JSON")
)

var (
	fenceOpenPattern     = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	controlCharPattern   = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

	typographyReplacer = strings.NewReplacer(
		"\u201c", `"`,
		"\u201d", `"`,
		"\u2018", "'",
		"\u2019", "'",
		"\u00a0", " ",
	)
)

// CleanJSON isolates the JSON array (list) or object in model output and
// repairs the formatting slips models commonly make.
func CleanJSON(text string, list bool) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoJSON
	}

	if strings.HasPrefix(text, "```") {
		text = fenceOpenPattern.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(strings.TrimSuffix(text, "```"))

	open, closing := "{", "}"
	if list {
		open, closing = "[", "]"
	}
	start := strings.Index(text, open)
	end := strings.LastIndex(text, closing)
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSON
	}

	content := text[start : end+1]
	content = typographyReplacer.Replace(content)
	content = controlCharPattern.ReplaceAllString(content, "")

	if json.Valid([]byte(content)) {
		return json.RawMessage(content), nil
	}
	fixed := trailingCommaPattern.ReplaceAllString(content, "$1")
	if json.Valid([]byte(fixed)) {
		return json.RawMessage(fixed), nil
	}
	return nil, ErrInvalidJSON
}
