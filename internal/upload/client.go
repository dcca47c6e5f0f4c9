package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"studyhelper/internal/models"
)

// FilesField is the repeated multipart field the processing endpoint reads.
const FilesField = "files"

// BackendError is a non-2xx answer from the processing endpoint.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("processing backend returned status %d", e.Status)
	}
	return fmt.Sprintf("processing backend returned status %d: %s", e.Status, e.Message)
}

// Client posts selections to the processing endpoint over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a client for url. A zero timeout means the request runs
// until the backend answers or the caller's context ends.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Process(ctx context.Context, files []File) (*models.ProcessingResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		if err := writeFilePart(writer, f); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("create processing request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("processing request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read processing response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &errBody)
		return nil, &BackendError{Status: resp.StatusCode, Message: errBody.Error}
	}

	var result models.ProcessingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode processing response: %w", err)
	}
	return &result, nil
}

func writeFilePart(writer *multipart.Writer, f File) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name(), err)
	}
	defer src.Close()

	part, err := writer.CreateFormFile(FilesField, f.Name())
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name(), err)
	}
	return nil
}
