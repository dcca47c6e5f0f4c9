package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyhelper/internal/processor"
	"studyhelper/internal/upload"
)

// HandleProcessFiles is the AI processing endpoint the upload page posts to.
func (h *Handler) HandleProcessFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		respondError(c, http.StatusBadRequest, "No files provided")
		return
	}

	headers, ok := form.File[upload.FilesField]
	if !ok || len(headers) == 0 {
		respondError(c, http.StatusBadRequest, "No files provided")
		return
	}
	if headers[0].Filename == "" {
		respondError(c, http.StatusBadRequest, "No files selected")
		return
	}

	uploaded := upload.FromHeaders(headers)
	files := make([]processor.File, 0, len(uploaded))
	for _, f := range uploaded {
		files = append(files, f)
	}

	result, err := h.processor.Process(c.Request.Context(), files)
	var inputErr *processor.InputError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.As(err, &inputErr):
		respondError(c, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, processor.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, processor.ErrNotConfigured.Error())
	default:
		h.handleErrorAndNotify(c, http.StatusInternalServerError, "Processing files failed", err)
	}
}
