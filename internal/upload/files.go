package upload

import (
	"bytes"
	"io"
	"mime/multipart"
)

// File is one entry of a selection. Open may be called more than once.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type headerFile struct {
	header *multipart.FileHeader
}

func (f headerFile) Name() string { return f.header.Filename }

func (f headerFile) Open() (io.ReadCloser, error) { return f.header.Open() }

// FromHeaders adapts the parts of a parsed multipart form, preserving order.
func FromHeaders(headers []*multipart.FileHeader) []File {
	files := make([]File, 0, len(headers))
	for _, h := range headers {
		if h == nil {
			continue
		}
		files = append(files, headerFile{header: h})
	}
	return files
}

// MemoryFile is an in-memory File.
type MemoryFile struct {
	FileName string
	Data     []byte
}

func (f MemoryFile) Name() string { return f.FileName }

func (f MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
