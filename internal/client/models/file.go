package models

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// LocalFile is a handle to media on the local machine.
type LocalFile struct {
	Path        string
	Name        string
	Size        int64
	ContentType string

	open func() (io.ReadCloser, error)
}

// OpenLocalFile stats path and sniffs its content type.
func OpenLocalFile(path string) (*LocalFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect content type of %s: %w", path, err)
	}

	return &LocalFile{
		Path:        path,
		Name:        filepath.Base(path),
		Size:        st.Size(),
		ContentType: mt.String(),
	}, nil
}

// NewMemoryFile wraps data as a LocalFile. An empty contentType is sniffed.
func NewMemoryFile(name, contentType string, data []byte) *LocalFile {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return &LocalFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file contents.
func (f *LocalFile) Open() (io.ReadCloser, error) {
	if f.open != nil {
		return f.open()
	}
	return os.Open(f.Path)
}

// Spec is the negotiation view of the file.
func (f *LocalFile) Spec() FileSpec {
	return FileSpec{Name: f.Name, Size: f.Size, ContentType: f.ContentType}
}
