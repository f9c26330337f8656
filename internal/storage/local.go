package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is where saved files are served from.
const URLPrefix = "/uploads"

// Kind selects the accepted content types of an upload.
type Kind string

const (
	KindCV   Kind = "cv"
	KindLogo Kind = "logo"
)

var (
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
)

var allowedTypes = map[Kind][]string{
	KindCV: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	KindLogo: {
		"image/png",
		"image/jpeg",
		"image/svg+xml",
	},
}

// LocalStore keeps uploads on the local filesystem under one directory.
type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs the content, stores it under a random name and returns its URL.
// The client supplied file name and content type are ignored.
func (s *LocalStore) Save(ctx context.Context, kind Kind, r io.Reader) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyFile
	}
	if n > s.maxBytes {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	detected := mimetype.Detect(buf.Bytes())
	if !accepts(kind, detected) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}

	name := uuid.NewString() + detected.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return path.Join(URLPrefix, name), nil
}

// Delete removes a file previously returned by Save. Unknown URLs are ignored.
func (s *LocalStore) Delete(url string) error {
	name := strings.TrimPrefix(url, URLPrefix+"/")
	if name == url || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

func accepts(kind Kind, detected *mimetype.MIME) bool {
	for _, allowed := range allowedTypes[kind] {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
