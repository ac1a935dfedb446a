package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the per-file ceiling enforced at the storage boundary.
const MaxUploadSize = 200 << 20 // 200MB

// ErrFileTooLarge is returned when an upload exceeds MaxUploadSize.
var ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

var allowedExtensions = map[string]bool{
	"log":  true,
	"csv":  true,
	"xlsx": true,
	"txt":  true,
}

// TypeTag extracts the declared type tag from a filename's extension.
// Unknown extensions return ErrUnsupportedFileType.
func TypeTag(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	return ext, nil
}

// Storage saves and serves uploaded file blobs under a single directory.
// On-disk names are random so user-supplied filenames never touch the
// filesystem.
type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save validates the filename's extension and size, then writes the blob to
// disk. It returns the storage path for later reads.
func (s *Storage) Save(filename string, content []byte) (string, error) {
	tag, err := TypeTag(filename)
	if err != nil {
		return "", err
	}
	if int64(len(content)) > MaxUploadSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}

	path := filepath.Join(s.dir, uuid.NewString()+"."+tag)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file blob: %w", err)
	}
	return path, nil
}

func (s *Storage) Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file blob: %w", err)
	}
	return content, nil
}

func (s *Storage) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file blob: %w", err)
	}
	return nil
}
