package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage abstracts file persistence for uploads and generated documents
type Storage interface {
	Save(ctx context.Context, header *multipart.FileHeader, subDir string) (string, error)
	SaveBytes(ctx context.Context, data []byte, filename, subDir string) (string, error)
	Open(relativePath string) (*os.File, error)
	Delete(ctx context.Context, relativePath string) error
	Exists(relativePath string) bool
	FullPath(relativePath string) string
}

// LocalStorage stores files on the local filesystem, partitioned by
// year/month so directories stay small.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) targetDir(subDir string) (string, error) {
	dir := filepath.Join(s.basePath, subDir, time.Now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	return dir, nil
}

// Save stores an uploaded file under a random name and returns the relative
// path for database storage.
func (s *LocalStorage) Save(ctx context.Context, header *multipart.FileHeader, subDir string) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir, err := s.targetDir(subDir)
	if err != nil {
		return "", err
	}

	filename := uuid.NewString() + filepath.Ext(header.Filename)
	filePath := filepath.Join(dir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("write file: %w", err)
	}

	relPath, _ := filepath.Rel(s.basePath, filePath)
	return relPath, nil
}

// SaveBytes stores generated content (receipts, exports) and returns the
// relative path.
func (s *LocalStorage) SaveBytes(ctx context.Context, data []byte, filename, subDir string) (string, error) {
	dir, err := s.targetDir(subDir)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(filename)
	filePath := filepath.Join(dir, name)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	relPath, _ := filepath.Rel(s.basePath, filePath)
	return relPath, nil
}

// Open returns a stored file for reading
func (s *LocalStorage) Open(relativePath string) (*os.File, error) {
	return os.Open(filepath.Join(s.basePath, relativePath))
}

// Delete removes a stored file
func (s *LocalStorage) Delete(ctx context.Context, relativePath string) error {
	return os.Remove(filepath.Join(s.basePath, relativePath))
}

// Exists checks if a stored file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, relativePath))
	return err == nil
}

// FullPath returns the absolute path for serving a stored file
func (s *LocalStorage) FullPath(relativePath string) string {
	return filepath.Join(s.basePath, relativePath)
}

var validContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// MaxUploadSize is the largest accepted upload (5MB, photos only)
const MaxUploadSize int64 = 5 * 1024 * 1024

// IsValidContentType checks if the content type is allowed for uploads
func IsValidContentType(contentType string) bool {
	return validContentTypes[contentType]
}
