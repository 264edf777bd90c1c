package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/attendance/internal/pkg/logger"
)

// ErrEmptyFile is returned when no file part was uploaded
var ErrEmptyFile = errors.New("no file uploaded")

// StoredFile describes a file written to storage
type StoredFile struct {
	// Path is relative to the storage root, always slash separated
	Path     string
	URL      string
	Filename string
	Size     int64
	MimeType string
}

// Storage is implemented by file backends
type Storage interface {
	Save(fileHeader *multipart.FileHeader, subDir string) (*StoredFile, error)
	Delete(relPath string) error
	URLFor(relPath string) string
}

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // root directory on disk
	baseURL  string // public prefix, e.g. "/uploads"
}

// NewLocalStorage creates the base directory and returns a LocalStorage.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath returns the directory files are written to
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Save writes the upload under subDir with a collision free name.
func (ls *LocalStorage) Save(fileHeader *multipart.FileHeader, subDir string) (*StoredFile, error) {
	if fileHeader == nil || fileHeader.Size == 0 {
		return nil, ErrEmptyFile
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	subDir = cleanRelative(subDir)
	dir := filepath.Join(ls.basePath, filepath.FromSlash(subDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	rel := path.Join(subDir, name)
	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", rel).Msg("File saved successfully")

	return &StoredFile{
		Path:     rel,
		URL:      ls.URLFor(rel),
		Filename: fileHeader.Filename,
		Size:     written,
		MimeType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

// Delete removes a stored file. Missing files are not an error.
func (ls *LocalStorage) Delete(relPath string) error {
	relPath = cleanRelative(relPath)
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(ls.basePath, filepath.FromSlash(relPath)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URLFor returns the public URL of a stored file
func (ls *LocalStorage) URLFor(relPath string) string {
	return ls.baseURL + "/" + cleanRelative(relPath)
}

// cleanRelative keeps paths inside the storage root
func cleanRelative(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	return strings.TrimPrefix(p, "/")
}
