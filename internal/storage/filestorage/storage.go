package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tinyrisks_admin/internal/domain/models"
	basestorage "tinyrisks_admin/internal/storage"

	"github.com/bmatcuk/doublestar/v4"
)

var ErrNoMatch = errors.New("pattern matched no files")

type FileStorage interface {
	Resolve(patterns ...string) ([]models.File, error)
	WritePage(ctx context.Context, name string, page []byte) (filePath string, err error)
	GetFullPath(relativePath string) string
	GetBaseDir() string
}

// LocalFileStorage reads upload candidates from disk and writes composed
// pages under baseDir (the static site root).
type LocalFileStorage struct {
	baseDir string
}

func NewLocalFileStorage(baseDir string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
	}, nil
}

// Resolve expands each pattern (plain path or doublestar glob such as
// "art/**/*.png") into selected files, de-duplicated, in pattern order.
func (s *LocalFileStorage) Resolve(patterns ...string) ([]models.File, error) {
	var files []models.File
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		matches := []string{pattern}
		if hasMeta(pattern) {
			found, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
			}
			sort.Strings(found)
			matches = found
		}

		if len(matches) == 0 {
			return nil, fmt.Errorf("%q: %w", pattern, ErrNoMatch)
		}

		for _, path := range matches {
			if seen[path] {
				continue
			}

			f, err := localFile(path)
			if err != nil {
				return nil, err
			}
			if f == nil {
				continue
			}

			seen[path] = true
			files = append(files, *f)
		}
	}

	return files, nil
}

func localFile(path string) (*models.File, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, basestorage.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, nil
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &models.File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// WritePage stores a composed page at baseDir/name, replacing any previous
// version only once the new content is fully written.
func (s *LocalFileStorage) WritePage(ctx context.Context, name string, page []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean("/" + name)[1:]
	if clean == "" {
		return "", fmt.Errorf("empty page name")
	}

	fullPath := filepath.Join(s.baseDir, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".page-*")
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer os.Remove(tmp.Name())

	done := make(chan struct{})
	var copyErr error

	go func() {
		_, copyErr = io.Copy(tmp, bytes.NewReader(page))
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			tmp.Close()
			return "", fmt.Errorf("failed to write page: %w", copyErr)
		}
	case <-ctx.Done():
		<-done
		tmp.Close()
		return "", ctx.Err()
	}

	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move page into place: %w", err)
	}

	return clean, nil
}

func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}
