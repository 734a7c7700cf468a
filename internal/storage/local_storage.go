package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/genbyt/genbyt-backend/pkg/logger"
	"github.com/google/uuid"
)

// LocalStorage keeps media bytes on the local filesystem under a base
// directory. URLs are server-relative paths ("/<base>/<name>").
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %w", basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) ValidateAndSave(ctx context.Context, files []Upload, opts SaveOptions) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if err := validateBatch(files, opts); err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(files))
	for _, file := range files {
		name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
		path := filepath.Join(s.basePath, name)

		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			// Remove bytes written for earlier files so a failed batch
			// leaves nothing behind.
			s.Delete(ctx, saved)
			return nil, fmt.Errorf("failed to write file %q: %w", file.Filename, err)
		}
		saved = append(saved, "/"+filepath.ToSlash(filepath.Join(s.basePath, name)))
	}

	logger.Debug("Media files saved to local storage", map[string]interface{}{
		"count": len(saved),
		"path":  s.basePath,
	})
	return saved, nil
}

func (s *LocalStorage) Delete(ctx context.Context, urls []string) {
	for _, url := range urls {
		path := filepath.Join(s.basePath, filepath.Base(url))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to delete media file from local storage", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
		}
	}
}
