package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidUpload marks validation failures (count, size, type). Callers
// can distinguish these from byte I/O failures with errors.Is.
var ErrInvalidUpload = errors.New("invalid upload")

var (
	allowedContentTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	allowedExtensions   = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
	}
)

// Upload is one file to be stored, already read into memory by the caller.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SaveOptions bounds a ValidateAndSave call.
type SaveOptions struct {
	MaxCount        int
	MaxBytesPerFile int64
}

// Storage abstracts the media byte store. ValidateAndSave validates the
// whole batch before writing any bytes; if a later write fails after earlier
// writes succeeded, the already-written bytes are deleted before the error
// propagates. Delete is best-effort per URL: individual failures are logged
// and do not abort deletion of the remaining URLs.
type Storage interface {
	ValidateAndSave(ctx context.Context, files []Upload, opts SaveOptions) ([]string, error)
	Delete(ctx context.Context, urls []string)
}

// validateBatch checks every file before any byte is written, so an invalid
// batch never leaves partial state behind.
func validateBatch(files []Upload, opts SaveOptions) error {
	if opts.MaxCount > 0 && len(files) > opts.MaxCount {
		return fmt.Errorf("%w: maximum %d files allowed, got %d", ErrInvalidUpload, opts.MaxCount, len(files))
	}

	for _, file := range files {
		if file.Filename == "" {
			return fmt.Errorf("%w: filename is required", ErrInvalidUpload)
		}
		if !contentTypeAllowed(file.ContentType) {
			return fmt.Errorf("%w: content type %q not allowed (allowed: %s)",
				ErrInvalidUpload, file.ContentType, strings.Join(allowedContentTypes, ", "))
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedExtensions[ext] {
			return fmt.Errorf("%w: file extension %q not allowed", ErrInvalidUpload, ext)
		}
		if len(file.Data) == 0 {
			return fmt.Errorf("%w: file %q is empty", ErrInvalidUpload, file.Filename)
		}
		if opts.MaxBytesPerFile > 0 && int64(len(file.Data)) > opts.MaxBytesPerFile {
			return fmt.Errorf("%w: file %q exceeds maximum size of %d bytes",
				ErrInvalidUpload, file.Filename, opts.MaxBytesPerFile)
		}
	}
	return nil
}

func contentTypeAllowed(contentType string) bool {
	for _, allowed := range allowedContentTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}
