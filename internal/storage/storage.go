// Package storage keeps uploaded binaries behind one interface with disk, GCS and S3 backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotExist is returned by Open for a missing key
var ErrNotExist = errors.New("object does not exist")

// ErrInvalidKey is returned for keys that escape the storage root
var ErrInvalidKey = errors.New("invalid object key")

// Object is an opened stored file. Size is -1 when the backend does not report it.
type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
}

// Backend stores objects under slash separated keys such as "resumes/1700000000000-cv.pdf".
type Backend interface {
	// Save writes the whole of r under key. A reader never observes a partial object.
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes key and rejects anything absolute or containing "..".
func CleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." || part == "." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return cleaned, nil
}
