package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket
type GCS struct {
	BucketName string
	Client     *gcs.Client
}

var _ Backend = (*GCS)(nil)

// NewGCS creates a client from application default credentials
func NewGCS(ctx context.Context, bucketName string) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud storage client: %w", err)
	}
	return &GCS{BucketName: bucketName, Client: client}, nil
}

// Save implements Backend. GCS only exposes the object once the writer is closed.
func (g *GCS) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	wc := g.Client.Bucket(g.BucketName).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write data to object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close object writer: %w", err)
	}
	return nil
}

// Open implements Backend
func (g *GCS) Open(ctx context.Context, key string) (*Object, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	rc, err := g.Client.Bucket(g.BucketName).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return &Object{
		ReadCloser:  rc,
		Size:        rc.Attrs.Size,
		ContentType: rc.Attrs.ContentType,
	}, nil
}

// Delete implements Backend
func (g *GCS) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	err = g.Client.Bucket(g.BucketName).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Close releases the client
func (g *GCS) Close() error {
	return g.Client.Close()
}
