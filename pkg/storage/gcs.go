package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage implements Storage for Google Cloud Storage
type GCSStorage struct {
	client *gcs.Client
}

// NewGCSStorage creates a client using application default credentials, or
// no credentials at all when opts.Anonymous is set.
func NewGCSStorage(ctx context.Context, opts Options) (*GCSStorage, error) {
	var clientOpts []option.ClientOption
	if opts.Anonymous {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

func (s *GCSStorage) object(path string) (*gcs.ObjectHandle, error) {
	uri, err := ParseURI(path)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(uri.Bucket).Object(uri.Key), nil
}

func (s *GCSStorage) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	obj, err := s.object(path)
	if err != nil {
		return nil, err
	}

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	open := func(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
		rc, err := obj.NewRangeReader(ctx, offset, length)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s at offset %d: %w", path, offset, err)
		}
		return rc, nil
	}

	return newRangeReader(ctx, attrs.Size, open), nil
}

func (s *GCSStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.object(path)
	if err != nil {
		return nil, err
	}

	rc, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (s *GCSStorage) Exists(ctx context.Context, path string) (bool, error) {
	obj, err := s.object(path)
	if err != nil {
		return false, err
	}

	_, err = obj.Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
