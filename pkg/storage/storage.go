// Package storage opens BAM files, indexes and list files from local disk,
// Amazon S3, Google Cloud Storage or HTTP(S) servers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrIndexNotFound is returned when no BAI index can be located next to a BAM.
var ErrIndexNotFound = errors.New("index not found")

// Storage is an interface for reading alignment data and list files.
// Supports local filesystem, S3, Google Cloud Storage and HTTP(S).
type Storage interface {
	// Open returns a seekable reader over the object at path
	Open(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// ReadFile reads a whole object into memory
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, path string) (bool, error)
}

// Options configures remote storage backends
type Options struct {
	// Anonymous sends unsigned requests, for public buckets
	Anonymous bool
	// Region overrides the AWS region for s3:// paths
	Region string
}

// LocalStorage implements Storage for the local filesystem
type LocalStorage struct{}

// NewLocalStorage creates a new local storage backend
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

func (s *LocalStorage) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	return os.Open(path)
}

func (s *LocalStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Router dispatches each path to the backend matching its scheme.
// Remote clients are created on first use.
type Router struct {
	opts  Options
	local *LocalStorage
	web   *HTTPStorage

	mu  sync.Mutex
	s3  *S3Storage
	gcs *GCSStorage
}

// NewRouter creates a Router; no remote client is created until needed
func NewRouter(opts Options) *Router {
	return &Router{opts: opts, local: NewLocalStorage(), web: NewHTTPStorage(nil)}
}

func (r *Router) backend(ctx context.Context, path string) (Storage, error) {
	switch {
	case IsS3URI(path):
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.s3 == nil {
			s, err := NewS3Storage(ctx, r.opts)
			if err != nil {
				return nil, err
			}
			r.s3 = s
		}
		return r.s3, nil
	case IsGCSURI(path):
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gcs == nil {
			s, err := NewGCSStorage(ctx, r.opts)
			if err != nil {
				return nil, err
			}
			r.gcs = s
		}
		return r.gcs, nil
	case IsHTTPURL(path):
		return r.web, nil
	case strings.HasPrefix(path, "ftp://"):
		return nil, fmt.Errorf("ftp:// is not supported, use the site's https:// mirror: %s", path)
	}
	return r.local, nil
}

func (r *Router) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	b, err := r.backend(ctx, path)
	if err != nil {
		return nil, err
	}
	return b.Open(ctx, path)
}

func (r *Router) ReadFile(ctx context.Context, path string) ([]byte, error) {
	b, err := r.backend(ctx, path)
	if err != nil {
		return nil, err
	}
	return b.ReadFile(ctx, path)
}

func (r *Router) Exists(ctx context.Context, path string) (bool, error) {
	b, err := r.backend(ctx, path)
	if err != nil {
		return false, err
	}
	return b.Exists(ctx, path)
}

// Close releases remote clients
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gcs != nil {
		return r.gcs.Close()
	}
	return nil
}

// IsRemote reports whether path names an object in S3, GCS or on a web server
func IsRemote(path string) bool {
	return IsS3URI(path) || IsGCSURI(path) || IsHTTPURL(path)
}

// IndexPaths returns candidate BAI locations for a BAM, in lookup order:
// sample.bam.bai, then sample.bai.
func IndexPaths(bamPath string) []string {
	paths := []string{bamPath + ".bai"}
	if trimmed := strings.TrimSuffix(bamPath, ".bam"); trimmed != bamPath {
		paths = append(paths, trimmed+".bai")
	}
	return paths
}

// ReadIndex loads the BAI index belonging to bamPath. It returns the index
// bytes and the path they were read from.
func ReadIndex(ctx context.Context, s Storage, bamPath string) ([]byte, string, error) {
	for _, p := range IndexPaths(bamPath) {
		ok, err := s.Exists(ctx, p)
		if err != nil {
			return nil, "", fmt.Errorf("failed to stat index %s: %w", p, err)
		}
		if !ok {
			continue
		}
		data, err := s.ReadFile(ctx, p)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read index %s: %w", p, err)
		}
		return data, p, nil
	}
	return nil, "", fmt.Errorf("%w for %s (tried %s)", ErrIndexNotFound, bamPath, strings.Join(IndexPaths(bamPath), ", "))
}
