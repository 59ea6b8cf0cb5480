package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPStorage implements Storage for http:// and https:// URLs, such as the
// 1000 Genomes FTP site mirrored over HTTPS. Servers must honour Range
// requests for Open.
type HTTPStorage struct {
	client *http.Client
}

// NewHTTPStorage creates an HTTP backend; a nil client means http.DefaultClient
func NewHTTPStorage(client *http.Client) *HTTPStorage {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStorage{client: client}
}

func (s *HTTPStorage) do(ctx context.Context, method, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return s.client.Do(req)
}

func (s *HTTPStorage) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	resp, err := s.do(ctx, http.MethodHead, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to stat %s: %s", path, resp.Status)
	}
	if resp.ContentLength < 0 {
		return nil, fmt.Errorf("failed to stat %s: server did not report a size", path)
	}

	open := func(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
		h := http.Header{}
		h.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
		resp, err := s.do(ctx, http.MethodGet, path, h)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s at offset %d: %w", path, offset, err)
		}
		switch {
		case resp.StatusCode == http.StatusPartialContent:
			return resp.Body, nil
		case resp.StatusCode == http.StatusOK && offset == 0:
			// Range ignored, but the full body starts where we want it
			return resp.Body, nil
		}
		resp.Body.Close()
		return nil, fmt.Errorf("failed to read %s at offset %d: %s", path, offset, resp.Status)
	}

	return newRangeReader(ctx, resp.ContentLength, open), nil
}

func (s *HTTPStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *HTTPStorage) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := s.do(ctx, http.MethodHead, path, nil)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone,
		resp.StatusCode == http.StatusForbidden:
		// Static hosts and bucket websites answer 403 for missing keys
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %s", path, resp.Status)
}

// IsHTTPURL checks if a path is an http:// or https:// URL
func IsHTTPURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
