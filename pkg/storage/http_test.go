package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rangeCounter wraps a handler and records the Range header of each GET
type rangeCounter struct {
	h      http.Handler
	mu     sync.Mutex
	ranges []string
}

func (c *rangeCounter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		c.mu.Lock()
		c.ranges = append(c.ranges, r.Header.Get("Range"))
		c.mu.Unlock()
	}
	c.h.ServeHTTP(w, r)
}

func serveDir(t *testing.T, files map[string]string) (string, *rangeCounter) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	counter := &rangeCounter{h: http.FileServer(http.Dir(dir))}
	srv := httptest.NewServer(counter)
	t.Cleanup(srv.Close)
	return srv.URL, counter
}

func TestHTTPStorageOpen(t *testing.T) {
	base, counter := serveDir(t, map[string]string{"a.bam": "0123456789abcdef"})
	st := NewHTTPStorage(nil)
	ctx := context.Background()

	f, err := st.Open(ctx, base+"/a.bam")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(10, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	all, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", string(all))

	assert.Equal(t, []string{"bytes=10-15", "bytes=0-15"}, counter.ranges)
}

func TestHTTPStorageMissing(t *testing.T) {
	base, _ := serveDir(t, map[string]string{"a.bam": "x"})
	st := NewHTTPStorage(nil)
	ctx := context.Background()

	ok, err := st.Exists(ctx, base+"/a.bam")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Exists(ctx, base+"/b.bam")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.Open(ctx, base+"/b.bam")
	assert.Error(t, err)
	_, err = st.ReadFile(ctx, base+"/b.bam")
	assert.Error(t, err)
}

func TestHTTPReadIndexFallback(t *testing.T) {
	base, _ := serveDir(t, map[string]string{"a.bam": "bam", "a.bai": "index"})
	r := NewRouter(Options{})
	defer r.Close()

	data, from, err := ReadIndex(context.Background(), r, base+"/a.bam")
	require.NoError(t, err)
	assert.Equal(t, "index", string(data))
	assert.Equal(t, base+"/a.bai", from)
}

func TestRouterRejectsFTP(t *testing.T) {
	r := NewRouter(Options{})
	defer r.Close()

	_, err := r.Open(context.Background(), "ftp://ftp.1000genomes.ebi.ac.uk/vol1/a.bam")
	assert.ErrorContains(t, err, "https://")
}

func TestS3ExistsForbiddenIsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bucket/present.bai":
			w.Header().Set("Content-Length", "5")
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	st := newS3StorageFromClient(s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	}))
	ctx := context.Background()

	ok, err := st.Exists(ctx, "s3://bucket/missing.bam.bai")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.Exists(ctx, "s3://bucket/present.bai")
	require.NoError(t, err)
	assert.True(t, ok)
}
