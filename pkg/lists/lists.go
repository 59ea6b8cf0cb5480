// Package lists reads the newline-delimited input lists: BAM paths and
// target regions.
package lists

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/brentp/xopen"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/scttfrdmn/extractbam-go/pkg/region"
	"github.com/scttfrdmn/extractbam-go/pkg/storage"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Fetcher reads whole remote objects; storage.Storage satisfies it.
type Fetcher interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Open opens a list file. Local paths and "-" for stdin are opened with
// xopen; s3://, gs:// and http(s):// objects are fetched through f.
// Gzip and zstd compression are detected from the content.
func Open(ctx context.Context, f Fetcher, path string) (io.ReadCloser, error) {
	if storage.IsRemote(path) {
		if f == nil {
			return nil, fmt.Errorf("no storage configured for %s", path)
		}
		data, err := f.ReadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		return decompress(bufio.NewReader(bytes.NewReader(data)), func() error { return nil })
	}

	rdr, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return decompress(rdr.Reader, rdr.Close)
}

// decompress wraps br in a gzip or zstd decoder when its content starts with
// the matching magic number. closeFn runs when the returned reader is closed.
func decompress(br *bufio.Reader, closeFn func() error) (io.ReadCloser, error) {
	head, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return &readCloser{Reader: dec, close: func() error {
			dec.Close()
			return closeFn()
		}}, nil
	case bytes.HasPrefix(head, gzipMagic):
		// Only remote objects get here; xopen has already gunzipped local files
		gz, err := gzip.NewReader(br)
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("failed to create gzip decoder: %w", err)
		}
		return &readCloser{Reader: gz, close: func() error {
			gz.Close()
			return closeFn()
		}}, nil
	}
	return &readCloser{Reader: br, close: closeFn}, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

// ReadLines returns the non-empty lines of the list at path, with
// surrounding whitespace and any trailing '\r' removed.
func ReadLines(ctx context.Context, f Fetcher, path string) ([]string, error) {
	rc, err := Open(ctx, f, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var lines []string
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// ReadPaths reads a BAM list: one alignment file path per line.
func ReadPaths(ctx context.Context, f Fetcher, path string) ([]string, error) {
	paths, err := ReadLines(ctx, f, path)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: no BAM paths listed", path)
	}
	return paths, nil
}

// ReadRegions reads a target list: one chrom:start-stop region per line.
// Every line is parsed before returning; the first malformed entry is
// reported with its line number.
func ReadRegions(ctx context.Context, f Fetcher, path string) ([]region.Region, error) {
	rc, err := Open(ctx, f, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var regions []region.Region
	lineNo := 0
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, err := region.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		regions = append(regions, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s: no target regions listed", path)
	}
	return regions, nil
}
