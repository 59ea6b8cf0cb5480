package lists

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/extractbam-go/pkg/region"
)

const targets = "1:12345-23456\r\n\n2:1-100\n   \nchrX:5,000-6,000\n"

var wantRegions = []region.Region{
	{Chrom: "1", Start: 12345, End: 23456},
	{Chrom: "2", Start: 1, End: 100},
	{Chrom: "chrX", Start: 5000, End: 6000},
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll([]byte(s), nil)
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, ok := f[path]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func TestReadRegions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{"plain.list", []byte(targets)},
		{"targets.list.gz", gzipped(t, targets)},
		{"targets.list.zst", zstded(t, targets)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name, tt.data)
			got, err := ReadRegions(ctx, nil, path)
			require.NoError(t, err)
			assert.Equal(t, wantRegions, got)
		})
	}
}

func TestReadRegionsRemote(t *testing.T) {
	ctx := context.Background()
	f := fakeFetcher{
		"s3://bucket/targets.list":     []byte(targets),
		"gs://bucket/targets.list.gz":  gzipped(t, targets),
		"https://host/targets.list.gz": gzipped(t, targets),
	}

	got, err := ReadRegions(ctx, f, "s3://bucket/targets.list")
	require.NoError(t, err)
	assert.Equal(t, wantRegions, got)

	got, err = ReadRegions(ctx, f, "gs://bucket/targets.list.gz")
	require.NoError(t, err)
	assert.Equal(t, wantRegions, got)

	got, err = ReadRegions(ctx, f, "https://host/targets.list.gz")
	require.NoError(t, err)
	assert.Equal(t, wantRegions, got)

	_, err = ReadRegions(ctx, f, "s3://bucket/missing")
	assert.Error(t, err)

	_, err = ReadRegions(ctx, nil, "s3://bucket/targets.list")
	assert.Error(t, err)
}

func TestReadRegionsMalformed(t *testing.T) {
	path := writeFile(t, "bad.list", []byte("1:1-10\n\n2:200-100\n3:1-5\n"))

	_, err := ReadRegions(context.Background(), nil, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, region.ErrInvalidRegion)
	assert.Contains(t, err.Error(), "bad.list:3:")
}

func TestReadRegionsEmpty(t *testing.T) {
	path := writeFile(t, "empty.list", []byte("\n\n"))
	_, err := ReadRegions(context.Background(), nil, path)
	assert.Error(t, err)
}

func TestReadPaths(t *testing.T) {
	path := writeFile(t, "bam.list", []byte("/data/NA12878.bam\r\n\n  s3://1000genomes/NA12891.bam  \n"))

	got, err := ReadPaths(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/NA12878.bam", "s3://1000genomes/NA12891.bam"}, got)

	empty := writeFile(t, "none.list", nil)
	_, err = ReadPaths(context.Background(), nil, empty)
	assert.Error(t, err)
}

func TestReadPathsMissingFile(t *testing.T) {
	_, err := ReadPaths(context.Background(), nil, filepath.Join(t.TempDir(), "nope.list"))
	assert.Error(t, err)
}
