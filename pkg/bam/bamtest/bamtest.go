// Package bamtest builds small indexed BAM fixtures for tests.
package bamtest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/require"
)

// DefaultHeaderText declares contigs 1, 2 and X and one read group.
const DefaultHeaderText = "@HD\tVN:1.6\tSO:coordinate\n" +
	"@SQ\tSN:1\tLN:100000\n" +
	"@SQ\tSN:2\tLN:50000\n" +
	"@SQ\tSN:X\tLN:20000\n" +
	"@RG\tID:rg1\tSM:NA12878\n"

// Read describes a fixture alignment: Len matched bases starting at the
// zero-based position Pos on contig Ref.
type Read struct {
	Name string
	Ref  string
	Pos  int
	Len  int
}

// NewHeader parses SAM header text.
func NewHeader(t testing.TB, text string) *sam.Header {
	t.Helper()
	h, err := sam.NewHeader([]byte(text), nil)
	require.NoError(t, err)
	return h
}

// Write writes reads, coordinate sorted, to path using the default header
// and indexes the result as path + ".bai".
func Write(t testing.TB, path string, reads []Read) {
	t.Helper()
	WriteWithHeader(t, path, NewHeader(t, DefaultHeaderText), reads)
}

// WriteWithHeader is like Write with an explicit header.
func WriteWithHeader(t testing.TB, path string, h *sam.Header, reads []Read) {
	t.Helper()

	refs := make(map[string]*sam.Reference)
	for _, ref := range h.Refs() {
		refs[ref.Name()] = ref
	}

	recs := make([]*sam.Record, 0, len(reads))
	for _, r := range reads {
		ref, ok := refs[r.Ref]
		require.True(t, ok, "unknown fixture reference %q", r.Ref)
		length := r.Len
		if length == 0 {
			length = 100
		}
		rec, err := sam.NewRecord(r.Name, ref, nil, r.Pos, -1, 0, 60,
			[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, length)},
			bytes.Repeat([]byte("A"), length), bytes.Repeat([]byte{30}, length), nil)
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Ref.ID() != recs[j].Ref.ID() {
			return recs[i].Ref.ID() < recs[j].Ref.ID()
		}
		return recs[i].Pos < recs[j].Pos
	})

	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := bam.NewWriter(f, h, 1)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	writeIndex(t, path)
}

func writeIndex(t testing.TB, path string) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	require.NoError(t, err)
	defer br.Close()

	var idx bam.Index
	for {
		rec, err := br.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, idx.Add(rec, br.LastChunk()))
	}

	out, err := os.Create(path + ".bai")
	require.NoError(t, err)
	require.NoError(t, bam.WriteIndex(out, &idx))
	require.NoError(t, out.Close())
}

// Records reads every record of the BAM at path along with its header.
func Records(t testing.TB, path string) (*sam.Header, []*sam.Record) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	require.NoError(t, err)
	defer br.Close()

	var recs []*sam.Record
	for {
		rec, err := br.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	return br.Header(), recs
}

// Names returns the read names of the BAM at path, in file order.
func Names(t testing.TB, path string) []string {
	t.Helper()
	_, recs := Records(t, path)
	names := make([]string, 0, len(recs))
	for _, rec := range recs {
		names = append(names, rec.Name)
	}
	return names
}
