package bam

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"

	"github.com/scttfrdmn/extractbam-go/pkg/region"
	"github.com/scttfrdmn/extractbam-go/pkg/storage"
)

// ErrUnknownReference is returned when a region names a contig absent from
// the BAM header.
var ErrUnknownReference = errors.New("unknown reference")

// maxIndexPos is the largest coordinate a BAI index can address (2^29-1).
const maxIndexPos = 1<<29 - 1

// Source is an indexed BAM opened for region queries.
type Source struct {
	Path      string
	IndexPath string

	file   io.ReadSeekCloser
	reader *bam.Reader
	index  *bam.Index
	refs   map[string]*sam.Reference
}

// OpenSource opens bamPath and its BAI index through st.
func OpenSource(ctx context.Context, st storage.Storage, bamPath string) (*Source, error) {
	idxData, idxPath, err := storage.ReadIndex(ctx, st, bamPath)
	if err != nil {
		return nil, err
	}
	idx, err := bam.ReadIndex(bytes.NewReader(idxData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", idxPath, err)
	}

	f, err := st.Open(ctx, bamPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open BAM file: %w", err)
	}

	br, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create BAM reader for %s: %w", bamPath, err)
	}

	refs := make(map[string]*sam.Reference)
	for _, ref := range br.Header().Refs() {
		refs[ref.Name()] = ref
	}

	return &Source{
		Path:      bamPath,
		IndexPath: idxPath,
		file:      f,
		reader:    br,
		index:     idx,
		refs:      refs,
	}, nil
}

// Header returns the SAM header of the source
func (s *Source) Header() *sam.Header {
	return s.reader.Header()
}

// Reference looks up a contig by name
func (s *Source) Reference(name string) (*sam.Reference, error) {
	ref, ok := s.refs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q in %s", ErrUnknownReference, name, s.Path)
	}
	return ref, nil
}

// Query calls fn for every record overlapping r, in file order.
func (s *Source) Query(r region.Region, fn func(*sam.Record) error) error {
	ref, err := s.Reference(r.Chrom)
	if err != nil {
		return err
	}

	beg, end := r.Interval()
	if n := ref.Len(); n > 0 && end > n {
		end = n
	}
	if beg >= end {
		// Region starts past the end of the contig
		return nil
	}
	if end > maxIndexPos {
		return fmt.Errorf("region %s extends past the BAI addressable range", r)
	}

	chunks, err := s.index.Chunks(ref, beg, end)
	if errors.Is(err, index.ErrNoReference) || errors.Is(err, index.ErrInvalid) {
		// No reads on this contig, or none at or after beg
		return nil
	}
	if err != nil {
		return fmt.Errorf("index lookup for %s failed: %w", r, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	return s.iterate(chunks, func(rec *sam.Record) error {
		if !overlaps(rec, ref, beg, end) {
			return nil
		}
		return fn(rec)
	})
}

func (s *Source) iterate(chunks []bgzf.Chunk, fn func(*sam.Record) error) error {
	it, err := bam.NewIterator(s.reader, chunks)
	if err != nil {
		return fmt.Errorf("failed to seek %s: %w", s.Path, err)
	}
	defer it.Close()

	for it.Next() {
		if err := fn(it.Record()); err != nil {
			return err
		}
	}
	return it.Error()
}

// overlaps reports whether rec aligns to ref within the zero-based,
// half-open interval [beg, end). Records without a reference span count
// as covering one base at their position.
func overlaps(rec *sam.Record, ref *sam.Reference, beg, end int) bool {
	if rec.Ref == nil || rec.Ref.ID() != ref.ID() {
		return false
	}
	recEnd := rec.End()
	if recEnd <= rec.Pos {
		recEnd = rec.Pos + 1
	}
	return rec.Pos < end && recEnd > beg
}

// Close closes the reader and the underlying file
func (s *Source) Close() error {
	err := s.reader.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
