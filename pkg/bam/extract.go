package bam

import (
	"fmt"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/scttfrdmn/extractbam-go/pkg/region"
)

// Extract writes every record of s overlapping r to outPath, a new BAM
// carrying the source header. It returns the number of records written.
// An empty region still produces a valid, header-only BAM.
func (s *Source) Extract(r region.Region, outPath string, opts WriteOptions) (int, error) {
	// Resolve the contig before creating any file
	if _, err := s.Reference(r.Chrom); err != nil {
		return 0, err
	}

	n := 0
	err := writeFile(outPath, s.Header(), opts, func(w *bam.Writer) error {
		return s.Query(r, func(rec *sam.Record) error {
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write read %s: %w", rec.Name, err)
			}
			n++
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", r, err)
	}
	return n, nil
}
