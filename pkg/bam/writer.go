package bam

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// WriteOptions configures BAM output
type WriteOptions struct {
	// Threads is the number of BGZF compression goroutines (minimum 1)
	Threads int
}

func (o WriteOptions) threads() int {
	if o.Threads < 1 {
		return 1
	}
	return o.Threads
}

// writeFile writes a BAM with header h to outPath. fill is called with the
// open writer. The file is built under a temporary name and renamed into
// place only once fill and the final flush have succeeded.
func writeFile(outPath string, h *sam.Header, opts WriteOptions, fill func(w *bam.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(outPath), filepath.Base(outPath)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw, err := bam.NewWriter(tmp, h, opts.threads())
	if err != nil {
		return fmt.Errorf("failed to create BAM writer: %w", err)
	}
	if err = fill(bw); err != nil {
		bw.Close()
		return err
	}
	if err = bw.Close(); err != nil {
		return fmt.Errorf("failed to close BAM writer: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
