package bam

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/biogo/hts/bam"
)

// BuildIndex reads the coordinate-sorted BAM at bamPath and writes its BAI
// index to bamPath + ".bai".
func BuildIndex(bamPath string) error {
	f, err := os.Open(bamPath)
	if err != nil {
		return fmt.Errorf("failed to open BAM file: %w", err)
	}
	defer f.Close()

	br, err := bam.NewReader(f, 1)
	if err != nil {
		return fmt.Errorf("failed to create BAM reader: %w", err)
	}
	defer br.Close()

	var idx bam.Index
	for {
		rec, err := br.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read BAM record: %w", err)
		}
		if err := idx.Add(rec, br.LastChunk()); err != nil {
			return fmt.Errorf("failed to index %s (is it coordinate sorted?): %w", rec.Name, err)
		}
	}

	out := bamPath + ".bai"
	tmp, err := os.CreateTemp(filepath.Dir(out), filepath.Base(out)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if err := bam.WriteIndex(tmp, &idx); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), out)
}
