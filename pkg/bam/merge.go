package bam

import (
	"container/heap"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// mergeInput is one coordinate-sorted BAM taking part in a merge
type mergeInput struct {
	file   *os.File
	reader *bam.Reader
	next   *sam.Record
}

func (in *mergeInput) advance() error {
	rec, err := in.reader.Read()
	if errors.Is(err, io.EOF) {
		in.next = nil
		return nil
	}
	if err != nil {
		return err
	}
	in.next = rec
	return nil
}

func (in *mergeInput) close() {
	in.reader.Close()
	in.file.Close()
}

// MergeItem is an entry in the k-way merge heap
type MergeItem struct {
	rec      *sam.Record
	inputIdx int
}

// MergeHeap implements heap.Interface for k-way merge
type MergeHeap []MergeItem

func (h MergeHeap) Len() int { return len(h) }

func (h MergeHeap) Less(i, j int) bool {
	// Sort by reference ID (unmapped last), then position, then input order
	ri, rj := refOrder(h[i].rec), refOrder(h[j].rec)
	if ri != rj {
		return ri < rj
	}
	if h[i].rec.Pos != h[j].rec.Pos {
		return h[i].rec.Pos < h[j].rec.Pos
	}
	return h[i].inputIdx < h[j].inputIdx
}

func (h MergeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *MergeHeap) Push(x interface{}) {
	*h = append(*h, x.(MergeItem))
}

func (h *MergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

func refOrder(rec *sam.Record) int {
	if rec.Ref == nil || rec.Ref.ID() < 0 {
		return math.MaxInt32
	}
	return rec.Ref.ID()
}

// Merge performs a k-way merge of coordinate-sorted BAMs sharing one
// reference dictionary into outPath. The header of the first input is used.
// It returns the number of records written.
func Merge(outPath string, inputs []string, opts WriteOptions) (int, error) {
	if len(inputs) == 0 {
		return 0, errors.New("merge: no input files")
	}

	ins := make([]*mergeInput, 0, len(inputs))
	defer func() {
		for _, in := range ins {
			in.close()
		}
	}()

	for _, p := range inputs {
		f, err := os.Open(p)
		if err != nil {
			return 0, fmt.Errorf("merge: %w", err)
		}
		br, err := bam.NewReader(f, 1)
		if err != nil {
			f.Close()
			return 0, fmt.Errorf("merge: failed to read %s: %w", p, err)
		}
		ins = append(ins, &mergeInput{file: f, reader: br})
	}

	header := ins[0].reader.Header().Clone()
	header.SortOrder = sam.Coordinate
	refs := header.Refs()
	for i, in := range ins[1:] {
		if err := sameReferences(refs, in.reader.Header().Refs()); err != nil {
			return 0, fmt.Errorf("merge: %s: %w", inputs[i+1], err)
		}
	}

	// Initialize heap with the first record of each input
	h := &MergeHeap{}
	heap.Init(h)
	for i, in := range ins {
		if err := in.advance(); err != nil {
			return 0, fmt.Errorf("merge: failed to read %s: %w", inputs[i], err)
		}
		if in.next != nil {
			heap.Push(h, MergeItem{rec: in.next, inputIdx: i})
		}
	}

	n := 0
	err := writeFile(outPath, header, opts, func(w *bam.Writer) error {
		for h.Len() > 0 {
			item := heap.Pop(h).(MergeItem)
			rec := item.rec
			rec.Ref = remap(refs, rec.Ref)
			rec.MateRef = remap(refs, rec.MateRef)
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write read %s: %w", rec.Name, err)
			}
			n++

			// Refill from the same input
			in := ins[item.inputIdx]
			if err := in.advance(); err != nil {
				return fmt.Errorf("failed to read %s: %w", inputs[item.inputIdx], err)
			}
			if in.next != nil {
				heap.Push(h, MergeItem{rec: in.next, inputIdx: item.inputIdx})
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	return n, nil
}

// remap points ref at the reference with the same ID in refs.
func remap(refs []*sam.Reference, ref *sam.Reference) *sam.Reference {
	if ref == nil || ref.ID() < 0 || ref.ID() >= len(refs) {
		return ref
	}
	return refs[ref.ID()]
}

func sameReferences(want, got []*sam.Reference) error {
	if len(want) != len(got) {
		return fmt.Errorf("reference count %d differs from %d", len(got), len(want))
	}
	for i := range want {
		if want[i].Name() != got[i].Name() || want[i].Len() != got[i].Len() {
			return fmt.Errorf("reference %d is %s (%d bp), want %s (%d bp)",
				i, got[i].Name(), got[i].Len(), want[i].Name(), want[i].Len())
		}
	}
	return nil
}
