// Package region parses and formats genomic regions of the form chrom:start-stop.
package region

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRegion is returned for region strings that do not match chrom:start-stop.
var ErrInvalidRegion = errors.New("invalid region")

// Region is a 1-based, inclusive interval on a named reference sequence.
type Region struct {
	Chrom string
	Start int
	End   int
}

// Parse parses a region string like "chr1:1000000-2000000".
//
// The last ':' separates the reference name from the coordinates, so contig
// names that themselves contain ':' are accepted. Commas in coordinates are
// ignored.
func Parse(s string) (Region, error) {
	s = strings.TrimSpace(s)

	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return Region{}, fmt.Errorf("%w: %q (expected chr:start-end)", ErrInvalidRegion, s)
	}

	r := Region{Chrom: s[:colon]}
	if r.Chrom == "" {
		return Region{}, fmt.Errorf("%w: %q has an empty reference name", ErrInvalidRegion, s)
	}

	coords := strings.Split(s[colon+1:], "-")
	if len(coords) != 2 {
		return Region{}, fmt.Errorf("%w: %q (expected chr:start-end)", ErrInvalidRegion, s)
	}

	var err error
	if r.Start, err = parseCoord(coords[0]); err != nil {
		return Region{}, fmt.Errorf("%w: %q: start: %v", ErrInvalidRegion, s, err)
	}
	if r.End, err = parseCoord(coords[1]); err != nil {
		return Region{}, fmt.Errorf("%w: %q: end: %v", ErrInvalidRegion, s, err)
	}
	if r.Start > r.End {
		return Region{}, fmt.Errorf("%w: %q: start %d is after end %d", ErrInvalidRegion, s, r.Start, r.End)
	}

	return r, nil
}

func parseCoord(s string) (int, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, errors.New("missing coordinate")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("coordinates are 1-based, got %d", n)
	}
	return n, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Region {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the canonical chrom:start-stop form.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Interval returns the zero-based, half-open [beg, end) interval covered by r.
func (r Region) Interval() (beg, end int) {
	return r.Start - 1, r.End
}

// Len returns the number of bases covered by r.
func (r Region) Len() int {
	return r.End - r.Start + 1
}
