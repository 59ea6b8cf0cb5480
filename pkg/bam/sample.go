package bam

import (
	"path"
	"sort"
	"strings"

	"github.com/biogo/hts/sam"
)

// SampleID derives the sample identifier used to name outputs from a BAM
// path or URI: the base name with a trailing ".bam" removed.
func SampleID(bamPath string) string {
	base := path.Base(strings.ReplaceAll(bamPath, "\\", "/"))
	return strings.TrimSuffix(base, ".bam")
}

var smTag = sam.NewTag("SM")

// SampleNames returns the distinct SM values of the header's read groups,
// sorted.
func SampleNames(h *sam.Header) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rg := range h.RGs() {
		v := rg.Get(smTag)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}
