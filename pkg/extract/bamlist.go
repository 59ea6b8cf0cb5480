package extract

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// outputList is the per-sample bam.list: each sub-BAM path once, in the
// order it was first produced. Entries from earlier runs are kept.
type outputList struct {
	path    string
	entries []string
	seen    map[string]bool
	dirty   bool
}

func loadOutputList(path string) (*outputList, error) {
	l := &outputList{path: path, seen: make(map[string]bool)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || l.seen[line] {
			continue
		}
		l.seen[line] = true
		l.entries = append(l.entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l, nil
}

// Add appends p unless already listed; it reports whether p was added.
func (l *outputList) Add(p string) bool {
	if l.seen[p] {
		return false
	}
	l.seen[p] = true
	l.entries = append(l.entries, p)
	l.dirty = true
	return true
}

// Save rewrites the list file if anything was added
func (l *outputList) Save() error {
	if !l.dirty {
		return nil
	}

	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(l.path), err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return err
	}
	l.dirty = false
	return nil
}
