package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/extractbam-go/pkg/bam/bamtest"
)

func TestRootCommandExtracts(t *testing.T) {
	dir := t.TempDir()
	bamFile := filepath.Join(dir, "sampleA.bam")
	bamtest.Write(t, bamFile, []bamtest.Read{
		{Name: "in", Ref: "1", Pos: 12400},
		{Name: "out", Ref: "1", Pos: 30000},
	})
	targets := filepath.Join(dir, "targets.list")
	require.NoError(t, os.WriteFile(targets, []byte("1:12345-23456\n"), 0644))
	work := filepath.Join(dir, "work")

	rootCmd.SetArgs([]string{"--bam", bamFile, "--target", targets, "--workdir", work, "--no-merge"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	out := filepath.Join(work, "sampleA", "subbam", "1:12345-23456.sampleA.bam")
	assert.Equal(t, []string{"in"}, bamtest.Names(t, out))
	assert.NoFileExists(t, filepath.Join(work, "sampleA", "sampleA.targets.bam"))
}

func TestIndexCommand(t *testing.T) {
	bamFile := filepath.Join(t.TempDir(), "a.bam")
	bamtest.Write(t, bamFile, []bamtest.Read{{Name: "r", Ref: "2", Pos: 10}})
	require.NoError(t, os.Remove(bamFile+".bai"))

	rootCmd.SetArgs([]string{"index", bamFile})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.FileExists(t, bamFile+".bai")
}
