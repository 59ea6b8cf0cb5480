package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/extractbam-go/pkg/bam"
)

var indexCmd = &cobra.Command{
	Use:   "index <file.bam>",
	Short: "Write a BAI index for a coordinate-sorted BAM file",
	Long: `Index a local coordinate-sorted BAM file, writing <file.bam>.bai.

Useful for sub-BAMs produced with --no-merge, or for preparing inputs that
were shipped without an index.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bam.BuildIndex(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s.bai\n", args[0])
		return nil
	},
}
