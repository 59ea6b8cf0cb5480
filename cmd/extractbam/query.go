package main

import (
	"fmt"

	"github.com/biogo/hts/sam"
	"github.com/spf13/cobra"

	"github.com/scttfrdmn/extractbam-go/pkg/bam"
	"github.com/scttfrdmn/extractbam-go/pkg/region"
	"github.com/scttfrdmn/extractbam-go/pkg/storage"
)

var (
	countOnly bool
	showReads int
)

var queryCmd = &cobra.Command{
	Use:   "query <file.bam> <region>",
	Short: "Query reads from an indexed BAM file",
	Long: `Query reads overlapping a genomic region of an indexed BAM file.

The region format is: chrom:start-stop, 1-based and inclusive
(e.g., 1:12345-23456 or chr1:1,000,000-2,000,000)

Only the BGZF blocks listed in the BAI index for the region are read, so
remote s3:// and gs:// files are queried without downloading them.

Examples:
  extractbam query sample.bam 1:12345-23456
  extractbam query sample.bam 1:12345-23456 --count
  extractbam query s3://bucket/sample.bam chr1:1000000-2000000 --show 5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bamPath := args[0]

		r, err := region.Parse(args[1])
		if err != nil {
			return err
		}

		st := storage.NewRouter(storage.Options{Anonymous: anonymous, Region: s3Region})
		defer st.Close()

		src, err := bam.OpenSource(cmd.Context(), st, bamPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", bamPath, err)
		}
		defer src.Close()

		fmt.Printf("Query: %s (%d bp)\n", r, r.Len())

		var reads []*sam.Record
		count := 0
		err = src.Query(r, func(rec *sam.Record) error {
			count++
			if !countOnly && (showReads == 0 || len(reads) < showReads) {
				reads = append(reads, rec)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		fmt.Printf("Found %d reads in region\n", count)

		if countOnly || len(reads) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Printf("%-20s %12s %6s %s\n", "Read Name", "Position", "MapQ", "CIGAR")
		fmt.Println("------------------------------------------------------------")
		for _, rec := range reads {
			fmt.Printf("%-20s %12d %6d %s\n",
				rec.Name,
				rec.Pos+1,
				rec.MapQ,
				rec.Cigar)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&countOnly, "count", false,
		"Only show read count, don't display reads")
	queryCmd.Flags().IntVar(&showReads, "show", 10,
		"Number of reads to display (0 for all)")
	queryCmd.Flags().BoolVar(&anonymous, "anonymous", false,
		"Use unsigned requests for public s3:// and gs:// data")
	queryCmd.Flags().StringVar(&s3Region, "s3-region", "",
		"AWS region for s3:// sources (default us-east-1)")
}
