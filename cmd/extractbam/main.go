package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scttfrdmn/extractbam-go/pkg/extract"
	"github.com/scttfrdmn/extractbam-go/pkg/storage"
)

const version = "0.1.0"

var (
	bamList    string
	bamPath    string
	targetPath string
	workDir    string
	force      bool
	workers    int
	threads    int
	noMerge    bool
	anonymous  bool
	s3Region   string
	showConfig bool
)

var rootCmd = &cobra.Command{
	Use:     "extractbam",
	Short:   "Extract target regions from indexed BAM files",
	Version: version,
	Long: `extractbam pulls the reads overlapping a list of target regions out of
one or more indexed BAM files.

Every (BAM, region) pair produces its own BAM:
  <workdir>/<sample>/subbam/<chrom:start-stop>.<sample>.bam

and, unless --no-merge is given, the sub-BAMs of each sample are merged
into <workdir>/<sample>/<sample>.targets.bam with a .bai index.

Inputs may be local paths, s3://bucket/key or gs://bucket/object. Each BAM
needs a BAI index next to it (<bam>.bai or <name>.bai). List files may be
gzip or zstd compressed.

Examples:
  extractbam --bamlist bams.list --target targets.list --workdir out
  extractbam --bam s3://1000genomes/phase3/HG00096.bam --anonymous \
    --target targets.list --workdir out
  extractbam --bamlist bams.list --target targets.list --workdir out \
    --workers 4 --force`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().NFlag() == 0 && len(args) == 0 {
			cmd.Help()
			os.Exit(1)
		}

		cfg := extract.NewConfig()
		cfg.BamList = bamList
		cfg.Bam = bamPath
		cfg.Target = targetPath
		cfg.WorkDir = workDir
		cfg.Force = force
		cfg.Workers = workers
		cfg.Threads = threads
		cfg.NoMerge = noMerge
		cfg.Anonymous = anonymous
		cfg.S3Region = s3Region

		if showConfig {
			cfg.ShowConfig(os.Stdout)
			return nil
		}
		return runExtract(cmd.Context(), cfg)
	},
}

func runExtract(ctx context.Context, cfg *extract.Config) error {
	st := storage.NewRouter(storage.Options{
		Anonymous: cfg.Anonymous,
		Region:    cfg.S3Region,
	})
	defer st.Close()

	runner, err := extract.NewRunner(cfg, st)
	if err != nil {
		return err
	}
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	res.PrintSummary(os.Stdout)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&bamList, "bamlist", "",
		"File listing BAM paths, one per line")
	rootCmd.Flags().StringVar(&bamPath, "bam", "",
		"Single BAM path (instead of --bamlist)")
	rootCmd.Flags().StringVar(&targetPath, "target", "",
		"File listing target regions as chrom:start-stop, one per line")
	rootCmd.Flags().StringVar(&workDir, "workdir", "",
		"Output directory (created if missing)")
	rootCmd.Flags().BoolVar(&force, "force", false,
		"Overwrite outputs that already exist (default: skip them)")
	rootCmd.Flags().IntVar(&workers, "workers", 1,
		"Number of samples processed in parallel (0 = auto-detect CPU count)")
	rootCmd.Flags().IntVar(&threads, "threads", 1,
		"BGZF compression goroutines per output file")
	rootCmd.Flags().BoolVar(&noMerge, "no-merge", false,
		"Do not merge and index the sub-BAMs of each sample")
	rootCmd.Flags().BoolVar(&anonymous, "anonymous", false,
		"Use unsigned requests for public s3:// and gs:// data")
	rootCmd.Flags().StringVar(&s3Region, "s3-region", "",
		"AWS region for s3:// sources (default us-east-1)")
	rootCmd.Flags().BoolVar(&showConfig, "show-config", false,
		"Show effective configuration and exit")
	rootCmd.MarkFlagsMutuallyExclusive("bam", "bamlist")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("extractbam version %s\n", version)
		fmt.Println("Region extraction for local and cloud-hosted BAM files")
	},
}
