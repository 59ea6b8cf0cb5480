package extract

import (
	"errors"
	"fmt"
	"io"
	"runtime"
)

// Config holds the settings of one extraction run
type Config struct {
	// Inputs: exactly one of BamList and Bam
	BamList string // File listing BAM paths, one per line
	Bam     string // A single BAM path
	Target  string // File listing chrom:start-stop regions, one per line
	WorkDir string // Output directory, created if missing

	// Behaviour
	Force   bool // Overwrite outputs that already exist
	NoMerge bool // Skip the per-sample merge and index step

	// Resource allocation
	Workers int // Samples processed concurrently (0 = auto-detect)
	Threads int // BGZF compression goroutines per output file

	// Remote sources
	Anonymous bool   // Unsigned requests for public s3:// and gs:// data
	S3Region  string // AWS region override
}

// NewConfig creates a Config with defaults: one worker, so extractions run
// strictly one after another.
func NewConfig() *Config {
	return &Config{
		Workers: 1,
		Threads: 1,
	}
}

// Validate checks that the required inputs are present and consistent
func (c *Config) Validate() error {
	if c.Bam == "" && c.BamList == "" {
		return errors.New("one of --bam or --bamlist is required")
	}
	if c.Bam != "" && c.BamList != "" {
		return errors.New("--bam and --bamlist are mutually exclusive")
	}
	if c.Target == "" {
		return errors.New("--target is required")
	}
	if c.WorkDir == "" {
		return errors.New("--workdir is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	return nil
}

// EffectiveWorkers resolves Workers == 0 to the detected CPU count
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return detectOptimalWorkers()
}

// ShowConfig prints the effective configuration
func (c *Config) ShowConfig(w io.Writer) {
	fmt.Fprintf(w, "System Information:\n")
	totalCores := runtime.NumCPU()
	if detected := detectOptimalWorkers(); detected < totalCores {
		fmt.Fprintf(w, "  CPU cores: %d total (%d usable)\n", totalCores, detected)
	} else {
		fmt.Fprintf(w, "  CPU cores: %d\n", totalCores)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Configuration:\n")
	if c.Bam != "" {
		fmt.Fprintf(w, "  BAM: %s\n", c.Bam)
	} else {
		fmt.Fprintf(w, "  BAM list: %s\n", c.BamList)
	}
	fmt.Fprintf(w, "  Targets: %s\n", c.Target)
	fmt.Fprintf(w, "  Working directory: %s\n", c.WorkDir)
	fmt.Fprintf(w, "  Workers: %d\n", c.EffectiveWorkers())
	fmt.Fprintf(w, "  Compression threads: %d\n", c.Threads)
	fmt.Fprintf(w, "  Overwrite existing: %t\n", c.Force)
	fmt.Fprintf(w, "  Merge per sample: %t\n", !c.NoMerge)
	if c.Anonymous {
		fmt.Fprintf(w, "  Remote access: anonymous\n")
	}
	if c.S3Region != "" {
		fmt.Fprintf(w, "  S3 region: %s\n", c.S3Region)
	}
	fmt.Fprintf(w, "\n")
}
