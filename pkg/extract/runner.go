// Package extract runs region extraction over every (BAM, region) pair and
// lays the results out in a working directory:
//
//	<workdir>/extractbam.log
//	<workdir>/<sample>/<sample>.log
//	<workdir>/<sample>/subbam/<region>.<sample>.bam
//	<workdir>/<sample>/subbam/bam.list
//	<workdir>/<sample>/<sample>.targets.bam(.bai)
package extract

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/scttfrdmn/extractbam-go/pkg/bam"
	"github.com/scttfrdmn/extractbam-go/pkg/lists"
	"github.com/scttfrdmn/extractbam-go/pkg/region"
	"github.com/scttfrdmn/extractbam-go/pkg/storage"
)

// MainLogName is the run log written at the top of the working directory
const MainLogName = "extractbam.log"

const skipNote = " SKIP: same file found"

// SampleResult describes the outputs produced for one BAM
type SampleResult struct {
	Sample       string
	Bam          string
	Outputs      []string // One sub-BAM per region, in target order
	Extracted    int      // Sub-BAMs written by this run
	Skipped      int      // Sub-BAMs left in place because they existed
	Reads        int      // Records written by this run
	Merged       string   // Merged BAM, empty with NoMerge
	MergeSkipped bool
}

// Result summarises a run
type Result struct {
	WorkDir string
	Samples []SampleResult
	Elapsed time.Duration
}

// Outputs returns every sub-BAM path of the run
func (r *Result) Outputs() []string {
	var out []string
	for _, s := range r.Samples {
		out = append(out, s.Outputs...)
	}
	return out
}

// Runner extracts target regions from a list of BAMs
type Runner struct {
	cfg     Config
	storage storage.Storage
	out     io.Writer
}

// NewRunner validates cfg and returns a Runner reading inputs through st
func NewRunner(cfg *Config, st storage.Storage) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: *cfg, storage: st, out: os.Stdout}, nil
}

// SetOutput redirects the console copy of the run log (default os.Stdout)
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Run loads both lists, then extracts every region from every BAM.
// Regions are all parsed before the working directory is touched, so a
// malformed target fails the run before any extraction. The first failing
// extraction stops the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	bams, err := r.loadBams(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := lists.ReadRegions(ctx, r.storage, r.cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	if err := checkSamples(bams); err != nil {
		return nil, err
	}

	workDir, err := filepath.Abs(r.cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(workDir, MainLogName))
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}
	defer logFile.Close()
	mainLog := log.New(io.MultiWriter(r.out, logFile), "", log.LstdFlags)

	cwd, _ := os.Getwd()
	mainLog.Printf("Preparing %d BAM(s) x %d region(s)\n Current directory: %s", len(bams), len(regions), cwd)
	mainLog.Printf("Started ......")

	samples, err := r.runSamples(ctx, workDir, bams, regions, mainLog)
	if err != nil {
		mainLog.Printf("Failed: %v", err)
		return nil, err
	}

	res := &Result{WorkDir: workDir, Samples: samples, Elapsed: time.Since(start)}
	mainLog.Printf("Completed\n Output directory %s\nTotal run time\t%s", workDir, seconds(res.Elapsed))
	return res, nil
}

func (r *Runner) loadBams(ctx context.Context) ([]string, error) {
	if r.cfg.Bam != "" {
		return []string{r.cfg.Bam}, nil
	}
	bams, err := lists.ReadPaths(ctx, r.storage, r.cfg.BamList)
	if err != nil {
		return nil, fmt.Errorf("failed to load BAM list: %w", err)
	}
	return bams, nil
}

// checkSamples rejects lists in which two BAMs map to the same sample
// directory, since their outputs would overwrite each other.
func checkSamples(bams []string) error {
	seen := make(map[string]string)
	for _, p := range bams {
		id := bam.SampleID(p)
		if id == "" || id == "." || id == "/" {
			return fmt.Errorf("cannot derive a sample name from %q", p)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%s and %s both map to sample %q", prev, p, id)
		}
		seen[id] = p
	}
	return nil
}

// runSamples processes bams with a pool of workers. Results keep input order.
func (r *Runner) runSamples(ctx context.Context, workDir string, bams []string, regions []region.Region, mainLog *log.Logger) ([]SampleResult, error) {
	workers := r.cfg.EffectiveWorkers()
	if workers > len(bams) {
		workers = len(bams)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]SampleResult, len(bams))
	jobs := make(chan int)
	errorChan := make(chan error, 1)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := r.runSample(ctx, workDir, bams[i], regions, mainLog)
				if err != nil {
					select {
					case errorChan <- err:
					default:
					}
					cancel()
					continue
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := range bams {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errorChan:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runSample(ctx context.Context, workDir, bamPath string, regions []region.Region, mainLog *log.Logger) (SampleResult, error) {
	res := SampleResult{Sample: bam.SampleID(bamPath), Bam: bamPath}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	outDir := filepath.Join(workDir, res.Sample)
	subDir := filepath.Join(outDir, "subbam")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		return res, fmt.Errorf("failed to create %s: %w", subDir, err)
	}

	logFile, err := os.Create(filepath.Join(outDir, res.Sample+".log"))
	if err != nil {
		return res, fmt.Errorf("failed to create sample log: %w", err)
	}
	defer logFile.Close()
	sampleLog := log.New(logFile, "", log.LstdFlags)

	mainLog.Printf("Extract:\t%s", res.Sample)
	sampleLog.Printf("Extract:\t%s", res.Sample)

	src, err := bam.OpenSource(ctx, r.storage, bamPath)
	if err != nil {
		return res, fmt.Errorf("%s: %w", bamPath, err)
	}
	defer src.Close()
	sampleLog.Printf("Source:\t%s (index %s)", bamPath, src.IndexPath)
	if names := bam.SampleNames(src.Header()); len(names) > 0 {
		sampleLog.Printf("Samples:\t%s", strings.Join(names, ","))
	}

	list, err := loadOutputList(filepath.Join(subDir, "bam.list"))
	if err != nil {
		return res, err
	}
	opts := bam.WriteOptions{Threads: r.cfg.Threads}

	// Equivalent target lines resolve to the same sub-BAM; merge it once
	var mergeInputs []string
	queued := make(map[string]bool)

	for _, reg := range regions {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		t0 := time.Now()
		out := filepath.Join(subDir, fmt.Sprintf("%s.%s.bam", reg, res.Sample))
		note := ""
		if !r.cfg.Force && fileExists(out) {
			note = skipNote
			res.Skipped++
		} else {
			n, err := src.Extract(reg, out, opts)
			if err != nil {
				return res, fmt.Errorf("%s: %w", bamPath, err)
			}
			res.Extracted++
			res.Reads += n
		}

		if !list.Add(out) && note == "" {
			sampleLog.Printf("Already in bam.list: %s", out)
		}
		res.Outputs = append(res.Outputs, out)
		if !queued[out] {
			queued[out] = true
			mergeInputs = append(mergeInputs, out)
		}
		sampleLog.Printf("%s\t%s%s", reg, seconds(time.Since(t0)), note)
	}
	if err := list.Save(); err != nil {
		return res, err
	}

	if !r.cfg.NoMerge {
		if err := r.mergeSample(&res, outDir, mergeInputs, opts, sampleLog); err != nil {
			return res, fmt.Errorf("%s: %w", bamPath, err)
		}
	}

	mainLog.Printf("Done:\t%s\t%d extracted, %d skipped", res.Sample, res.Extracted, res.Skipped)
	return res, nil
}

// mergeSample merges inputs, this run's distinct sub-BAMs, into
// <sample>.targets.bam and indexes it.
func (r *Runner) mergeSample(res *SampleResult, outDir string, inputs []string, opts bam.WriteOptions, sampleLog *log.Logger) error {
	t0 := time.Now()
	res.Merged = filepath.Join(outDir, res.Sample+".targets.bam")

	note := ""
	if !r.cfg.Force && fileExists(res.Merged) && fileExists(res.Merged+".bai") {
		note = skipNote
		res.MergeSkipped = true
	} else {
		if _, err := bam.Merge(res.Merged, inputs, opts); err != nil {
			return err
		}
		if err := bam.BuildIndex(res.Merged); err != nil {
			return fmt.Errorf("index %s: %w", res.Merged, err)
		}
	}

	sampleLog.Printf("merged bam\t%s%s", seconds(time.Since(t0)), note)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.6f(s)", d.Seconds())
}
