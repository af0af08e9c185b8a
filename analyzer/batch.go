package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-prosody/config"
	"github.com/RyanBlaney/sonido-prosody/logging"
)

// BatchReport summarises one directory run
type BatchReport struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	InputDir    string    `json:"input_dir" yaml:"input_dir"`
	OutputDir   string    `json:"output_dir" yaml:"output_dir"`
	Total       int       `json:"total" yaml:"total"`
	Succeeded   int       `json:"succeeded" yaml:"succeeded"`
	Failed      int       `json:"failed" yaml:"failed"`
	WriteErrors int       `json:"write_errors" yaml:"write_errors"`
	Outputs     []string  `json:"outputs" yaml:"outputs"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
}

// Batch analyses every matching file of a directory with a bounded pool
// of workers. A failing file never stops the run.
type Batch struct {
	analyzer  *Analyzer
	workers   int
	extension string
	suffix    string
	format    Format
	logger    logging.Logger
}

type BatchOption func(*Batch)

func WithBatchLogger(l logging.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

func NewBatch(a *Analyzer, cfg config.BatchConfig, format Format, opts ...BatchOption) *Batch {
	extension := cfg.Extension
	if extension == "" {
		extension = ".wav"
	}
	b := &Batch{
		analyzer:  a,
		workers:   cfg.Workers,
		extension: extension,
		suffix:    cfg.Suffix,
		format:    format,
		logger: logging.WithFields(logging.Fields{
			"component": "prosody_batch",
		}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type batchJob struct {
	input  string
	output string
}

// Run analyses inputDir and writes one artifact per file into outputDir.
// Only directory level problems are returned as errors.
func (b *Batch) Run(ctx context.Context, inputDir, outputDir string) (*BatchReport, error) {
	report := &BatchReport{
		RunID:     uuid.NewString(),
		InputDir:  inputDir,
		OutputDir: outputDir,
		Outputs:   []string{},
		StartedAt: time.Now(),
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": report.RunID})
	logger := b.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":   "Run",
		"input_dir":  inputDir,
		"output_dir": outputDir,
	})

	inputs, err := b.listInputs(inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	report.Total = len(inputs)
	logger.Info("Starting batch analysis", logging.Fields{
		"files": len(inputs),
	})

	if len(inputs) > 0 {
		b.process(ctx, b.plan(inputs, outputDir, logger), report, logger)
	}

	sort.Strings(report.Outputs)
	report.FinishedAt = time.Now()

	logger.Info("Batch analysis complete", logging.Fields{
		"total":        report.Total,
		"succeeded":    report.Succeeded,
		"failed":       report.Failed,
		"write_errors": report.WriteErrors,
		"elapsed_time": report.FinishedAt.Sub(report.StartedAt).String(),
	})
	return report, nil
}

// plan pairs every input with its artifact path. Inputs that differ only in
// extension case (a.wav, a.WAV) share an artifact; the one written last wins.
func (b *Batch) plan(inputs []string, outputDir string, logger logging.Logger) []batchJob {
	jobs := make([]batchJob, 0, len(inputs))
	owners := make(map[string]string, len(inputs))
	for _, input := range inputs {
		output := b.outputPath(input, outputDir)
		if other, ok := owners[output]; ok {
			logger.Warn("Inputs share an output path, only one artifact will remain", logging.Fields{
				"file":       input,
				"other_file": other,
				"output":     output,
			})
		} else {
			owners[output] = input
		}
		jobs = append(jobs, batchJob{input: input, output: output})
	}
	return jobs
}

// process runs jobs on at most b.workers engine calls at a time. Work
// abandoned on a per-file timeout keeps its slot until the engine returns.
// Once ctx is done no job reaches the engine; every remaining input still
// gets a failure artifact.
func (b *Batch) process(ctx context.Context, jobs []batchJob, report *BatchReport, logger logging.Logger) {
	numWorkers := b.workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(jobs))

	var mu sync.Mutex
	record := func(job batchJob, result *AnalysisResult) {
		writeErr := WriteFile(job.output, result, b.format)

		mu.Lock()
		if result.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		if writeErr != nil {
			report.WriteErrors++
		} else {
			report.Outputs = append(report.Outputs, job.output)
		}
		mu.Unlock()

		if writeErr != nil {
			logger.Error(writeErr, "Failed to write analysis", logging.Fields{
				"file":   job.input,
				"output": job.output,
			})
		}
	}

	queue := make(chan batchJob)
	slots := make(chan struct{}, numWorkers)
	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				record(job, b.analyze(ctx, slots, job.input))
			}
		}()
	}

	dispatched := 0
	go func() {
		defer close(queue)
		for _, job := range jobs {
			if ctx.Err() != nil {
				return
			}
			select {
			case queue <- job:
				dispatched++
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	if rest := jobs[dispatched:]; len(rest) > 0 {
		logger.Warn("Batch cancelled, remaining files not analysed", logging.Fields{
			"remaining": len(rest),
			"error":     ctx.Err().Error(),
		})
		for _, job := range rest {
			record(job, b.analyzer.Analyze(ctx, job.input))
		}
	}
}

func (b *Batch) analyze(ctx context.Context, slots chan struct{}, input string) *AnalysisResult {
	select {
	case slots <- struct{}{}:
	case <-ctx.Done():
		return b.analyzer.Analyze(ctx, input)
	}
	return b.analyzer.analyzeWithRelease(ctx, input, func() { <-slots })
}

// listInputs returns the files of dir whose extension matches, ignoring case
func (b *Batch) listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), b.extension) {
			inputs = append(inputs, filepath.Join(dir, entry.Name()))
		}
	}
	return inputs, nil
}

func (b *Batch) outputPath(input, outputDir string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+b.suffix+b.format.Extension())
}
