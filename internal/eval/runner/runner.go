// Package runner drives the extraction pipeline over a labelled dataset
// and scores each result against its ground truth.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aob-scanner/book-scanner/internal/eval/dataset"
	"github.com/aob-scanner/book-scanner/internal/eval/metadata"
	"github.com/aob-scanner/book-scanner/internal/eval/metrics"
	"github.com/aob-scanner/book-scanner/internal/intake"
	"github.com/aob-scanner/book-scanner/internal/models"
)

// Processor is satisfied by *pipeline.Pipeline
type Processor interface {
	Process(ctx context.Context, req *intake.Request) (models.ResponseEnvelope, error)
}

// Runner evaluates dataset records with bounded concurrency
type Runner struct {
	processor   Processor
	baseDir     string
	concurrency int
}

// New returns a Runner resolving image paths against baseDir
func New(processor Processor, baseDir string, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		processor:   processor,
		baseDir:     baseDir,
		concurrency: concurrency,
	}
}

// Run evaluates every record. Results keep the order of records.
func (r *Runner) Run(ctx context.Context, records []dataset.Record) []metrics.EvaluationResult {
	slog.Info("Processing records", "count", len(records), "concurrency", r.concurrency)

	results := make([]metrics.EvaluationResult, len(records))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.concurrency)

	for i := range records {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			slog.Debug("Processing record", "id", records[idx].ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(records)))
			results[idx] = r.evaluate(ctx, &records[idx])
		}(i)
	}
	wg.Wait()

	return results
}

func (r *Runner) evaluate(ctx context.Context, record *dataset.Record) (result metrics.EvaluationResult) {
	start := time.Now()
	result = metrics.EvaluationResult{
		ID:       record.ID,
		Title:    record.Expected.Title,
		Expected: record.Expected.MetadataRecord(),
	}
	defer func() { result.ProcessingTime = time.Since(start) }()

	req, err := intake.FromFiles(record.ImagePaths(r.baseDir), record.ScanType)
	if err != nil {
		result.Error = err.Error()
		slog.Warn("Skipping record", "id", record.ID, "err", err)
		return result
	}

	env, err := r.processor.Process(ctx, req)
	if err != nil {
		result.Error = fmt.Sprintf("pipeline failed: %v", err)
		slog.Error("Pipeline failed", "id", record.ID, "err", err)
		return result
	}

	result.Actual = env.ParsedFields
	result.StageErrors = stageErrors(env)
	result.Comparison = metadata.Compare(result.Expected, result.Actual)
	return result
}

func stageErrors(env models.ResponseEnvelope) map[string]string {
	slots := map[string]*string{
		"gcs_error":    env.GCSError,
		"gemini_error": env.GeminiError,
		"lookup_error": env.LookupError,
	}
	out := make(map[string]string)
	for name, v := range slots {
		if v != nil {
			out[name] = *v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
