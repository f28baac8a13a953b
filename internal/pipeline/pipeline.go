// Package pipeline runs one request through archiving, extraction, lookup
// and reconciliation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aob-scanner/book-scanner/internal/extraction"
	"github.com/aob-scanner/book-scanner/internal/intake"
	"github.com/aob-scanner/book-scanner/internal/lookup"
	"github.com/aob-scanner/book-scanner/internal/metrics"
	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/aob-scanner/book-scanner/internal/reconcile"
	"github.com/aob-scanner/book-scanner/internal/storage"
	"golang.org/x/sync/errgroup"
)

const (
	stageArchive    = "archive"
	stageGeneration = "generation"
)

var (
	errNoIdentifier      = errors.New("no valid ISBN found")
	errLookupUnavailable = errors.New("no lookup source configured")
)

// Options are the long-lived collaborators, built once per process
type Options struct {
	Archiver      *storage.Archiver
	Generative    *extraction.Generative
	Seeds         []extraction.Strategy
	Enricher      *extraction.Enricher
	LookupTimeout time.Duration
	Metrics       *metrics.Metrics
}

// Pipeline holds no per-request state and is safe for concurrent use
type Pipeline struct {
	archiver      *storage.Archiver
	generative    *extraction.Generative
	seeds         []extraction.Strategy
	enricher      *extraction.Enricher
	lookupTimeout time.Duration
	metrics       *metrics.Metrics
}

func New(opts Options) *Pipeline {
	archiver := opts.Archiver
	if archiver == nil {
		archiver = storage.NewArchiver(nil)
	}
	generative := opts.Generative
	if generative == nil {
		generative = extraction.NewGenerative(nil, 0, nil)
	}
	return &Pipeline{
		archiver:      archiver,
		generative:    generative,
		seeds:         opts.Seeds,
		enricher:      opts.Enricher,
		lookupTimeout: opts.LookupTimeout,
		metrics:       opts.Metrics,
	}
}

// Process always yields a schema-complete envelope. The error is non-nil
// only for an unexpected fault (a panic in a stage), never for a stage
// failure; those are reported inside the envelope.
func (p *Pipeline) Process(ctx context.Context, req *intake.Request) (models.ResponseEnvelope, error) {
	start := time.Now()
	defer func() { p.metrics.ObservePipeline(time.Since(start)) }()

	images := req.Images()
	in := extraction.Input{Images: images, ScanType: req.ScanType}

	var (
		g          errgroup.Group
		archived   map[int]models.ArchivedImage
		archiveErr error
		extracted  extractionOutcome
	)

	// Archiving and extraction share nothing but the immutable image bytes.
	g.Go(guard(stageArchive, func() error {
		archived, archiveErr = p.archiver.Archive(ctx, images)
		p.observe(stageArchive, archiveErr)
		return nil
	}))
	g.Go(guard("extraction", func() error {
		var err error
		extracted, err = p.extract(ctx, in)
		return err
	}))

	if err := g.Wait(); err != nil {
		return models.ResponseEnvelope{}, err
	}

	env := reconcile.Envelope(reconcile.Inputs{
		Primary:       extracted.primary,
		Lookup:        extracted.lookup,
		Archived:      archived,
		ArchiveErr:    archiveErr,
		GenerationErr: extracted.generationErr,
		LookupErr:     extracted.lookupErr,
		ModelFailed:   extracted.modelFailed,
	})

	slog.Info("Image processed",
		"images", len(images),
		"scan_type", req.ScanType,
		"title", env.ParsedFields.Get("title"),
		"isbn", env.ParsedFields.Get("isbn"),
		"archive_error", archiveErr != nil,
		"generation_error", extracted.generationErr != nil,
		"lookup_error", extracted.lookupErr != nil,
		"duration", time.Since(start),
	)
	return env, nil
}

type extractionOutcome struct {
	primary       models.ExtractionResult
	lookup        *models.ExtractionResult
	generationErr error
	lookupErr     error
	modelFailed   bool
}

// extract runs the generative strategy and the seeds concurrently, then the
// lookup once an ISBN is known.
func (p *Pipeline) extract(ctx context.Context, in extraction.Input) (extractionOutcome, error) {
	var out extractionOutcome

	seeds := extraction.OrderSeeds(p.seeds, in.ScanType)
	seedResults := make([]models.ExtractionResult, len(seeds))
	var generative models.ExtractionResult

	var g errgroup.Group
	g.Go(guard(stageGeneration, func() error {
		generative = p.generative.Extract(ctx, in)
		p.observe(stageGeneration, generative.Err)
		return nil
	}))
	for i, seed := range seeds {
		g.Go(guard(seed.Name(), func() error {
			seedResults[i] = seed.Extract(ctx, in)
			p.observe(seed.Name(), seedResults[i].Err)
			return nil
		}))
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	if generative.Err != nil {
		slog.Warn("Generative extraction failed", "reason", models.ReasonOf(generative.Err), "err", generative.Err)
	}
	for _, r := range seedResults {
		if r.Err != nil {
			slog.Debug("Seed strategy found no identifier", "strategy", r.Strategy, "reason", models.ReasonOf(r.Err), "err", r.Err)
		}
	}

	out.generationErr = generative.Err
	out.modelFailed = p.generative.Configured() && generative.Err != nil
	out.primary = primaryResult(generative, p.generative.Configured(), seedResults)

	isbn := SelectISBN(generative, seedResults, in.ScanType)
	switch {
	case isbn == "":
		out.lookupErr = noIdentifierError(seedResults)
		p.skipped(extraction.NameLookup, out.lookupErr)
	case p.enricher == nil:
		out.lookupErr = &models.LookupError{Reason: models.ReasonNotConfigured, Err: errLookupUnavailable}
		p.skipped(extraction.NameLookup, out.lookupErr)
	default:
		lookupCtx := ctx
		if p.lookupTimeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(ctx, p.lookupTimeout)
			defer cancel()
		}
		result := p.enricher.Enrich(lookupCtx, isbn)
		p.observe(extraction.NameLookup, result.Err)
		if result.Err != nil {
			slog.Warn("Lookup failed", "isbn", isbn, "reason", models.ReasonOf(result.Err), "err", result.Err)
			out.lookupErr = result.Err
		}
		out.lookup = &result
	}
	return out, nil
}

// primaryResult is the generative result whenever a model is configured,
// even a failed one, so a blocked or broken reply leaves every field null.
// Without a model, the first seed that produced anything stands in.
func primaryResult(generative models.ExtractionResult, configured bool, seeds []models.ExtractionResult) models.ExtractionResult {
	if configured {
		return generative
	}
	for _, r := range seeds {
		if !r.Record.IsEmpty() {
			return r
		}
	}
	return generative
}

// SelectISBN picks the lookup key. The generative reading comes first unless
// the caller said the photo is a barcode, in which case decoded seeds lead.
// Values failing the ISBN checksum are skipped.
func SelectISBN(generative models.ExtractionResult, seeds []models.ExtractionResult, hint models.ScanType) string {
	candidates := make([]string, 0, len(seeds)+1)
	if hint != models.ScanTypeBarcode {
		candidates = append(candidates, generative.Record.Get("isbn"))
	}
	for _, r := range seeds {
		candidates = append(candidates, r.Record.Get("isbn"))
	}
	if hint == models.ScanTypeBarcode {
		candidates = append(candidates, generative.Record.Get("isbn"))
	}

	for _, c := range candidates {
		if c = lookup.CleanISBN(c); c != "" && lookup.ValidISBN(c) {
			return c
		}
	}
	return ""
}

// noIdentifierError reports the first seed's own failure when seeds ran,
// so the caller sees e.g. no_barcode rather than a generic message.
func noIdentifierError(seeds []models.ExtractionResult) error {
	for _, r := range seeds {
		if r.Err != nil {
			return r.Err
		}
	}
	return &models.LookupError{Reason: models.ReasonNoIdentifier, Err: errNoIdentifier}
}

func (p *Pipeline) observe(stage string, err error) {
	if err != nil {
		p.metrics.ObserveStage(stage, metrics.OutcomeError, string(models.ReasonOf(err)))
		return
	}
	p.metrics.ObserveStage(stage, metrics.OutcomeOK, "")
}

// skipped records a stage that never ran, labelled with why
func (p *Pipeline) skipped(stage string, cause error) {
	p.metrics.ObserveStage(stage, metrics.OutcomeSkipped, string(models.ReasonOf(cause)))
}

// guard turns a panic in a stage into an error so the request can be
// answered with a 500 instead of crashing the process.
func guard(stage string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Stage panicked", "stage", stage, "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("stage %s panicked: %v", stage, r)
			}
		}()
		return fn()
	}
}
