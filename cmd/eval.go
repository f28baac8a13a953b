package cmd

import (
	"fmt"
	"log/slog"

	"github.com/aob-scanner/book-scanner/internal/config"
	"github.com/aob-scanner/book-scanner/internal/eval/dataset"
	"github.com/aob-scanner/book-scanner/internal/eval/metrics"
	"github.com/aob-scanner/book-scanner/internal/eval/results"
	"github.com/aob-scanner/book-scanner/internal/eval/runner"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var (
		datasetPath string
		limit       int
		concurrency int
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure extraction accuracy against a labelled dataset",
		Long: `Runs the extraction pipeline on every record of a JSONL or Parquet dataset
and scores each field against the ground truth with Levenshtein similarity.

Each record lists up to two image paths (relative to the dataset file) and
the expected title, author, isbn, publisher, release_date, language and
edition. Results are written as YAML under the output directory.`,
		Example: `  bookscanner eval --dataset testdata/books.jsonl
  bookscanner eval --dataset books.parquet --limit 50 --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return err
			}

			loader := dataset.NewLoader(datasetPath)
			records, err := loader.LoadSample(limit)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			slog.Info("Dataset loaded", "path", datasetPath, "records", len(records))

			c := buildComponents(cmd.Context(), cfg)
			defer c.Close()

			evalResults := runner.New(c.Pipeline, loader.Dir(), concurrency).Run(cmd.Context(), records)

			agg := metrics.AggregateEvaluationResults(evalResults, c.Provider, c.Model)
			agg.PrintSummary(cmd.OutOrStdout())

			path, err := results.SaveToYAML(outputDir, results.EvalConfig{
				Provider:       c.Provider,
				Model:          c.Model,
				Temperature:    cfg.Temperature,
				SeedStrategies: cfg.SeedStrategies,
				DatasetPath:    datasetPath,
			}, evalResults, agg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a .jsonl or .parquet dataset")
	cmd.Flags().IntVar(&limit, "limit", 0, "Evaluate at most this many records (0 = all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Records processed in parallel")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory for YAML results")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
