package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aob-scanner/book-scanner/internal/eval/metadata"
	"github.com/aob-scanner/book-scanner/internal/models"
)

// EvaluationResult represents the results for a single book evaluation
type EvaluationResult struct {
	ID             string
	Title          string
	Expected       models.MetadataRecord
	Actual         models.MetadataRecord
	StageErrors    map[string]string // non-fatal pipeline errors by slot
	Comparison     *metadata.Comparison
	ProcessingTime time.Duration
	Error          string // set when the record could not be processed at all
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int
	SuccessCount int
	FailureCount int

	Fields      map[string]*FieldStats
	StageErrors map[string]int

	OverallAccuracy float64
	MedianScore     float64

	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	EvaluationDate time.Time
	Provider       string
	Model          string
}

// FieldStats contains statistics for one canonical field
type FieldStats struct {
	ExactMatches  int
	FuzzyMatches  int
	NoMatches     int
	MissingFields int
	AverageScore  float64
	Scores        []float64
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult, provider, model string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Fields:         make(map[string]*FieldStats),
		StageErrors:    make(map[string]int),
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
	}

	var (
		overall         []float64
		successDuration time.Duration
	)
	for _, result := range results {
		agg.TotalProcessingTime += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime
		for slot := range result.StageErrors {
			agg.StageErrors[slot]++
		}

		if result.Comparison == nil || len(result.Comparison.Fields) == 0 {
			continue
		}
		for name, fc := range result.Comparison.Fields {
			stats, ok := agg.Fields[name]
			if !ok {
				stats = &FieldStats{}
				agg.Fields[name] = stats
			}
			aggregateFieldStats(stats, fc)
		}
		overall = append(overall, result.Comparison.OverallScore)
	}

	for _, stats := range agg.Fields {
		stats.AverageScore = calculateAverage(stats.Scores)
	}
	if len(overall) > 0 {
		agg.OverallAccuracy = calculateAverage(overall)
		agg.MedianScore = median(overall)
	}
	if agg.SuccessCount > 0 {
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}
	return agg
}

// aggregateFieldStats updates field statistics
func aggregateFieldStats(stats *FieldStats, fc metadata.FieldComparison) {
	stats.Scores = append(stats.Scores, fc.Score)

	switch fc.Match {
	case "exact":
		stats.ExactMatches++
	case "fuzzy_high", "fuzzy_medium", "fuzzy_low":
		stats.FuzzyMatches++
	case "no_match":
		stats.NoMatches++
	case "missing":
		stats.MissingFields++
	}
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}

func median(scores []float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// PrintSummary writes a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "BOOK SCANNER EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Provider: %s\n", a.Provider)
	fmt.Fprintf(w, "Model: %s\n", a.Model)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PROCESSING STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Records: %d\n", a.TotalRecords)
	if a.TotalRecords > 0 {
		fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", a.SuccessCount, float64(a.SuccessCount)/float64(a.TotalRecords)*100)
		fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", a.FailureCount, float64(a.FailureCount)/float64(a.TotalRecords)*100)
	}
	fmt.Fprintf(w, "Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	for _, slot := range sortedKeys(a.StageErrors) {
		fmt.Fprintf(w, "Records with %s: %d\n", slot, a.StageErrors[slot])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FIELD-LEVEL ACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, name := range metadata.ScoredFields {
		if stats, ok := a.Fields[name]; ok {
			printFieldStats(w, name, stats)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL SCORE")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Overall Accuracy: %.2f%% (%.3f)\n", a.OverallAccuracy*100, a.OverallAccuracy)
	fmt.Fprintf(w, "Median Score: %.2f%%\n", a.MedianScore*100)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// printFieldStats prints statistics for a single field
func printFieldStats(w io.Writer, fieldName string, stats *FieldStats) {
	fmt.Fprintf(w, "\n%s:\n", fieldName)
	fmt.Fprintf(w, "  Average Score: %.2f%% (%.3f)\n", stats.AverageScore*100, stats.AverageScore)
	fmt.Fprintf(w, "  Exact Matches: %d\n", stats.ExactMatches)
	fmt.Fprintf(w, "  Fuzzy Matches: %d\n", stats.FuzzyMatches)
	fmt.Fprintf(w, "  No Matches: %d\n", stats.NoMatches)
	fmt.Fprintf(w, "  Missing Fields: %d\n", stats.MissingFields)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
