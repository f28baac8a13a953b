package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aob-scanner/book-scanner/internal/eval/metrics"
	"github.com/aob-scanner/book-scanner/internal/models"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider       string   `yaml:"provider"`
	Model          string   `yaml:"model"`
	Temperature    float64  `yaml:"temperature"`
	SeedStrategies []string `yaml:"seedstrategies,omitempty"`
	DatasetPath    string   `yaml:"datasetpath"`
	SampleSize     int      `yaml:"samplesize"`
	Timestamp      string   `yaml:"timestamp"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier       string             `yaml:"identifier"`
	Title            string             `yaml:"title"`
	Error            string             `yaml:"error,omitempty"`
	StageErrors      map[string]string  `yaml:"stageerrors,omitempty"`
	Extracted        map[string]string  `yaml:"extracted,omitempty"`
	OverallScore     float64            `yaml:"overallscore"`
	LevenshteinTotal int                `yaml:"levenshteintotal"`
	FieldsMatched    int                `yaml:"fieldsmatched"`
	FieldsMissing    int                `yaml:"fieldsmissing"`
	FieldsIncorrect  int                `yaml:"fieldsincorrect"`
	FieldScores      map[string]float64 `yaml:"fieldscores,omitempty"`
	DurationSeconds  float64            `yaml:"durationseconds"`
}

// EvalSummary is the aggregate block at the end of the file
type EvalSummary struct {
	SuccessCount    int                `yaml:"successcount"`
	FailureCount    int                `yaml:"failurecount"`
	OverallAccuracy float64            `yaml:"overallaccuracy"`
	MedianScore     float64            `yaml:"medianscore"`
	FieldAccuracy   map[string]float64 `yaml:"fieldaccuracy"`
	StageErrors     map[string]int     `yaml:"stageerrors,omitempty"`
}

// EvalSpec represents the complete evaluation specification
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Results []EvalResult `yaml:"results"`
	Summary EvalSummary  `yaml:"summary"`
}

// SaveToYAML writes the run to <dir>/<model>-<timestamp>.yaml and returns
// the file's path.
func SaveToYAML(dir string, cfg EvalConfig, results []metrics.EvaluationResult, agg *metrics.AggregateResults) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	cfg.SampleSize = len(results)

	spec := EvalSpec{
		Config:  cfg,
		Results: make([]EvalResult, 0, len(results)),
	}

	for _, r := range results {
		evalResult := EvalResult{
			Identifier:      r.ID,
			Title:           r.Title,
			Error:           r.Error,
			StageErrors:     r.StageErrors,
			DurationSeconds: r.ProcessingTime.Seconds(),
		}
		if r.Error == "" {
			evalResult.Extracted = fieldMap(r)
		}

		if r.Comparison != nil {
			evalResult.OverallScore = r.Comparison.OverallScore
			evalResult.LevenshteinTotal = r.Comparison.LevenshteinTotal
			evalResult.FieldsMatched = r.Comparison.FieldsMatched
			evalResult.FieldsMissing = r.Comparison.FieldsMissing
			evalResult.FieldsIncorrect = r.Comparison.FieldsIncorrect

			evalResult.FieldScores = make(map[string]float64)
			for name, fc := range r.Comparison.Fields {
				evalResult.FieldScores[name] = fc.Score
			}
		}

		spec.Results = append(spec.Results, evalResult)
	}

	if agg != nil {
		spec.Summary = EvalSummary{
			SuccessCount:    agg.SuccessCount,
			FailureCount:    agg.FailureCount,
			OverallAccuracy: agg.OverallAccuracy,
			MedianScore:     agg.MedianScore,
			FieldAccuracy:   make(map[string]float64, len(agg.Fields)),
			StageErrors:     agg.StageErrors,
		}
		for name, stats := range agg.Fields {
			spec.Summary.FieldAccuracy[name] = stats.AverageScore
		}
	}

	model := cfg.Model
	if model == "" {
		model = "eval"
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", sanitize(model), cfg.Timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}

func fieldMap(r metrics.EvaluationResult) map[string]string {
	out := make(map[string]string)
	for _, name := range models.FieldNames {
		if v := r.Actual.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

// sanitize keeps model names like "mistral-small3.2:24b" usable as filenames
func sanitize(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', ' ':
			out[i] = '_'
		}
	}
	return string(out)
}
