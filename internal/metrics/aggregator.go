// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/mwiater/reviewrag/internal/providers"
)

// Aggregator collects and manages performance metrics for generation models.
// Previously persisted metrics are loaded on creation and written back by Save.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	filePath string
	now      func() time.Time
}

// NewAggregator creates an Aggregator backed by filePath.
func NewAggregator(filePath string) *Aggregator {
	agg := &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		filePath: filePath,
		now:      time.Now,
	}
	agg.load()
	return agg
}

// load reads metrics from the JSON file into memory. A missing or corrupt file starts empty.
func (a *Aggregator) load() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	metricsSlice, err := Load(a.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.LogEvent("[METRICS] Ignoring unreadable metrics file %s: %v", a.filePath, err)
		}
		return
	}
	for i := range metricsSlice {
		m := metricsSlice[i]
		a.metrics[m.ModelName] = &m
	}
}

// Load reads a persisted metrics file.
func Load(path string) ([]ModelMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var metricsSlice []ModelMetrics
	if err := json.Unmarshal(data, &metricsSlice); err != nil {
		return nil, fmt.Errorf("parse metrics file %s: %w", path, err)
	}
	return metricsSlice, nil
}

// Save writes the current metrics to the JSON file.
func (a *Aggregator) Save() error {
	logging.LogEvent("[METRICS] Saving metrics to %s", a.filePath)
	data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(a.filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(a.filePath, data, 0o644)
}

// Snapshot returns a copy of the metrics sorted by model name.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		clone := *m
		clone.PerformanceBuckets = append([]PerformanceBucket(nil), m.PerformanceBuckets...)
		out = append(out, clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out
}

// Record updates the metrics for a model with one request outcome.
func (a *Aggregator) Record(model string, meta providers.Metadata, latency time.Duration, failed bool) {
	logging.LogEvent("[METRICS] Record called for model %s", model)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics, exists := a.metrics[model]
	if !exists {
		modelMetrics = &ModelMetrics{
			ModelName: model,
		}
		a.metrics[model] = modelMetrics
	}

	modelMetrics.LastUpdatedUTC = a.now().UTC()

	updateStats(&modelMetrics.OverallStats, meta, latency, failed)

	bucket := getBucket(meta.PromptEvalCount)
	for i := range modelMetrics.PerformanceBuckets {
		if modelMetrics.PerformanceBuckets[i].Dimension == "input_tokens" && modelMetrics.PerformanceBuckets[i].Bucket == bucket {
			updateStats(&modelMetrics.PerformanceBuckets[i].Stats, meta, latency, failed)
			return
		}
	}
	newBucket := PerformanceBucket{
		Dimension: "input_tokens",
		Bucket:    bucket,
	}
	updateStats(&newBucket.Stats, meta, latency, failed)
	modelMetrics.PerformanceBuckets = append(modelMetrics.PerformanceBuckets, newBucket)
}

// updateStats updates the running statistics with one request.
// Failed requests only count towards the request totals.
func updateStats(stats *RunningAggregatedStats, meta providers.Metadata, latency time.Duration, failed bool) {
	stats.TotalRequests++
	if failed {
		stats.FailedRequests++
		return
	}
	updateRunningStat(&stats.LatencyMillis, float64(latency.Milliseconds()))

	if meta.EvalDuration > 0 {
		tokensPerSecond := float64(meta.EvalCount) / (float64(meta.EvalDuration) / 1e9)
		updateRunningStat(&stats.TokensPerSecond, tokensPerSecond)
	}

	updateRunningStat(&stats.InputTokens, float64(meta.PromptEvalCount))
	updateRunningStat(&stats.OutputTokens, float64(meta.EvalCount))
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// StdDev returns the sample standard deviation, or 0 with fewer than two values.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}

// getBucket determines the performance bucket for a given number of input tokens.
func getBucket(inputTokens int) string {
	switch {
	case inputTokens <= 256:
		return "0-256"
	case inputTokens <= 1024:
		return "257-1024"
	case inputTokens <= 4096:
		return "1025-4096"
	case inputTokens <= 8192:
		return "4097-8192"
	default:
		return "8192+"
	}
}
