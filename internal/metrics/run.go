package metrics

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
)

// RunRecord is the per-request summary logged after every orchestration run.
type RunRecord struct {
	mu sync.Mutex

	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`

	Route       string   `json:"route"`
	Relevance   string   `json:"relevance,omitempty"`
	ProbeCount  int      `json:"probe_count"`
	ProbeTop1   float64  `json:"probe_top1,omitempty"`
	Rounds      int      `json:"rounds"`
	Subtasks    []string `json:"subtasks,omitempty"`
	AnalystRuns int      `json:"analyst_runs"`
	SynthRuns   int      `json:"synth_runs"`
	Retries     int      `json:"decomposition_retries,omitempty"`

	Sources map[string]SourceStats `json:"sources,omitempty"`
	States  []string               `json:"states"`

	TotalLatencyMs int64  `json:"total_latency_ms"`
	Success        bool   `json:"success"`
	ErrorMsg       string `json:"error_msg,omitempty"`
}

// SourceStats aggregates retrieval calls per source within a run.
type SourceStats struct {
	Calls       int   `json:"calls"`
	LatencyMs   int64 `json:"latency_ms"`
	ResultCount int   `json:"result_count"`
}

func NewRunRecord(runID, query string) *RunRecord {
	return &RunRecord{
		RunID:     runID,
		Query:     query,
		Timestamp: time.Now(),
		Sources:   make(map[string]SourceStats),
		States:    make([]string, 0, 12),
	}
}

// AddSource merges one retrieval call into the per-source totals.
func (r *RunRecord) AddSource(source string, latency time.Duration, results int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Sources == nil {
		r.Sources = make(map[string]SourceStats)
	}
	s := r.Sources[source]
	s.Calls++
	s.LatencyMs += latency.Milliseconds()
	s.ResultCount += results
	r.Sources[source] = s
}

// Finish stamps the outcome and total latency.
func (r *RunRecord) Finish(err error) {
	r.TotalLatencyMs = time.Since(r.Timestamp).Milliseconds()
	r.Success = err == nil
	if err != nil {
		r.ErrorMsg = err.Error()
	}
}

// Log writes the record as one JSON line.
func (r *RunRecord) Log() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if data, err := json.Marshal(r); err == nil {
		logger.Infof("[RAG_METRICS] %s", string(data))
	}
}
