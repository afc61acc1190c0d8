package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	retrieverLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_retriever_latency_ms",
		Help:    "Latency of retriever calls in milliseconds",
		Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200, 2500, 5000},
	}, []string{"type"})

	retrieverResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_retriever_results",
		Help:    "Number of results returned by a retriever",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"type"})

	probeTop1 = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_probe_top1",
		Help:    "Top1 score of the internal index probe",
		Buckets: []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 0.99, 1.0},
	})

	routeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_route_total",
		Help: "Runs by terminal route (internal/external/rejected)",
	}, []string{"route"})

	roundsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_rounds_total",
		Help: "Completed runs by number of decomposition rounds",
	}, []string{"rounds"})

	stepLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_step_latency_ms",
		Help:    "Latency of orchestrator steps in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000},
	}, []string{"step"})

	cascadeSource = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_cascade_source_total",
		Help: "External cascade attempts by source and outcome (hit/empty/error)",
	}, []string{"source", "outcome"})

	gateVerdict = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_gate_verdict_total",
		Help: "Gate classifier verdicts",
	}, []string{"gate", "verdict"})

	decompositionRetry = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rag_decomposition_retry_total",
		Help: "Decompositions retried after a format error",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveRetriever records latency and result size for a retriever type.
func ObserveRetriever(typ string, start time.Time, results int) {
	ensureRegistered()
	dur := time.Since(start).Milliseconds()
	retrieverLatency.WithLabelValues(typ).Observe(float64(dur))
	retrieverResults.WithLabelValues(typ).Observe(float64(results))
}

// ObserveProbeTop1 records the best score of the relevance probe.
func ObserveProbeTop1(score float64) {
	ensureRegistered()
	if score >= 0 {
		probeTop1.Observe(score)
	}
}

// IncRoute records which path a run ended on.
func IncRoute(route string) {
	ensureRegistered()
	routeTotal.WithLabelValues(route).Inc()
}

// IncRounds records how many decomposition rounds a run used.
func IncRounds(rounds int) {
	ensureRegistered()
	roundsTotal.WithLabelValues(strconv.Itoa(rounds)).Inc()
}

// ObserveStep records the latency of one orchestrator step.
func ObserveStep(step string, start time.Time) {
	ensureRegistered()
	stepLatency.WithLabelValues(step).Observe(float64(time.Since(start).Milliseconds()))
}

// IncCascade records one cascade attempt.
func IncCascade(source, outcome string) {
	ensureRegistered()
	cascadeSource.WithLabelValues(source, outcome).Inc()
}

// IncGateVerdict records a classifier verdict.
func IncGateVerdict(gate, verdict string) {
	ensureRegistered()
	gateVerdict.WithLabelValues(gate, verdict).Inc()
}

// IncDecompositionRetry counts a retried decomposition.
func IncDecompositionRetry() {
	ensureRegistered()
	decompositionRetry.Inc()
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		retrieverLatency, retrieverResults, probeTop1, routeTotal, roundsTotal,
		stepLatency, cascadeSource, gateVerdict, decompositionRetry,
	}
}

// Handler serves the default registry with every rag collector registered.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
