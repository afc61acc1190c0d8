package config

import (
	"fmt"
	"time"
)

// Config represents the main configuration structure for the question answering service
type Config struct {
	LLM          LLMConfig          `json:"llm" yaml:"llm"`
	Embedding    EmbeddingConfig    `json:"embedding" yaml:"embedding"`
	VectorDB     VectorDBConfig     `json:"vectordb" yaml:"vectordb"`
	Index        IndexConfig        `json:"index" yaml:"index"`
	Search       SearchConfig       `json:"search" yaml:"search"`
	Gate         GateConfig         `json:"gate" yaml:"gate"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	// HTTP holds defaults for outbound calls (search APIs, scraper, evaluator, index server).
	HTTP   HTTPClientConfig `json:"http" yaml:"http"`
	Cache  CacheConfig      `json:"cache" yaml:"cache"`
	Server ServerConfig     `json:"server" yaml:"server"`
	Upload UploadConfig     `json:"upload" yaml:"upload"`
	Log    LogConfig        `json:"log" yaml:"log"`
}

// LLMConfig defines configuration for the text generation model
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // Available options: openai
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TimeoutMs   int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	MaxRetries  int     `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	// StructuredOutput enables JSON-schema constrained responses where a caller asks for them.
	StructuredOutput bool `json:"structured_output,omitempty" yaml:"structured_output,omitempty"`
	// ContextTokens caps the context bundle rendered into any single prompt.
	ContextTokens int `json:"context_tokens,omitempty" yaml:"context_tokens,omitempty"`
}

// EmbeddingConfig defines configuration for embedding models
type EmbeddingConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // Available options: openai
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// VectorDBConfig defines configuration for the internal vector index
type VectorDBConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // Available options: milvus
	Host       string `json:"host,omitempty" yaml:"host,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	Database   string `json:"database,omitempty" yaml:"database,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	Username   string `json:"username,omitempty" yaml:"username,omitempty"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	// MetricType, e.g. IP or L2
	MetricType string `json:"metric_type,omitempty" yaml:"metric_type,omitempty"`
}

// Address renders host:port for the vector database.
func (v VectorDBConfig) Address() string {
	return fmt.Sprintf("%s:%d", v.Host, v.Port)
}

// IndexConfig selects the internal retrieval backend.
type IndexConfig struct {
	// Provider: "milvus" (embedding + vector store) or "pathway" (document store HTTP server)
	Provider  string  `json:"provider" yaml:"provider"`
	Endpoint  string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	TopK      int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	TimeoutMs int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	// Watch ingests the upload directory on start and on every change.
	Watch       bool `json:"watch,omitempty" yaml:"watch,omitempty"`
	ChunkTokens int  `json:"chunk_tokens,omitempty" yaml:"chunk_tokens,omitempty"`
}

// SearchConfig configures the external retrieval cascade.
type SearchConfig struct {
	// Enabled switches the external path on; when false a not-relevant grade still uses the internal index.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Cascade is the static preference order of sources, e.g. [serper, serpapi].
	Cascade    []string      `json:"cascade" yaml:"cascade"`
	TopK       int           `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	TimeoutMs  int           `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Serper     SerperConfig  `json:"serper" yaml:"serper"`
	SerpAPI    SerpAPIConfig `json:"serpapi" yaml:"serpapi"`
	Bing       SourceConfig  `json:"bing" yaml:"bing"`
	DuckDuckGo SourceConfig  `json:"duckduckgo" yaml:"duckduckgo"`
}

// SerperConfig mirrors the google.serper.dev request parameters.
type SerperConfig struct {
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	SearchType string `json:"search_type,omitempty" yaml:"search_type,omitempty"`
	GL         string `json:"gl,omitempty" yaml:"gl,omitempty"`
	HL         string `json:"hl,omitempty" yaml:"hl,omitempty"`
}

// SerpAPIConfig configures the search-and-scrape source.
type SerpAPIConfig struct {
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Engine for the results search; the answer box lookup always uses "google".
	Engine        string `json:"engine,omitempty" yaml:"engine,omitempty"`
	ScrapeChars   int    `json:"scrape_chars,omitempty" yaml:"scrape_chars,omitempty"`
	MaxScrapeURLs int    `json:"max_scrape_urls,omitempty" yaml:"max_scrape_urls,omitempty"`
	StockInfo     bool   `json:"stock_info,omitempty" yaml:"stock_info,omitempty"`
}

// SourceConfig is the generic endpoint + key pair used by simpler search APIs.
type SourceConfig struct {
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// GateConfig configures the compliance and relevance classifiers.
type GateConfig struct {
	// FailMode: "closed" surfaces classifier failures as server errors, "open" allows and proceeds.
	FailMode string `json:"fail_mode,omitempty" yaml:"fail_mode,omitempty"`
	// DenyPatterns are regular expressions rejected before the compliance model is called.
	DenyPatterns []string        `json:"deny_patterns,omitempty" yaml:"deny_patterns,omitempty"`
	Relevance    RelevanceConfig `json:"relevance" yaml:"relevance"`
	TimeoutMs    int             `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// RelevanceConfig selects the document grader.
type RelevanceConfig struct {
	// Provider: "binary" (yes/no grader), "llm" (scored) or "http" (external evaluator)
	Provider  string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	Endpoint  string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Correct   float64 `json:"correct,omitempty" yaml:"correct,omitempty"`
	Incorrect float64 `json:"incorrect,omitempty" yaml:"incorrect,omitempty"`
	// AmbiguousAs: "relevant" or "not_relevant"
	AmbiguousAs string `json:"ambiguous_as,omitempty" yaml:"ambiguous_as,omitempty"`
	// ProbeTopK limits how many probe snippets are shown to the grader.
	ProbeTopK int `json:"probe_top_k,omitempty" yaml:"probe_top_k,omitempty"`
}

// OrchestratorConfig tunes the decomposition and synthesis state machine.
type OrchestratorConfig struct {
	// MaxRounds is 1 or 2; a run never exceeds two rounds.
	MaxRounds int `json:"max_rounds,omitempty" yaml:"max_rounds,omitempty"`
	// FollowUpFailMode: "complete" treats an evaluator failure as a complete answer, "fail" aborts the run.
	FollowUpFailMode string `json:"followup_fail_mode,omitempty" yaml:"followup_fail_mode,omitempty"`
	// DecomposeRetries is the number of extra attempts after a format error (0 or 1).
	DecomposeRetries int `json:"decompose_retries" yaml:"decompose_retries"`
	// Sequential disables concurrent analyst calls.
	Sequential bool `json:"sequential,omitempty" yaml:"sequential,omitempty"`
	// StepTimeoutMs caps every generation or retrieval step; 0 leaves only the port timeouts.
	StepTimeoutMs int `json:"step_timeout_ms,omitempty" yaml:"step_timeout_ms,omitempty"`
}

// HTTPClientConfig holds outbound HTTP defaults.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
}

// CacheConfig controls generation and embedding caching.
type CacheConfig struct {
	Enable     bool `json:"enable,omitempty" yaml:"enable,omitempty"`
	MaxEntries int  `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	TTLSeconds int  `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	// RedisURL enables the shared L2 cache, e.g. redis://localhost:6379/0
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string   `json:"host,omitempty" yaml:"host,omitempty"`
	Port            int      `json:"port,omitempty" yaml:"port,omitempty"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	RequestTimeoutS int      `json:"request_timeout_s,omitempty" yaml:"request_timeout_s,omitempty"`
}

// Address renders host:port for the listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UploadConfig configures document uploads.
type UploadConfig struct {
	Dir      string `json:"dir,omitempty" yaml:"dir,omitempty"`
	MaxBytes int64  `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Ms converts a millisecond setting to a duration, using def when unset.
func Ms(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}
