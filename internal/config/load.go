package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default returns the configuration the service runs with when no file is given.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:         "openai",
			Model:            "gpt-4o",
			Temperature:      0.05,
			MaxTokens:        2048,
			TimeoutMs:        60000,
			MaxRetries:       6,
			StructuredOutput: true,
			ContextTokens:    6000,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		VectorDB: VectorDBConfig{
			Provider:   "milvus",
			Host:       "localhost",
			Port:       19530,
			Collection: "pathway_rag",
			MetricType: "IP",
		},
		Index: IndexConfig{
			Provider:    "milvus",
			Endpoint:    "http://localhost:8000",
			TopK:        5,
			TimeoutMs:   10000,
			ChunkTokens: 400,
		},
		Search: SearchConfig{
			Enabled:   true,
			Cascade:   []string{"serper", "serpapi"},
			TopK:      10,
			TimeoutMs: 20000,
			Serper: SerperConfig{
				Endpoint:   "https://google.serper.dev",
				SearchType: "search",
				GL:         "us",
				HL:         "en",
			},
			SerpAPI: SerpAPIConfig{
				Endpoint:      "https://serpapi.com/search",
				Engine:        "google_finance",
				ScrapeChars:   800,
				MaxScrapeURLs: 5,
				StockInfo:     true,
			},
			Bing:       SourceConfig{Endpoint: "https://api.bing.microsoft.com/v7.0/search"},
			DuckDuckGo: SourceConfig{Endpoint: "https://api.duckduckgo.com/"},
		},
		Gate: GateConfig{
			FailMode:  "closed",
			TimeoutMs: 30000,
			Relevance: RelevanceConfig{
				Provider:    "binary",
				Correct:     0.7,
				Incorrect:   0.3,
				AmbiguousAs: "not_relevant",
				ProbeTopK:   5,
			},
		},
		Orchestrator: OrchestratorConfig{
			MaxRounds:        2,
			FollowUpFailMode: "complete",
			DecomposeRetries: 1,
		},
		HTTP: HTTPClientConfig{
			TimeoutMs:              15000,
			Retry:                  2,
			BackoffMinMs:           200,
			BackoffMaxMs:           2000,
			MaxConsecutiveFailures: 5,
			CircuitOpenSeconds:     30,
		},
		Cache: CacheConfig{
			Enable:     true,
			MaxEntries: 1000,
			TTLSeconds: 3600,
			Prefix:     "pathway-rag:",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9000,
			AllowedOrigins:  []string{"*"},
			RequestTimeoutS: 300,
		},
		Upload: UploadConfig{
			Dir:      "/app/data",
			MaxBytes: 32 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file on top of the defaults, then applies environment overrides.
// An empty path yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays secrets and deployment settings from the environment.
func (c *Config) ApplyEnv() {
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	setString(&c.LLM.Model, "OPENAI_MODEL")
	setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&c.Embedding.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Search.Serper.APIKey, "SERPER_API_KEY")
	setString(&c.Search.SerpAPI.APIKey, "SERP_API_KEY")
	setString(&c.Search.Bing.APIKey, "BING_API_KEY")
	setString(&c.VectorDB.Host, "MILVUS_HOST")
	setInt(&c.VectorDB.Port, "MILVUS_PORT")
	setString(&c.VectorDB.Username, "MILVUS_USERNAME")
	setString(&c.VectorDB.Password, "MILVUS_PASSWORD")
	setString(&c.Index.Endpoint, "PATHWAY_INDEX_URL")
	setString(&c.Cache.RedisURL, "REDIS_URL")
	setString(&c.Upload.Dir, "UPLOAD_DIR")
	setInt(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
