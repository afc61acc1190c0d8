package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, err.Field, err.Message))
	}
	return b.String()
}

// Fields lists the offending field paths in order.
func (errs ValidationErrors) Fields() []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

// KnownSources are the external search sources the cascade can be built from.
var KnownSources = map[string]bool{
	"serper":     true,
	"serpapi":    true,
	"bing":       true,
	"duckduckgo": true,
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateIndex()...)
	errs = append(errs, c.validateSearch()...)
	errs = append(errs, c.validateGate()...)
	errs = append(errs, c.validateOrchestrator()...)
	errs = append(errs, c.validateServer()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateLLM() ValidationErrors {
	var errs ValidationErrors

	if c.LLM.Provider != "openai" {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported llm provider %q", c.LLM.Provider),
		})
	}
	if c.LLM.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "llm.model",
			Message: "llm model is required",
		})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "llm.temperature",
			Message: fmt.Sprintf("llm.temperature must be in [0, 2], got %.2f", c.LLM.Temperature),
		})
	}
	if c.LLM.TimeoutMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "llm.timeout_ms",
			Message: fmt.Sprintf("llm.timeout_ms must be positive, got %d", c.LLM.TimeoutMs),
		})
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "llm.max_retries",
			Message: fmt.Sprintf("llm.max_retries must be non-negative, got %d", c.LLM.MaxRetries),
		})
	}
	return errs
}

func (c *Config) validateIndex() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.Index.Provider) {
	case "milvus":
		if c.VectorDB.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.host",
				Message: "vectordb host is required for milvus index",
			})
		}
		if c.VectorDB.Collection == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.collection",
				Message: "collection name is required for milvus index",
			})
		}
		if c.Embedding.Dimensions <= 0 {
			errs = append(errs, ValidationError{
				Field:   "embedding.dimensions",
				Message: fmt.Sprintf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions),
			})
		}
	case "pathway":
		if c.Index.Endpoint == "" {
			errs = append(errs, ValidationError{
				Field:   "index.endpoint",
				Message: "endpoint is required for pathway index",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "index.provider",
			Message: fmt.Sprintf("unsupported index provider %q", c.Index.Provider),
		})
	}

	if c.Index.TopK <= 0 || c.Index.TopK > 100 {
		errs = append(errs, ValidationError{
			Field:   "index.top_k",
			Message: fmt.Sprintf("index.top_k must be in [1, 100], got %d", c.Index.TopK),
		})
	}
	if c.Index.TimeoutMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "index.timeout_ms",
			Message: fmt.Sprintf("index.timeout_ms must be positive, got %d", c.Index.TimeoutMs),
		})
	}
	return errs
}

func (c *Config) validateSearch() ValidationErrors {
	var errs ValidationErrors

	if !c.Search.Enabled {
		return errs
	}
	if len(c.Search.Cascade) == 0 {
		errs = append(errs, ValidationError{
			Field:   "search.cascade",
			Message: "cascade must name at least one source when search is enabled",
		})
	}
	seen := make(map[string]bool)
	for i, name := range c.Search.Cascade {
		name = strings.ToLower(name)
		if !KnownSources[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("search.cascade[%d]", i),
				Message: fmt.Sprintf("unknown search source %q", name),
			})
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("search.cascade[%d]", i),
				Message: fmt.Sprintf("search source %q listed twice", name),
			})
		}
		seen[name] = true
	}
	if c.Search.TimeoutMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "search.timeout_ms",
			Message: fmt.Sprintf("search.timeout_ms must be positive, got %d", c.Search.TimeoutMs),
		})
	}
	return errs
}

func (c *Config) validateGate() ValidationErrors {
	var errs ValidationErrors

	if c.Gate.FailMode != "closed" && c.Gate.FailMode != "open" {
		errs = append(errs, ValidationError{
			Field:   "gate.fail_mode",
			Message: fmt.Sprintf("gate.fail_mode must be closed or open, got %q", c.Gate.FailMode),
		})
	}
	for i, p := range c.Gate.DenyPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("gate.deny_patterns[%d]", i),
				Message: fmt.Sprintf("invalid pattern: %v", err),
			})
		}
	}

	rel := c.Gate.Relevance
	switch rel.Provider {
	case "binary", "llm":
	case "http":
		if rel.Endpoint == "" {
			errs = append(errs, ValidationError{
				Field:   "gate.relevance.endpoint",
				Message: "endpoint is required for http relevance grader",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "gate.relevance.provider",
			Message: fmt.Sprintf("unsupported relevance provider %q", rel.Provider),
		})
	}
	if rel.Incorrect < 0 || rel.Correct > 1 || rel.Incorrect > rel.Correct {
		errs = append(errs, ValidationError{
			Field:   "gate.relevance.correct",
			Message: fmt.Sprintf("thresholds must satisfy 0 <= incorrect (%.2f) <= correct (%.2f) <= 1", rel.Incorrect, rel.Correct),
		})
	}
	if rel.AmbiguousAs != "relevant" && rel.AmbiguousAs != "not_relevant" {
		errs = append(errs, ValidationError{
			Field:   "gate.relevance.ambiguous_as",
			Message: fmt.Sprintf("ambiguous_as must be relevant or not_relevant, got %q", rel.AmbiguousAs),
		})
	}
	return errs
}

func (c *Config) validateOrchestrator() ValidationErrors {
	var errs ValidationErrors

	o := c.Orchestrator
	if o.MaxRounds < 1 || o.MaxRounds > 2 {
		errs = append(errs, ValidationError{
			Field:   "orchestrator.max_rounds",
			Message: fmt.Sprintf("orchestrator.max_rounds must be 1 or 2, got %d", o.MaxRounds),
		})
	}
	if o.FollowUpFailMode != "complete" && o.FollowUpFailMode != "fail" {
		errs = append(errs, ValidationError{
			Field:   "orchestrator.followup_fail_mode",
			Message: fmt.Sprintf("followup_fail_mode must be complete or fail, got %q", o.FollowUpFailMode),
		})
	}
	if o.StepTimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "orchestrator.step_timeout_ms",
			Message: fmt.Sprintf("orchestrator.step_timeout_ms must not be negative, got %d", o.StepTimeoutMs),
		})
	}
	if o.DecomposeRetries < 0 || o.DecomposeRetries > 1 {
		errs = append(errs, ValidationError{
			Field:   "orchestrator.decompose_retries",
			Message: fmt.Sprintf("orchestrator.decompose_retries must be 0 or 1, got %d", o.DecomposeRetries),
		})
	}
	return errs
}

func (c *Config) validateServer() ValidationErrors {
	var errs ValidationErrors

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("server.port must be in [1, 65535], got %d", c.Server.Port),
		})
	}
	if c.Upload.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "upload.dir",
			Message: "upload directory is required",
		})
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, ValidationError{
			Field:   "upload.max_bytes",
			Message: fmt.Sprintf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes),
		})
	}
	return errs
}
