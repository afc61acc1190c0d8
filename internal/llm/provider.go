package llm

import (
	"context"
	"fmt"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

// Provider is a single-turn prompt to text call.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
	GetProviderType() string
}

// StructuredProvider can constrain a completion to a JSON schema.
// The returned string is the raw JSON document.
type StructuredProvider interface {
	Provider
	GenerateJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error)
}

const (
	ProviderOpenAI = "openai"
)

// NewProvider builds the configured provider.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	default:
		return nil, errs.New(errs.ErrGenerationUnavailable, "llm.new", fmt.Sprintf("unsupported provider %q", cfg.Provider))
	}
}
