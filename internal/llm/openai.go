package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

const defaultSystemPrompt = "You are a helpful assistant."

// OpenAIProvider implements StructuredProvider with the chat completions API.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
}

func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.ErrGenerationUnavailable, "llm.new", "openai api key is required")
	}
	timeout := config.Ms(cfg.TimeoutMs, 60*time.Second)
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// retries are handled here so only transient failures are repeated
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		maxRetries:  cfg.MaxRetries,
		backoffBase: 500 * time.Millisecond,
		backoffMax:  20 * time.Second,
	}, nil
}

func (p *OpenAIProvider) GetProviderType() string { return ProviderOpenAI }

// Model is the configured chat model name.
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, "llm.generate", p.params(prompt))
}

func (p *OpenAIProvider) GenerateJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error) {
	params := p.params(prompt)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   name,
				Schema: schema,
				Strict: openai.Bool(true),
			},
		},
	}
	return p.complete(ctx, "llm.generate_json", params)
}

func (p *OpenAIProvider) params(prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(defaultSystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.maxTokens))
	}
	return params
}

func (p *OpenAIProvider) complete(ctx context.Context, op string, params openai.ChatCompletionNewParams) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			d := p.backoff(attempt)
			logger.Warnf("llm: %s attempt %d/%d failed, retrying in %v: %v", op, attempt, p.maxRetries+1, d, lastErr)
			select {
			case <-ctx.Done():
				return "", errs.Wrap(errs.ErrGenerationUnavailable, op, ctx.Err())
			case <-time.After(d):
			}
		}
		text, err := p.once(ctx, params)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return "", errs.Wrap(errs.ErrGenerationUnavailable, op, lastErr)
}

func (p *OpenAIProvider) once(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(cctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// backoff is exponential with full jitter, capped at backoffMax.
func (p *OpenAIProvider) backoff(attempt int) time.Duration {
	d := p.backoffBase << (attempt - 1)
	if d <= 0 || d > p.backoffMax {
		d = p.backoffMax
	}
	return time.Duration(rand.Int63n(int64(d)) + 1)
}

// retryable reports whether err is a transient failure: rate limits, server
// errors, timeouts of a single attempt and transport errors.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusConflict,
			apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	return true
}

var _ StructuredProvider = (*OpenAIProvider)(nil)

func (p *OpenAIProvider) String() string {
	return fmt.Sprintf("openai(%s)", p.model)
}
