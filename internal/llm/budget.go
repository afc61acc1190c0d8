package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
)

// Tokenizer counts and splits text in model tokens.
type Tokenizer interface {
	Count(text string) int
	// Split cuts text into consecutive pieces of at most limit tokens.
	Split(text string, limit int) []string
}

// NewTokenizer loads the tiktoken encoding for model, falling back to the
// 4-characters-per-token estimate when the encoding cannot be loaded.
func NewTokenizer(model string) Tokenizer {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	}
	if err != nil {
		logger.Warnf("llm: tiktoken unavailable for %s, estimating tokens: %v", model, err)
		return EstimateTokenizer{}
	}
	return &tiktokenTokenizer{enc: enc}
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *tiktokenTokenizer) Split(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	toks := t.enc.Encode(text, nil, nil)
	out := make([]string, 0, len(toks)/limit+1)
	for start := 0; start < len(toks); start += limit {
		end := start + limit
		if end > len(toks) {
			end = len(toks)
		}
		out = append(out, t.enc.Decode(toks[start:end]))
	}
	return out
}

// EstimateTokenizer assumes four characters per token.
type EstimateTokenizer struct{}

const charsPerToken = 4

func (EstimateTokenizer) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

func (EstimateTokenizer) Split(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	step := limit * charsPerToken
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + step
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// Budget trims context bundles so a prompt stays under a token limit.
type Budget struct {
	tok Tokenizer
	max int
}

// NewBudget caps bundles at limit tokens; limit <= 0 disables trimming.
func NewBudget(tok Tokenizer, limit int) *Budget {
	if tok == nil {
		tok = EstimateTokenizer{}
	}
	return &Budget{tok: tok, max: limit}
}

// Fit keeps snippets in rank order until the budget is spent, cutting the last
// one that does not fit. A nil Budget returns the input.
func (b *Budget) Fit(snippets []string) []string {
	if b == nil || b.max <= 0 {
		return snippets
	}
	out := make([]string, 0, len(snippets))
	left := b.max
	for _, s := range snippets {
		if left <= 0 {
			break
		}
		n := b.tok.Count(s)
		if n <= left {
			out = append(out, s)
			left -= n
			continue
		}
		if parts := b.tok.Split(s, left); len(parts) > 0 {
			out = append(out, strings.TrimSpace(parts[0]))
		}
		break
	}
	return out
}
