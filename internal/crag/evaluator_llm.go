package crag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

// LLMEvaluator uses an LLM to evaluate (query, context) relevance with detailed prompts.
// It scores relevance on a scale of 0-1 and determines a verdict.
type LLMEvaluator struct {
	Provider    llm.Provider
	CorrectTh   float64 // threshold for "correct" verdict (default 0.7)
	IncorrectTh float64 // threshold for "incorrect" verdict (default 0.3)
}

// systemPrompt guides the LLM on how to evaluate relevance
const systemPrompt = `You are an expert at evaluating document relevance.
Rate how relevant the given document is to the query on a scale from 0 to 1.
0 means completely irrelevant, 1 means perfectly relevant.
Provide ONLY the score as a float between 0 and 1.`

var scoreRegex = regexp.MustCompile(`(\d+(\.\d+)?)`)

// Evaluate implements the Evaluator interface using LLM-based relevance scoring
func (e *LLMEvaluator) Evaluate(ctx context.Context, query string, contextText string) (float64, Verdict, error) {
	userPrompt := fmt.Sprintf("Query: %s\n\nDocument: %s", query, contextText)
	fullPrompt := fmt.Sprintf("%s\n\n%s", systemPrompt, userPrompt)

	response, err := e.Provider.GenerateCompletion(ctx, fullPrompt)
	if err != nil {
		logger.Warnf("crag: llm evaluator call failed: %v", err)
		return 0.5, VerdictAmbiguous, errs.Wrap(errs.ErrClassifierUnavailable, "crag.llm_evaluate", err)
	}

	score := 0.5 // default middle value on parse failure
	if match := scoreRegex.FindStringSubmatch(response); len(match) > 0 {
		parsed, err := strconv.ParseFloat(match[1], 64)
		if err == nil && parsed >= 0 && parsed <= 1 {
			score = parsed
		} else {
			logger.Warnf("crag: parsed score out of range or invalid: %f", parsed)
		}
	} else {
		logger.Warnf("crag: failed to parse score from response: %s", response)
	}

	verdict := Thresholds{Correct: e.CorrectTh, Incorrect: e.IncorrectTh}.verdict(score)
	logger.Infof("crag: llm evaluator score=%.2f, verdict=%v", score, verdict)
	return score, verdict, nil
}
