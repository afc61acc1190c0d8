package agents

import (
	"context"
	"fmt"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

// Synthesizer merges analyst responses into one answer.
type Synthesizer struct {
	LLM    llm.Provider
	Budget *llm.Budget
}

// Synthesize unifies the first-round analyst responses.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, combined []string, response1, response2 string) (string, error) {
	prompt := fmt.Sprintf(leaderPrompt, question, render(s.Budget, combined), response1, response2)
	out, err := s.LLM.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", errs.Wrap(errs.ErrGenerationUnavailable, "synthesizer.synthesize", err)
	}
	return out, nil
}

// SynthesizeFinal folds the second-round responses into the first-round
// answer. An empty response4 leaves its line out of the prompt.
func (s *Synthesizer) SynthesizeFinal(ctx context.Context, question string, combined []string, roundOne, response3, response4 string) (string, error) {
	extra := fmt.Sprintf("Analyst 3 Response: %s\n", response3)
	if response4 != "" {
		extra += fmt.Sprintf("Analyst 4 Response: %s\n", response4)
	}
	prompt := fmt.Sprintf(unificationPrompt, question, render(s.Budget, combined), roundOne, extra)
	out, err := s.LLM.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", errs.Wrap(errs.ErrGenerationUnavailable, "synthesizer.synthesize_final", err)
	}
	return out, nil
}
