package agents

import (
	"context"
	"fmt"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

// Analyst answers one subtask from its own context bundle.
type Analyst struct {
	LLM    llm.Provider
	Budget *llm.Budget
}

func (a *Analyst) Analyze(ctx context.Context, subtask string, bundle []string) (string, error) {
	out, err := a.LLM.GenerateCompletion(ctx, fmt.Sprintf(analystPrompt, subtask, render(a.Budget, bundle)))
	if err != nil {
		return "", errs.Wrap(errs.ErrGenerationUnavailable, "analyst.analyze", err)
	}
	return out, nil
}
