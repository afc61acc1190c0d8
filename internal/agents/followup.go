package agents

import (
	"context"
	"fmt"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/crag"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

// FollowUp decides whether an answer needs another round.
type FollowUp struct {
	LLM    llm.Provider
	Budget *llm.Budget
}

// IsComplete returns false when the evaluator asks for a follow-up.
// An answer it cannot read as yes or no counts as complete.
func (f *FollowUp) IsComplete(ctx context.Context, question string, snippets []string, answer string) (bool, error) {
	out, err := f.LLM.GenerateCompletion(ctx, fmt.Sprintf(followUpPrompt, question, render(f.Budget, snippets), answer))
	if err != nil {
		return false, errs.Wrap(errs.ErrGenerationUnavailable, "followup.is_complete", err)
	}
	switch crag.YesNo(out) {
	case "yes":
		return false, nil
	case "no":
		return true, nil
	default:
		logger.Warnf("followup: unreadable verdict %.80q, treating as complete", out)
		return true, nil
	}
}
