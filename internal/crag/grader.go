package crag

import (
	"context"
	"fmt"
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

const graderPrompt = `You are a grader assessing relevance of a retrieved document to a user question.
If the document contains keyword(s) or semantic meaning related to the user question, grade it as relevant.
It does not need to be a stringent test. The goal is to filter out erroneous retrievals.
Give a binary score 'yes' or 'no' score to indicate whether the document is relevant to the question.`

// BinaryGrader asks the model for a yes/no relevance grade.
// yes scores 1 (correct), no scores 0 (incorrect), anything else 0.5 (ambiguous).
type BinaryGrader struct {
	Provider llm.Provider
}

func (g *BinaryGrader) Evaluate(ctx context.Context, query string, contextText string) (float64, Verdict, error) {
	prompt := fmt.Sprintf("%s\n\nUser Question : %s\nDocument : %s", graderPrompt, query, contextText)
	out, err := g.Provider.GenerateCompletion(ctx, prompt)
	if err != nil {
		return 0.5, VerdictAmbiguous, errs.Wrap(errs.ErrClassifierUnavailable, "crag.grade", err)
	}
	switch YesNo(out) {
	case "yes":
		return 1, VerdictCorrect, nil
	case "no":
		return 0, VerdictIncorrect, nil
	default:
		logger.Warnf("crag: grader answered neither yes nor no: %q", out)
		return 0.5, VerdictAmbiguous, nil
	}
}

// YesNo normalizes a binary model answer to "yes", "no" or "".
// Case, surrounding quotes and trailing punctuation are ignored.
func YesNo(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`*. \n\t")
	switch {
	case s == "yes" || strings.HasPrefix(s, "yes,") || strings.HasPrefix(s, "yes "):
		return "yes"
	case s == "no" || strings.HasPrefix(s, "no,") || strings.HasPrefix(s, "no "):
		return "no"
	default:
		return ""
	}
}
