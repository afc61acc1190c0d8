package gate

import (
	"context"
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/crag"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/metrics"
)

// Relevance grades whether probe snippets from the internal index can answer a question.
type Relevance interface {
	Grade(ctx context.Context, question string, snippets []string) (bool, error)
}

// EvaluatorRelevance adapts a crag.Evaluator to a binary relevance grade.
type EvaluatorRelevance struct {
	Evaluator crag.Evaluator
	// AmbiguousRelevant maps an ambiguous verdict to relevant instead of not relevant.
	AmbiguousRelevant bool
	// Budget trims the probe before it is shown to the evaluator.
	Budget *llm.Budget
}

func (r *EvaluatorRelevance) Grade(ctx context.Context, question string, snippets []string) (bool, error) {
	if len(snippets) == 0 {
		metrics.IncGateVerdict("relevance", "empty_probe")
		return false, nil
	}
	doc := strings.Join(r.Budget.Fit(snippets), "\n\n")
	score, verdict, err := r.Evaluator.Evaluate(ctx, question, doc)
	if err != nil {
		return false, errs.Wrap(errs.ErrClassifierUnavailable, "gate.relevance", err)
	}
	metrics.IncGateVerdict("relevance", verdict.String())
	logger.Debugf("gate: relevance score=%.2f verdict=%s", score, verdict)
	switch verdict {
	case crag.VerdictCorrect:
		return true, nil
	case crag.VerdictAmbiguous:
		return r.AmbiguousRelevant, nil
	default:
		return false, nil
	}
}

type openCompliance struct{ inner Compliance }

// FailOpenCompliance allows the question when the classifier fails.
func FailOpenCompliance(c Compliance) Compliance { return &openCompliance{inner: c} }

func (o *openCompliance) Check(ctx context.Context, q string) (Decision, error) {
	d, err := o.inner.Check(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return Decision{}, err
		}
		logger.Warnf("gate: compliance unavailable, failing open: %v", err)
		metrics.IncGateVerdict("compliance", "fail_open")
		return Decision{Verdict: Allow}, nil
	}
	return d, nil
}

type openRelevance struct{ inner Relevance }

// FailOpenRelevance treats the probe as relevant when the grader fails.
func FailOpenRelevance(r Relevance) Relevance { return &openRelevance{inner: r} }

func (o *openRelevance) Grade(ctx context.Context, q string, snippets []string) (bool, error) {
	ok, err := o.inner.Grade(ctx, q, snippets)
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		logger.Warnf("gate: relevance unavailable, failing open: %v", err)
		metrics.IncGateVerdict("relevance", "fail_open")
		return true, nil
	}
	return ok, nil
}
