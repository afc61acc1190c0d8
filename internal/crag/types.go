package crag

import (
	"context"
	"strings"
)

// Verdict indicates evaluator decision for corrective actions.
type Verdict int

const (
	VerdictCorrect Verdict = iota
	VerdictAmbiguous
	VerdictIncorrect
)

// String returns the string representation of Verdict
func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictAmbiguous:
		return "ambiguous"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// ParseVerdict maps an external verdict label; unknown labels are ambiguous.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "correct", "relevant", "yes":
		return VerdictCorrect
	case "incorrect", "irrelevant", "not_relevant", "no":
		return VerdictIncorrect
	default:
		return VerdictAmbiguous
	}
}

// Evaluator scores (query, context) relevance in [0,1] and yields a verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, query string, contextText string) (score float64, verdict Verdict, err error)
}

// Thresholds turn a score into a verdict.
type Thresholds struct {
	Correct   float64 // default 0.7
	Incorrect float64 // default 0.3
}

func (t Thresholds) verdict(score float64) Verdict {
	correct := t.Correct
	if correct == 0 {
		correct = 0.7
	}
	incorrect := t.Incorrect
	if incorrect == 0 {
		incorrect = 0.3
	}
	switch {
	case score >= correct:
		return VerdictCorrect
	case score < incorrect:
		return VerdictIncorrect
	default:
		return VerdictAmbiguous
	}
}
