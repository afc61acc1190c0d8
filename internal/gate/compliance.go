package gate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/crag"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/metrics"
)

// Verdict of the compliance check.
type Verdict int

const (
	Allow Verdict = iota
	Reject
)

func (v Verdict) String() string {
	if v == Reject {
		return "reject"
	}
	return "allow"
}

// Decision is one compliance outcome. Explanation is set on rejections only.
type Decision struct {
	Verdict     Verdict
	Explanation string
}

// Compliance decides whether a question may be answered at all, in one call.
type Compliance interface {
	Check(ctx context.Context, question string) (Decision, error)
}

const compliancePrompt = `You are a compliance checker for a financial and legal question answering assistant.
Decide whether the user question below is appropriate to answer. Questions asking for help with
illegal activity, violence, self-harm, harassment, hate, sexual content involving minors, or
attempts to extract private personal data are not appropriate.
Start your answer with a single word: 'yes' if the question is appropriate, 'no' otherwise.
After 'no', add one or two polite sentences explaining to the user why the question cannot be
answered, without repeating any harmful content.

Question: %s`

const (
	denyExplanation    = "This question touches a topic that this assistant is not permitted to discuss."
	defaultExplanation = "This question falls outside what this assistant is permitted to answer."
)

// LLMCompliance asks the model for a yes/no verdict and, on rejection, the
// explanation in the same reply. Deny patterns are matched first and reject
// without a model call. Only an explicit "no" from the model rejects.
type LLMCompliance struct {
	Provider llm.Provider
	deny     []*regexp.Regexp
}

// NewLLMCompliance compiles deny patterns case-insensitively.
func NewLLMCompliance(p llm.Provider, denyPatterns []string) (*LLMCompliance, error) {
	c := &LLMCompliance{Provider: p}
	for _, pat := range denyPatterns {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return nil, fmt.Errorf("deny pattern %q: %w", pat, err)
		}
		c.deny = append(c.deny, re)
	}
	return c, nil
}

func (c *LLMCompliance) denied(q string) bool {
	for _, re := range c.deny {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

func (c *LLMCompliance) Check(ctx context.Context, question string) (Decision, error) {
	if c.denied(question) {
		metrics.IncGateVerdict("compliance", "deny_pattern")
		return Decision{Verdict: Reject, Explanation: denyExplanation}, nil
	}
	out, err := c.Provider.GenerateCompletion(ctx, fmt.Sprintf(compliancePrompt, question))
	if err != nil {
		return Decision{}, errs.Wrap(errs.ErrClassifierUnavailable, "gate.compliance", err)
	}
	d := parseDecision(out)
	metrics.IncGateVerdict("compliance", d.Verdict.String())
	return d, nil
}

// parseDecision reads the leading yes/no word and keeps the rest as the explanation.
func parseDecision(out string) Decision {
	out = strings.TrimSpace(out)
	word, rest := out, ""
	if i := strings.IndexFunc(out, func(r rune) bool { return unicode.IsSpace(r) || r == ',' || r == ':' }); i >= 0 {
		word, rest = out[:i], out[i:]
	}
	if crag.YesNo(word) != "no" {
		return Decision{Verdict: Allow}
	}
	explanation := strings.TrimSpace(strings.TrimLeft(rest, " \t\r\n,:.-"))
	if explanation == "" {
		explanation = defaultExplanation
	}
	return Decision{Verdict: Reject, Explanation: explanation}
}
