package gate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/crag"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

type scriptedProvider struct {
	replies []string
	err     error
	prompts []string
}

func (s *scriptedProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scriptedProvider) GetProviderType() string { return "scripted" }

func TestLLMComplianceCheck(t *testing.T) {
	tests := []struct {
		reply       string
		want        Verdict
		explanation string
	}{
		{"yes", Allow, ""},
		{"Yes.", Allow, ""},
		{"I think so", Allow, ""},
		{"No. It asks for insider information.", Reject, "It asks for insider information."},
		{"no: it targets a private person", Reject, "it targets a private person"},
		{"NO\nThis requests help with fraud.", Reject, "This requests help with fraud."},
		{"No.", Reject, defaultExplanation},
	}
	for _, tt := range tests {
		p := &scriptedProvider{replies: []string{tt.reply}}
		c, err := NewLLMCompliance(p, nil)
		require.NoError(t, err)
		d, err := c.Check(context.Background(), "What was Apple's revenue?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.Verdict, tt.reply)
		assert.Equal(t, tt.explanation, d.Explanation, tt.reply)
		assert.Len(t, p.prompts, 1, "verdict and explanation come from one call")
	}
}

func TestDenyPatternRejectsWithoutModelCall(t *testing.T) {
	p := &scriptedProvider{}
	c, err := NewLLMCompliance(p, []string{`\bpassword\b`})
	require.NoError(t, err)

	d, err := c.Check(context.Background(), "Give me the admin PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, Reject, d.Verdict)
	assert.Equal(t, denyExplanation, d.Explanation)
	assert.Empty(t, p.prompts)

	_, err = NewLLMCompliance(p, []string{"("})
	assert.Error(t, err)
}

func TestComplianceFailures(t *testing.T) {
	broken, _ := NewLLMCompliance(&scriptedProvider{err: errors.New("down")}, nil)
	_, err := broken.Check(context.Background(), "q")
	assert.ErrorIs(t, err, errs.ErrClassifierUnavailable)

	d, err := FailOpenCompliance(broken).Check(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, Allow, d.Verdict)
}

type fixedEvaluator struct {
	verdict crag.Verdict
	err     error
	seen    string
	calls   int
}

func (f *fixedEvaluator) Evaluate(ctx context.Context, q, doc string) (float64, crag.Verdict, error) {
	f.calls++
	f.seen = doc
	return 0, f.verdict, f.err
}

func TestEvaluatorRelevance(t *testing.T) {
	tests := []struct {
		name      string
		verdict   crag.Verdict
		ambiguous bool
		want      bool
	}{
		{"correct", crag.VerdictCorrect, false, true},
		{"incorrect", crag.VerdictIncorrect, true, false},
		{"ambiguous default", crag.VerdictAmbiguous, false, false},
		{"ambiguous as relevant", crag.VerdictAmbiguous, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &fixedEvaluator{verdict: tt.verdict}
			r := &EvaluatorRelevance{Evaluator: ev, AmbiguousRelevant: tt.ambiguous}
			got, err := r.Grade(context.Background(), "q", []string{"a", "b"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "a\n\nb", ev.seen)
		})
	}
}

func TestEvaluatorRelevanceEmptyProbeSkipsGrader(t *testing.T) {
	ev := &fixedEvaluator{verdict: crag.VerdictCorrect}
	got, err := (&EvaluatorRelevance{Evaluator: ev}).Grade(context.Background(), "q", []string{})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Zero(t, ev.calls)
}

func TestEvaluatorRelevanceBudgetAndFailures(t *testing.T) {
	ev := &fixedEvaluator{verdict: crag.VerdictCorrect}
	r := &EvaluatorRelevance{Evaluator: ev, Budget: llm.NewBudget(llm.EstimateTokenizer{}, 1)}
	_, err := r.Grade(context.Background(), "q", []string{strings.Repeat("x", 40)})
	require.NoError(t, err)
	assert.Equal(t, "xxxx", ev.seen)

	broken := &EvaluatorRelevance{Evaluator: &fixedEvaluator{err: errors.New("down")}}
	_, err = broken.Grade(context.Background(), "q", []string{"a"})
	assert.ErrorIs(t, err, errs.ErrClassifierUnavailable)

	ok, err := FailOpenRelevance(broken).Grade(context.Background(), "q", []string{"a"})
	require.NoError(t, err)
	assert.True(t, ok)
}

type blockingRelevance struct{}

func (blockingRelevance) Grade(ctx context.Context, q string, snippets []string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestRelevanceTimeout(t *testing.T) {
	r := WithRelevanceTimeout(blockingRelevance{}, 10*time.Millisecond)
	_, err := r.Grade(context.Background(), "q", []string{"s"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Relevance(blockingRelevance{}), WithRelevanceTimeout(blockingRelevance{}, 0))
}
