package crag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

// MockLLMProvider is a mock implementation of llm.Provider for testing
type MockLLMProvider struct {
	response string
	err      error
	prompts  []string
}

func (m *MockLLMProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *MockLLMProvider) GetProviderType() string {
	return "mock"
}

func TestLLMEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name            string
		llmResponse     string
		correctTh       float64
		incorrectTh     float64
		expectedScore   float64
		expectedVerdict Verdict
	}{
		{"high relevance score", "0.9", 0.7, 0.3, 0.9, VerdictCorrect},
		{"low relevance score", "0.2", 0.7, 0.3, 0.2, VerdictIncorrect},
		{"medium relevance score", "0.5", 0.7, 0.3, 0.5, VerdictAmbiguous},
		{"score with text prefix", "The relevance score is 0.85", 0.7, 0.3, 0.85, VerdictCorrect},
		{"unparseable score", "invalid", 0.7, 0.3, 0.5, VerdictAmbiguous},
		{"out of range score", "7", 0.7, 0.3, 0.5, VerdictAmbiguous},
		{"default thresholds", "0.8", 0, 0, 0.8, VerdictCorrect},
		{"custom thresholds", "0.6", 0.5, 0.2, 0.6, VerdictCorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := &LLMEvaluator{
				Provider:    &MockLLMProvider{response: tt.llmResponse},
				CorrectTh:   tt.correctTh,
				IncorrectTh: tt.incorrectTh,
			}
			score, verdict, err := evaluator.Evaluate(context.Background(), "test query", "test context")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedScore, score)
			assert.Equal(t, tt.expectedVerdict, verdict)
		})
	}
}

func TestLLMEvaluator_ProviderFailure(t *testing.T) {
	evaluator := &LLMEvaluator{Provider: &MockLLMProvider{err: errors.New("rate limited")}}
	_, verdict, err := evaluator.Evaluate(context.Background(), "q", "c")
	assert.ErrorIs(t, err, errs.ErrClassifierUnavailable)
	assert.Equal(t, VerdictAmbiguous, verdict)
}

func TestBinaryGrader(t *testing.T) {
	tests := []struct {
		response string
		verdict  Verdict
	}{
		{"yes", VerdictCorrect},
		{"Yes.", VerdictCorrect},
		{"  NO ", VerdictIncorrect},
		{"'no'", VerdictIncorrect},
		{"no, the document is about something else", VerdictIncorrect},
		{"maybe", VerdictAmbiguous},
		{"nothing relevant", VerdictAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			mock := &MockLLMProvider{response: tt.response}
			_, verdict, err := (&BinaryGrader{Provider: mock}).Evaluate(context.Background(), "What is Pathway?", "Pathway is a framework")
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, verdict)
			require.Len(t, mock.prompts, 1)
			assert.True(t, strings.Contains(mock.prompts[0], "User Question : What is Pathway?"))
			assert.True(t, strings.Contains(mock.prompts[0], "Document : Pathway is a framework"))
		})
	}
}

func TestBinaryGraderFailure(t *testing.T) {
	_, _, err := (&BinaryGrader{Provider: &MockLLMProvider{err: errors.New("down")}}).Evaluate(context.Background(), "q", "c")
	assert.ErrorIs(t, err, errs.ErrClassifierUnavailable)
}

func TestParseVerdict(t *testing.T) {
	assert.Equal(t, VerdictCorrect, ParseVerdict("Correct"))
	assert.Equal(t, VerdictIncorrect, ParseVerdict("incorrect"))
	assert.Equal(t, VerdictAmbiguous, ParseVerdict("unsure"))
	assert.Equal(t, "ambiguous", VerdictAmbiguous.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}
