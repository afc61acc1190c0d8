package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeLLM) GetProviderType() string { return "fake" }

type fakeStructured struct {
	fakeLLM
	json    string
	schemas []map[string]any
}

func (f *fakeStructured) GenerateJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.json, f.err
}

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		first   string
		second  string
		wantErr bool
	}{
		{"plain", "Subtask 1: revenue in 2023\nSubtask 2: margin trend", "revenue in 2023", "margin trend", false},
		{"brackets", "Subtask 1: [revenue]\nSubtask 2: []", "revenue", "", false},
		{"bold", "**Subtask 1:** revenue\n**Subtask 2:** costs", "revenue", "costs", false},
		{"preamble", "Sure, here you go.\nSubtask 1: a\nSubtask 2: b", "a", "b", false},
		{"missing second", "Subtask 1: only one", "", "", true},
		{"missing both", "I cannot split this.", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseMarkers(tt.in, marker1, marker2)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrDecompositionFormat)
				return
			}
			require.NoError(t, err)
			st, err = clean(st)
			require.NoError(t, err)
			assert.Equal(t, tt.first, st.First)
			assert.Equal(t, tt.second, st.Second)
		})
	}
}

func TestDecomposeDropsRepeatedSubtask(t *testing.T) {
	f := &fakeLLM{reply: "Subtask 1: What is Tesla's revenue?\nSubtask 2: what is tesla's revenue"}
	d := &Decomposer{LLM: f}
	st, err := d.Decompose(context.Background(), "What is Tesla's revenue?", nil)
	require.NoError(t, err)
	assert.Equal(t, "What is Tesla's revenue?", st.First)
	assert.False(t, st.Split())
}

func TestDecomposeEmptyFirstSubtask(t *testing.T) {
	f := &fakeLLM{reply: "Subtask 1: []\nSubtask 2: something"}
	d := &Decomposer{LLM: f}
	_, err := d.Decompose(context.Background(), "q", nil)
	assert.ErrorIs(t, err, errs.ErrDecompositionFormat)
}

func TestDecomposePromptVariants(t *testing.T) {
	f := &fakeLLM{reply: "Subtask 1: a\nSubtask 2: b"}
	d := &Decomposer{LLM: f}
	_, err := d.Decompose(context.Background(), "q", nil)
	require.NoError(t, err)
	_, err = d.Decompose(context.Background(), "q", []string{"annual report snippet"})
	require.NoError(t, err)
	require.Len(t, f.prompts, 2)
	assert.NotContains(t, f.prompts[0], "Context:")
	assert.Contains(t, f.prompts[1], "annual report snippet")
	assert.Contains(t, f.prompts[1], "Subtask 2:")
}

func TestDecomposeStructured(t *testing.T) {
	f := &fakeStructured{json: `{"subtask_1":"revenue","subtask_2":"margins"}`}
	d := &Decomposer{LLM: f, Structured: true}
	st, err := d.Decompose(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, Subtasks{First: "revenue", Second: "margins"}, st)
	require.Len(t, f.schemas, 1)
	assert.Contains(t, f.schemas[0]["required"], "subtask_1")
}

func TestDecomposeStructuredFallsBackToMarkers(t *testing.T) {
	f := &fakeStructured{json: "Subtask 1: revenue\nSubtask 2: margins"}
	d := &Decomposer{LLM: f, Structured: true}
	st, err := d.Decompose(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "margins", st.Second)
}

func TestDecomposeStructuredDisabledUsesMarkers(t *testing.T) {
	f := &fakeStructured{fakeLLM: fakeLLM{reply: "Subtask 1: a\nSubtask 2: b"}}
	d := &Decomposer{LLM: f}
	_, err := d.Decompose(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, f.schemas)
}

func TestDecomposeFurther(t *testing.T) {
	f := &fakeLLM{reply: "Subtask 3: debt levels\nSubtask 4: dividend policy"}
	d := &Decomposer{LLM: f}
	st, err := d.DecomposeFurther(context.Background(), "q", Subtasks{First: "revenue", Second: "margins"}, []string{"ctx"})
	require.NoError(t, err)
	assert.Equal(t, Subtasks{First: "debt levels", Second: "dividend policy"}, st)
	assert.Contains(t, f.prompts[0], "Subtask 1: revenue")
	assert.Contains(t, f.prompts[0], "Subtask 2: margins")
}

func TestDecomposeLLMError(t *testing.T) {
	d := &Decomposer{LLM: &fakeLLM{err: errors.New("boom")}}
	_, err := d.Decompose(context.Background(), "q", nil)
	assert.ErrorIs(t, err, errs.ErrGenerationUnavailable)
}

func TestAnalystPrompt(t *testing.T) {
	f := &fakeLLM{reply: "analysis"}
	a := &Analyst{LLM: f}
	out, err := a.Analyze(context.Background(), "revenue", []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, "analysis", out)
	assert.Contains(t, f.prompts[0], "Query: revenue")
	assert.Contains(t, f.prompts[0], "s1\n\ns2")
}

func TestSynthesizeFinalOmitsEmptyFourth(t *testing.T) {
	f := &fakeLLM{reply: "final"}
	s := &Synthesizer{LLM: f}
	_, err := s.SynthesizeFinal(context.Background(), "q", nil, "round one", "r3", "")
	require.NoError(t, err)
	_, err = s.SynthesizeFinal(context.Background(), "q", nil, "round one", "r3", "r4")
	require.NoError(t, err)
	assert.NotContains(t, f.prompts[0], "Analyst 4 Response")
	assert.Contains(t, f.prompts[1], "Analyst 4 Response: r4")
	assert.Contains(t, f.prompts[1], "Analyst 1_2 Combined Response: round one")
}

func TestSynthesize(t *testing.T) {
	f := &fakeLLM{reply: "merged"}
	s := &Synthesizer{LLM: f}
	out, err := s.Synthesize(context.Background(), "q", []string{"c"}, "r1", "r2")
	require.NoError(t, err)
	assert.Equal(t, "merged", out)
	assert.True(t, strings.Contains(f.prompts[0], "Analyst 1 Response: r1") && strings.Contains(f.prompts[0], "Analyst 2 Response: r2"))
}

func TestFollowUpIsComplete(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"Yes", false},
		{"yes.", false},
		{"No", true},
		{"maybe", true},
	}
	for _, tt := range tests {
		f := &FollowUp{LLM: &fakeLLM{reply: tt.reply}}
		got, err := f.IsComplete(context.Background(), "q", nil, "answer")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.reply)
	}
}

func TestFollowUpError(t *testing.T) {
	f := &FollowUp{LLM: &fakeLLM{err: errors.New("down")}}
	_, err := f.IsComplete(context.Background(), "q", nil, "a")
	assert.ErrorIs(t, err, errs.ErrGenerationUnavailable)
}
