package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokenizer(t *testing.T) {
	tok := EstimateTokenizer{}
	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, 1, tok.Count("abc"))
	assert.Equal(t, 2, tok.Count("abcdefgh"))

	parts := tok.Split(strings.Repeat("a", 10), 1)
	assert.Equal(t, []string{"aaaa", "aaaa", "aa"}, parts)
	assert.Equal(t, []string{"x"}, tok.Split("x", 0))
}

func TestBudgetFitKeepsRankOrder(t *testing.T) {
	b := NewBudget(EstimateTokenizer{}, 3)
	in := []string{"aaaa", "bbbb", "cccccccc", "dddd"}
	// 1 + 1 tokens fit, the third is cut to the remaining token
	assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, b.Fit(in))
}

func TestBudgetDisabled(t *testing.T) {
	in := []string{"a", "b"}
	assert.Equal(t, in, NewBudget(nil, 0).Fit(in))
	var nilBudget *Budget
	assert.Equal(t, in, nilBudget.Fit(in))
}
