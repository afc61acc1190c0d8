package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextsKeepsRankOrderAndSkipsEmpty(t *testing.T) {
	in := []SearchResult{
		{Document: Document{Content: "first"}, Score: 0.9},
		{Document: Document{Content: ""}, Score: 0.8},
		{Document: Document{Content: "second"}, Score: 0.1},
	}
	assert.Equal(t, []string{"first", "second"}, Texts(in))
}

func TestTextsNeverNil(t *testing.T) {
	out := Texts(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
