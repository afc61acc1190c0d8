package vectordb

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

func TestBuildColumns(t *testing.T) {
	docs := []schema.Document{
		{ID: "a", Content: "alpha", Vector: []float32{1, 0}, CreatedAt: time.Unix(10, 0)},
		{ID: "b", Content: "beta", Vector: []float32{0, 1}, Metadata: map[string]interface{}{"file": "b.txt"}},
	}
	cols, err := buildColumns(docs, 2)
	require.NoError(t, err)
	require.Len(t, cols, 5)
	assert.Equal(t, fieldID, cols[0].Name())
	assert.Equal(t, 2, cols[0].Len())

	meta, ok := cols[2].(*entity.ColumnJSONBytes)
	require.True(t, ok)
	raw, err := meta.ValueByIdx(0)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestBuildColumnsRejectsWrongDimension(t *testing.T) {
	_, err := buildColumns([]schema.Document{{ID: "x", Vector: []float32{1}}}, 3)
	assert.Error(t, err)
}

func TestNormalizeScore(t *testing.T) {
	assert.InDelta(t, 0.8, normalizeScore(entity.IP, 0.8), 1e-6)
	assert.InDelta(t, 1.0, normalizeScore(entity.L2, 0), 1e-9)
	assert.Less(t, normalizeScore(entity.L2, 3), normalizeScore(entity.L2, 1))
}

func TestTruncateBytesKeepsRunes(t *testing.T) {
	s := "héllo"
	out := truncateBytes(s, 2)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "h", out)
	assert.Equal(t, s, truncateBytes(s, 100))
	assert.Equal(t, entity.L2, metricType("l2"))
	assert.Equal(t, entity.IP, metricType(""))
}

func TestFileExpr(t *testing.T) {
	assert.Equal(t, `metadata["file"] == "q3.txt"`, fileExpr("q3.txt"))
	assert.Equal(t, `metadata["file"] == "a\"b.txt"`, fileExpr(`a"b.txt`))
}
