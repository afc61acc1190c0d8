package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/crag"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/retriever"
)

func testCorpus(t *testing.T) *corpus {
	dir := t.TempDir()
	body := "Revenue grew twelve percent in fiscal 2023.\n\nOperating margin fell to nine percent.\n\nThe board approved a buyback."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.md"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.pdf"), []byte("revenue"), 0o644))
	c, err := loadCorpus(dir)
	require.NoError(t, err)
	require.Len(t, c.passages, 3)
	return c
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	docs := testCorpus(t).retrieve("what was revenue growth in fiscal 2023", 2)
	require.NotEmpty(t, docs)
	assert.True(t, strings.HasPrefix(docs[0].Text, "Revenue grew"))
	assert.LessOrEqual(t, len(docs), 2)
}

func TestEvaluate(t *testing.T) {
	assert.Equal(t, "incorrect", evaluate(evalReq{Query: "revenue", Context: ""}).Verdict)
	assert.Equal(t, "correct", evaluate(evalReq{Query: "revenue growth", Context: "revenue growth was strong"}).Verdict)
	assert.Equal(t, "incorrect", evaluate(evalReq{Query: "dividend policy", Context: "weather report"}).Verdict)
}

func TestRouterServesClients(t *testing.T) {
	ts := httptest.NewServer(newRouter(testCorpus(t)))
	defer ts.Close()
	client := httpx.NewFromConfig(nil)

	r := &retriever.PathwayRetriever{Endpoint: ts.URL, TopK: 3, Client: client}
	res, err := r.Search(context.Background(), "operating margin", 0)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Contains(t, res[0].Document.Content, "margin")

	ev := &crag.HTTPEvaluator{Endpoint: ts.URL + "/eval", Client: client}
	_, v, err := ev.Evaluate(context.Background(), "board buyback", "The board approved a buyback.")
	require.NoError(t, err)
	assert.Equal(t, crag.VerdictCorrect, v)

	resp, err := http.Get(ts.URL + "/eval")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
