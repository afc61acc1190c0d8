package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

type stubSource struct {
	name  string
	texts []string
	err   error
	calls int
	block bool
}

func (s *stubSource) Type() string { return s.name }

func (s *stubSource) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]schema.SearchResult, 0, len(s.texts))
	for _, t := range s.texts {
		out = append(out, schema.SearchResult{Document: schema.Document{Content: t}})
	}
	return out, nil
}

func TestCascadeFirstSuccessWins(t *testing.T) {
	a := &stubSource{name: "a", texts: []string{"from a"}}
	b := &stubSource{name: "b", texts: []string{"from b"}}
	res, err := NewCascade(0, a, b).Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"from a"}, schema.Texts(res))
	assert.Equal(t, "a", res[0].Document.Metadata[schema.MetaSource])
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 0, b.calls)
}

func TestCascadeAcceptsEmptyResult(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b", texts: []string{"from b"}}
	res, err := NewCascade(0, a, b).Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Equal(t, 0, b.calls)
}

func TestCascadeFallsThroughOnError(t *testing.T) {
	a := &stubSource{name: "a", err: errors.New("quota exceeded")}
	b := &stubSource{name: "b", texts: []string{"from b"}}
	res, err := NewCascade(0, a, b).Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"from b"}, schema.Texts(res))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestCascadeAllFailJoinsCauses(t *testing.T) {
	errA := errors.New("a down")
	errB := errors.New("b down")
	_, err := NewCascade(0, &stubSource{name: "a", err: errA}, &stubSource{name: "b", err: errB}).
		Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrRetrievalUnavailable)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestCascadePerSourceTimeoutMovesOn(t *testing.T) {
	slow := &stubSource{name: "slow", block: true}
	b := &stubSource{name: "b", texts: []string{"ok"}}
	res, err := NewCascade(10*time.Millisecond, slow, b).Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, schema.Texts(res))
}

func TestCascadeCancelledParentAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &stubSource{name: "a", err: errors.New("down")}
	b := &stubSource{name: "b", texts: []string{"never"}}
	cancel()
	_, err := NewCascade(0, a, b).Search(ctx, "q", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 0, b.calls)
}

func TestCascadeWithoutSources(t *testing.T) {
	_, err := NewCascade(0).Search(context.Background(), "q", 1)
	assert.ErrorIs(t, err, errs.ErrRetrievalUnavailable)
}
