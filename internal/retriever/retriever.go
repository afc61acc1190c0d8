package retriever

import (
	"context"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/metrics"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// Retriever defines a unified search interface across different backends.
type Retriever interface {
	Type() string
	Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error)
}

// CandidateList is a utility alias for readability.
type CandidateList []schema.SearchResult

// Texts runs r and returns the snippet sequence in rank order, never nil.
func Texts(ctx context.Context, r Retriever, query string, topK int) ([]string, error) {
	res, err := r.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	return schema.Texts(res), nil
}

type timed struct {
	inner   Retriever
	timeout time.Duration
}

// WithTimeout bounds every Search call of r and records retriever metrics.
// A timeout is reported as ErrRetrievalUnavailable wrapping context.DeadlineExceeded.
func WithTimeout(r Retriever, timeout time.Duration) Retriever {
	return &timed{inner: r, timeout: timeout}
}

func (t *timed) Type() string { return t.inner.Type() }

func (t *timed) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	start := time.Now()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	res, err := t.inner.Search(ctx, query, topK)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, t.inner.Type()+".search", err)
	}
	metrics.ObserveRetriever(t.inner.Type(), start, len(res))
	if res == nil {
		res = CandidateList{}
	}
	return res, nil
}
