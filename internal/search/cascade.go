package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/metrics"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/retriever"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

const (
	outcomeHit   = "hit"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

// Cascade tries external sources in a fixed preference order. Each source is
// tried once per query; the first one that answers without error wins, even
// with zero results.
type Cascade struct {
	sources []retriever.Retriever
	timeout time.Duration
}

// NewCascade keeps the given order. timeout bounds each source attempt.
func NewCascade(timeout time.Duration, sources ...retriever.Retriever) *Cascade {
	return &Cascade{sources: sources, timeout: timeout}
}

func (c *Cascade) Type() string { return "cascade" }

// Sources lists source names in cascade order.
func (c *Cascade) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Type()
	}
	return names
}

func (c *Cascade) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if len(c.sources) == 0 {
		return nil, errs.New(errs.ErrRetrievalUnavailable, "cascade.search", "no external sources configured")
	}
	var failures []error
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "cascade.search", err)
		}
		res, err := c.try(ctx, src, query, topK)
		if err != nil {
			// a cancelled run must not fall through to the next source
			if ctx.Err() != nil {
				return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "cascade.search", ctx.Err())
			}
			metrics.IncCascade(src.Type(), outcomeError)
			logger.Warnf("cascade: source %s failed, trying next: %v", src.Type(), err)
			failures = append(failures, fmt.Errorf("%s: %w", src.Type(), err))
			continue
		}
		outcome := outcomeHit
		if len(res) == 0 {
			outcome = outcomeEmpty
		}
		metrics.IncCascade(src.Type(), outcome)
		logger.Debugf("cascade: source %s answered with %d results", src.Type(), len(res))
		for i := range res {
			if res[i].Document.Metadata == nil {
				res[i].Document.Metadata = map[string]interface{}{}
			}
			if _, ok := res[i].Document.Metadata[schema.MetaSource]; !ok {
				res[i].Document.Metadata[schema.MetaSource] = src.Type()
			}
		}
		if res == nil {
			res = []schema.SearchResult{}
		}
		return res, nil
	}
	return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "cascade.search", errors.Join(failures...))
}

func (c *Cascade) try(ctx context.Context, src retriever.Retriever, query string, topK int) ([]schema.SearchResult, error) {
	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := src.Search(ctx, query, topK)
	if err == nil {
		metrics.ObserveRetriever(src.Type(), start, len(res))
	}
	return res, err
}
