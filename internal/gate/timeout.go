package gate

import (
	"context"
	"time"
)

type timedCompliance struct {
	inner Compliance
	d     time.Duration
}

// WithComplianceTimeout bounds every compliance call; d <= 0 returns c.
func WithComplianceTimeout(c Compliance, d time.Duration) Compliance {
	if d <= 0 {
		return c
	}
	return &timedCompliance{inner: c, d: d}
}

func (t *timedCompliance) Check(ctx context.Context, q string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Check(ctx, q)
}

type timedRelevance struct {
	inner Relevance
	d     time.Duration
}

// WithRelevanceTimeout bounds every grade; d <= 0 returns r.
func WithRelevanceTimeout(r Relevance, d time.Duration) Relevance {
	if d <= 0 {
		return r
	}
	return &timedRelevance{inner: r, d: d}
}

func (t *timedRelevance) Grade(ctx context.Context, q string, snippets []string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Grade(ctx, q, snippets)
}
