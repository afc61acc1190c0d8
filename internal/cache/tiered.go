package cache

import (
	"context"
	"time"
)

type tiered struct {
	l1 Cache
	l2 Cache
}

// NewTiered reads through l1 then l2, promoting l2 hits into l1.
// A nil l2 returns l1 unchanged.
func NewTiered(l1, l2 Cache) Cache {
	if l2 == nil {
		return l1
	}
	return &tiered{l1: l1, l2: l2}
}

func (t *tiered) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := t.l1.Get(ctx, key); ok {
		return v, true
	}
	v, ok := t.l2.Get(ctx, key)
	if ok {
		t.l1.Set(ctx, key, v, 0)
	}
	return v, ok
}

func (t *tiered) Set(ctx context.Context, key, value string, ttl time.Duration) {
	t.l1.Set(ctx, key, value, ttl)
	t.l2.Set(ctx, key, value, ttl)
}

func (t *tiered) Purge(ctx context.Context) {
	t.l1.Purge(ctx)
	t.l2.Purge(ctx)
}
