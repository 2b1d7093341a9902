package kvstore

import (
	"context"
	"sync"

	"finflow-invest/pkg/db"
)

// stagedTx buffers writes in memory and hands them to apply on Commit.
// Backends without native transactions build their units of work on it.
type stagedTx struct {
	mu     sync.Mutex
	ctx    context.Context
	base   Executor
	apply  func(ctx context.Context, muts []mutation) error
	writes map[string]mutation
	order  []string
	done   bool
}

func newStagedTx(ctx context.Context, base Executor, apply func(context.Context, []mutation) error) *stagedTx {
	return &stagedTx{
		ctx:    ctx,
		base:   base,
		apply:  apply,
		writes: make(map[string]mutation),
	}
}

func (t *stagedTx) Get(ctx context.Context, key string) ([]byte, error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil, db.ErrTxDone
	}
	m, ok := t.writes[key]
	t.mu.Unlock()
	if ok {
		if m.deleted {
			return nil, ErrNotFound
		}
		return clone(m.value), nil
	}
	return t.base.Get(ctx, key)
}

func (t *stagedTx) List(ctx context.Context, prefix string) ([]Entry, error) {
	base, err := t.base.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil, db.ErrTxDone
	}

	merged := make(map[string][]byte, len(base))
	for _, e := range base {
		merged[e.Key] = e.Value
	}
	for key, m := range t.writes {
		if !hasPrefix(key, prefix) {
			continue
		}
		if m.deleted {
			delete(merged, key)
			continue
		}
		merged[key] = clone(m.value)
	}

	out := make([]Entry, 0, len(merged))
	for k, v := range merged {
		out = append(out, Entry{Key: k, Value: v})
	}
	sortEntries(out)
	return out, nil
}

func (t *stagedTx) Put(_ context.Context, key string, value []byte) error {
	return t.stage(mutation{key: key, value: clone(value)})
}

func (t *stagedTx) Delete(_ context.Context, key string) error {
	return t.stage(mutation{key: key, deleted: true})
}

func (t *stagedTx) stage(m mutation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return db.ErrTxDone
	}
	if _, seen := t.writes[m.key]; !seen {
		t.order = append(t.order, m.key)
	}
	t.writes[m.key] = m
	return nil
}

func (t *stagedTx) Commit() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return db.ErrTxDone
	}
	t.done = true
	muts := make([]mutation, 0, len(t.order))
	for _, key := range t.order {
		muts = append(muts, t.writes[key])
	}
	t.mu.Unlock()

	if len(muts) == 0 {
		return nil
	}
	return t.apply(t.ctx, muts)
}

func (t *stagedTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return db.ErrTxDone
	}
	t.done = true
	t.writes = nil
	t.order = nil
	return nil
}
