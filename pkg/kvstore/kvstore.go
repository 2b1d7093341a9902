// Package kvstore provides the key-value store the ledger core persists into.
// Each backend exposes single-key operations plus units of work whose writes
// become visible all at once on Commit.
package kvstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"finflow-invest/pkg/db"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

// Entry is a key with its stored value.
type Entry struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

// Executor is the set of operations available both on a store and inside a
// unit of work.
type Executor interface {
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Entry, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Tx is a unit of work. Reads observe the unit's own pending writes.
type Tx interface {
	Executor
	db.TxController
}

// Store is a key-value backend.
type Store interface {
	Executor
	db.TxBeginner
	Close() error
}

// mutation is a pending write; a nil value with deleted set removes the key.
type mutation struct {
	key     string
	value   []byte
	deleted bool
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}

func hasPrefix(key, prefix string) bool {
	return prefix == "" || strings.HasPrefix(key, prefix)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
