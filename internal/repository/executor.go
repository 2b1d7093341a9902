// internal/repository/executor.go
package repository

import (
	"context"

	"finflow-invest/pkg/kvstore"
)

// Executor defines the store operations needed by repositories.
// Both a kvstore.Store and a unit of work started from it implement these
// methods, so repositories run unchanged inside or outside a transaction.
type Executor interface {
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]kvstore.Entry, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
