// internal/repository/kv/codec.go
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"finflow-invest/internal/repository"
	"finflow-invest/internal/util"
	"finflow-invest/pkg/kvstore"
)

// Key prefixes for each entity family.
const (
	accountPrefix     = "accounts/"
	emailIndexPrefix  = "account-emails/" // lowercased email -> account id
	transactionPrefix = "transactions/"
	investmentPrefix  = "investments/"
	planPrefix        = "plans/"
	walletsKey        = "settings/wallets"
)

func getJSON[T any](ctx context.Context, q repository.Executor, key string) (*T, error) {
	raw, err := q.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", key, util.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &v, nil
}

func putJSON(ctx context.Context, q repository.Executor, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := q.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func listJSON[T any](ctx context.Context, q repository.Executor, prefix string) ([]T, error) {
	entries, err := q.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
