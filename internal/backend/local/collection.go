package local

import (
	"context"
	"encoding/json"
	"fmt"
)

// loadList decodes the JSON list stored under key. A missing key is an
// empty list.
func loadList[T any](ctx context.Context, kv *KV, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return list, nil
}

// storeList rewrites the whole list under key. Together with loadList this
// is a read-modify-write cycle that is not atomic across processes: a second
// writer between the two calls loses its update.
func storeList[T any](ctx context.Context, kv *KV, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}
