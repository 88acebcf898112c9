package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

var jsonNull = []byte("null")

// GetOrLoadJSON 把 load 的结果按 JSON 缓存；nil 结果也会缓存，避免反复穿透
func GetOrLoadJSON[T any](c Loader, ctx context.Context, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	raw, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return out, nil
}
