package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"formrank-service/internal/app"
	"formrank-service/internal/domain"
)

// FormCache keeps public form snapshots (form plus ordered questions) in
// Redis with a jittered TTL and falls back to the loader on a miss. Only
// this read-mostly content is cached; ranking and participant totals always
// come straight from the store.
type FormCache struct {
	client *redis.Client
	loader app.SnapshotSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewFormCache(client *redis.Client, loader app.SnapshotSource, ttl time.Duration) *FormCache {
	return &FormCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *FormCache) FormSnapshot(ctx context.Context, formID int64) (domain.FormSnapshot, error) {
	key := c.key(formID)

	if snapshot, ok := c.get(ctx, key); ok {
		return snapshot, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key meanwhile.
		if snapshot, ok := c.get(ctx, key); ok {
			return snapshot, nil
		}

		snapshot, err := c.loader.FormSnapshot(ctx, formID)
		if err != nil {
			return domain.FormSnapshot{}, err
		}

		if raw, err := json.Marshal(snapshot); err == nil {
			// Best-effort fill; a failed SET only costs the next reader a reload.
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return snapshot, nil
	})
	if err != nil {
		return domain.FormSnapshot{}, err
	}
	return result.(domain.FormSnapshot), nil
}

// Invalidate drops the cached snapshot after an admin edit.
func (c *FormCache) Invalidate(ctx context.Context, formID int64) error {
	if err := c.client.Del(ctx, c.key(formID)).Err(); err != nil {
		return fmt.Errorf("invalidate form snapshot: %w", err)
	}
	return nil
}

func (c *FormCache) get(ctx context.Context, key string) (domain.FormSnapshot, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.FormSnapshot{}, false
	}
	var snapshot domain.FormSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return domain.FormSnapshot{}, false
	}
	return snapshot, true
}

func (c *FormCache) key(formID int64) string {
	return "form:" + strconv.FormatInt(formID, 10) + ":snapshot"
}

func (c *FormCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
