package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	liveKey = "freshwax:live:current"
	liveTTL = 30 * time.Second
)

// LiveCache remembers which slot is on air so the "who is live" read does not
// hit Postgres on every poll. It is never consulted for the AlreadyLive decision.
type LiveCache interface {
	// Get reports hit=false on a miss. A hit with a nil slot means nobody is live.
	Get(ctx context.Context) (slot *model.Slot, hit bool, err error)
	Set(ctx context.Context, slot *model.Slot) error
	Invalidate(ctx context.Context) error
}

type liveCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLiveCache(client *redis.Client) LiveCache {
	return &liveCache{
		client: client,
		ttl:    liveTTL,
	}
}

func (c *liveCache) Get(ctx context.Context) (*model.Slot, bool, error) {
	data, err := c.client.Get(ctx, liveKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var slot *model.Slot
	if err := json.Unmarshal(data, &slot); err != nil {
		return nil, false, err
	}
	return slot, true, nil
}

// Set stores slot, or the absence of one when slot is nil.
func (c *liveCache) Set(ctx context.Context, slot *model.Slot) error {
	data, err := json.Marshal(slot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, liveKey, data, c.ttl).Err()
}

func (c *liveCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, liveKey).Err()
}

// Nop is used when no Redis address is configured. Every read is a miss.
type Nop struct{}

func (Nop) Get(context.Context) (*model.Slot, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, *model.Slot) error         { return nil }
func (Nop) Invalidate(context.Context) error               { return nil }

// NewClient opens a Redis client and pings it.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
