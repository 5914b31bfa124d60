// Package cache stores computed settlements per group so repeated reads do
// not reload and recompute a group's whole history.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
)

var (
	// ErrMiss is returned by Get when nothing is cached for the group.
	ErrMiss = errors.New("cache miss")
	// ErrStale is returned by Set when the group was invalidated after the
	// version passed to Set was read. Nothing is stored.
	ErrStale = errors.New("settlement is stale")
)

const (
	keyPrefix     = "settleup:settlement:"
	versionPrefix = "settleup:settlement-version:"
)

// SettlementCache holds the last computed transfers for each group.
// Writers must call Invalidate whenever a group's expenses or recorded
// settlements change.
//
// Every Invalidate bumps the group's version. A reader calls Version before
// loading the group's records and hands that version to Set, so a result
// computed from records that a concurrent write has since replaced is never
// stored.
type SettlementCache interface {
	Get(ctx context.Context, groupID string) ([]calculator.Transfer, error)
	Version(ctx context.Context, groupID string) (int64, error)
	Set(ctx context.Context, groupID string, version int64, transfers []calculator.Transfer) error
	Invalidate(ctx context.Context, groupID string) error
}

// RedisCache is a SettlementCache backed by Redis. Entries expire after ttl
// even if never invalidated.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Dial parses a redis:// URL, connects, and pings the server.
func Dial(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

// cachedTransfer is the stored form of a transfer. Amounts keep their exact
// decimal text.
type cachedTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func key(groupID string) string {
	return keyPrefix + groupID
}

func versionKey(groupID string) string {
	return versionPrefix + groupID
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readVersion treats an absent counter as version 0.
func readVersion(ctx context.Context, cmd getter, groupID string) (int64, error) {
	v, err := cmd.Get(ctx, versionKey(groupID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read settlement version: %w", err)
	}
	return v, nil
}

func (c *RedisCache) Get(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	raw, err := c.client.Get(ctx, key(groupID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached settlement: %w", err)
	}

	var stored []cachedTransfer
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cached settlement: %w", err)
	}
	transfers := make([]calculator.Transfer, len(stored))
	for i, s := range stored {
		amount, err := decimal.NewFromString(s.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cached amount: %w", err)
		}
		transfers[i] = calculator.Transfer{
			From:   calculator.MemberID(s.From),
			To:     calculator.MemberID(s.To),
			Amount: amount,
		}
	}
	return transfers, nil
}

func (c *RedisCache) Version(ctx context.Context, groupID string) (int64, error) {
	return readVersion(ctx, c.client, groupID)
}

// Set stores transfers only while the group's version still equals version.
// The version key is watched, so an Invalidate racing with Set makes it
// return ErrStale.
func (c *RedisCache) Set(ctx context.Context, groupID string, version int64, transfers []calculator.Transfer) error {
	stored := make([]cachedTransfer, len(transfers))
	for i, t := range transfers {
		stored[i] = cachedTransfer{From: string(t.From), To: string(t.To), Amount: t.Amount.String()}
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode settlement: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if current != version {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(groupID), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey(groupID))
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return ErrStale
	case errors.Is(err, ErrStale):
		return err
	case err != nil:
		return fmt.Errorf("failed to cache settlement: %w", err)
	}
	return nil
}

// Invalidate bumps the group's version and drops its entry in one
// transaction.
func (c *RedisCache) Invalidate(ctx context.Context, groupID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(groupID))
		pipe.Del(ctx, key(groupID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate settlement: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop caches nothing. Every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]calculator.Transfer, error) { return nil, ErrMiss }

func (Noop) Version(context.Context, string) (int64, error) { return 0, nil }

func (Noop) Set(context.Context, string, int64, []calculator.Transfer) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
