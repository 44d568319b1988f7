package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"FootballNews/internal/domain"
	"FootballNews/internal/ports"
)

const (
	redisPrefix       = "footballnews:"
	redisPostedKey    = redisPrefix + "posted"
	defaultRetention  = 7 * 24 * time.Hour
	redisPingDeadline = 3 * time.Second
)

// RedisRepository keeps the posted-news log in Redis: one key per title with
// a TTL plus a sorted set scored by posting time.
type RedisRepository struct {
	rdb       *redis.Client
	retention time.Duration
}

var _ ports.PostedLog = (*RedisRepository)(nil)

// NewRedisRepository connects to addr. Entries expire after retention.
func NewRedisRepository(addr string, db int, retention time.Duration) (*RedisRepository, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingDeadline)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRepository{rdb: rdb, retention: retention}, nil
}

func titleRedisKey(key string) string {
	return redisPrefix + "title:" + key
}

// Seen reports whether a title with the same normalized key was posted.
func (r *RedisRepository) Seen(ctx context.Context, title string) (bool, error) {
	key := domain.TitleKey(title)
	if key == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, titleRedisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Recent returns entries posted at or after since, newest first.
func (r *RedisRepository) Recent(ctx context.Context, since time.Time) ([]domain.PostedEntry, error) {
	members, err := r.rdb.ZRevRangeByScore(ctx, redisPostedKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis recent: %w", err)
	}

	out := make([]domain.PostedEntry, 0, len(members))
	for _, m := range members {
		var entry domain.PostedEntry
		if err := json.Unmarshal([]byte(m), &entry); err != nil {
			return nil, fmt.Errorf("decode posted entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Append records the entry and trims entries older than the retention.
func (r *RedisRepository) Append(ctx context.Context, entry domain.PostedEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("append posted entry: empty id")
	}
	if entry.TitleKey == "" {
		entry.TitleKey = domain.TitleKey(entry.Title)
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode posted entry: %w", err)
	}

	cutoff := entry.PostedAt.Add(-r.retention).UnixMilli()
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, titleRedisKey(entry.TitleKey), entry.ID, r.retention)
		pipe.ZAdd(ctx, redisPostedKey, redis.Z{Score: float64(entry.PostedAt.UnixMilli()), Member: string(payload)})
		pipe.ZRemRangeByScore(ctx, redisPostedKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *RedisRepository) Close() error {
	return r.rdb.Close()
}
