package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLeaseTTL  = 2 * time.Minute
	defaultRetryWait = 50 * time.Millisecond
	maxRetryWait     = time.Second
	keyPrefix        = "levelcheck:lock:"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lease re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease-based lock shared by every process talking to the same
// Redis instance. The lease must outlive the longest critical section,
// which includes one scoring backend call.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// RedisOption configures a Redis locker.
type RedisOption func(*Redis)

// WithLeaseTTL sets how long a lock survives a crashed holder.
func WithLeaseTTL(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, log zerolog.Logger, opts ...RedisOption) *Redis {
	r := &Redis{rdb: rdb, ttl: defaultLeaseTTL, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect parses url, pings the server and returns a client.
func Connect(ctx context.Context, url string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()
	wait := defaultRetryWait

	for {
		ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		if wait *= 2; wait > maxRetryWait {
			wait = maxRetryWait
		}
	}

	return func() {
		// The caller's context may be done by now; release regardless.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := releaseScript.Run(rctx, r.rdb, []string{k}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}, nil
}
