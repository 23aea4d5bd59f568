package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockPrefix = "voteexec:lock:"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// AcquireLock takes a named lease so concurrently running replicas (or
// a manual trigger racing the scheduled cycle) cannot interleave the
// same multi-step operation. Returns false when another holder owns it.
func AcquireLock(ctx context.Context, rdb *redis.Client, name string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, lockPrefix+name, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ReleaseLock drops a lease taken with AcquireLock.
func ReleaseLock(ctx context.Context, rdb *redis.Client, name string) error {
	return rdb.Del(ctx, lockPrefix+name).Err()
}
