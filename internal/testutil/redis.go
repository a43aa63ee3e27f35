//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test redis, or "" when unset.
func RedisAddr() string {
	return os.Getenv(EnvRedisAddr)
}

// SkipIfNoRedis skips the test if the test redis is not reachable.
func SkipIfNoRedis(t *testing.T) string {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skipf("test redis not available: set %s", EnvRedisAddr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test redis not reachable at %s: %v", addr, err)
	}
	return addr
}

// RedisClient returns a client for db, closed on cleanup.
func RedisClient(t *testing.T, addr string, db int) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	t.Cleanup(func() { client.Close() })
	return client
}

// SeedRedis flushes db and loads tables into it. Each entry becomes a hash
// at "TABLE|key"; an entry without fields gets the NULL placeholder SONiC
// uses.
func SeedRedis(t *testing.T, addr string, db int, tables map[string]map[string]map[string]string) {
	t.Helper()

	client := RedisClient(t, addr, db)
	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flushing DB %d: %v", db, err)
	}

	for table, entries := range tables {
		for key, fields := range entries {
			redisKey := table + "|" + key
			args := []interface{}{"NULL", "NULL"}
			if len(fields) > 0 {
				args = make([]interface{}, 0, len(fields)*2)
				for k, v := range fields {
					args = append(args, k, v)
				}
			}
			if err := client.HSet(ctx, redisKey, args...).Err(); err != nil {
				t.Fatalf("seeding %s: %v", redisKey, err)
			}
		}
	}
}
