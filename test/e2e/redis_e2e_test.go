//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// TestRedisCheckpointE2E verifies the real Redis adapter path commits a
// module's stats hash once nocsim has run with -checkpoint_adapter=redis.
// Requires a Redis at 127.0.0.1:6379.
func TestRedisCheckpointE2E(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping: Redis not reachable on 127.0.0.1:6379: %v", err)
	}

	statsKey := "nocsim:stats:gen"
	_ = rc.Del(context.Background(), statsKey).Err()

	topoPath := writeTopology(t, sampleTopology)
	rs := buildAndStartServer(t, topoPath,
		"-checkpoint_adapter=redis",
		"-redis_addr=127.0.0.1:6379",
		"-checkpoint_interval=20ms",
	)
	_ = rs

	time.Sleep(500 * time.Millisecond)

	reqCountStr, err := rc.HGet(context.Background(), statsKey, "req_count").Result()
	if err != nil {
		t.Fatalf("redis HGET req_count failed: %v", err)
	}
	if reqCountStr == "" || reqCountStr == "0" {
		t.Fatalf("expected a non-zero committed req_count, got %q", reqCountStr)
	}
}
