// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package persistence

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RedisEvaler abstracts the minimal surface RedisSink needs from a Redis
// client: Lua script evaluation.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// LoggingRedisEvaler logs the EVAL call instead of reaching a real server,
// letting the "redis" adapter be selected without infrastructure.
type LoggingRedisEvaler struct{}

func (LoggingRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	fmt.Printf("[redis-demo] EVAL script(len=%d) KEYS=%v ARGS=%v\n", len(script), keys, args)
	return int64(1), nil
}

// GoRedisEvaler wraps a real github.com/redis/go-redis/v9 client.
type GoRedisEvaler struct{ c *redis.Client }

// NewGoRedisEvaler dials addr (e.g. "127.0.0.1:6379") lazily: redis.NewClient
// does not connect until the first command.
func NewGoRedisEvaler(addr string) *GoRedisEvaler {
	return &GoRedisEvaler{c: redis.NewClient(&redis.Options{Addr: addr})}
}

func (g *GoRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.c.Eval(ctx, script, keys, args...).Result()
}

// checkpointLuaScript applies a checkpoint idempotently:
//  1. SETNX a marker keyed by the checkpoint id
//  2. if newly set, HSET the module's stats hash to the snapshot values
//  3. EXPIRE the marker so retried-but-abandoned checkpoints don't leak keys
//
// Returns 1 if applied, 0 if the checkpoint id had already been committed.
const checkpointLuaScript = `
local statsKey = KEYS[1]
local markerKey = KEYS[2]
local req = tonumber(ARGV[1])
local resp = tonumber(ARGV[2])
local bytes = tonumber(ARGV[3])
local delay = tonumber(ARGV[4])
local ttlSeconds = tonumber(ARGV[5])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('HSET', statsKey, 'req_count', req, 'resp_count', resp, 'byte_count', bytes, 'total_delay', delay)
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

const markerTTLSeconds = 24 * 60 * 60

// RedisSink commits checkpoints via checkpointLuaScript, one EVAL per
// checkpoint (callers batching many checkpoints per cycle may wrap this in
// their own pipelining if their client supports it).
type RedisSink struct {
	client RedisEvaler
}

// NewRedisSink returns a RedisSink driving client.
func NewRedisSink(client RedisEvaler) *RedisSink {
	return &RedisSink{client: client}
}

func statsKey(module string) string { return fmt.Sprintf("nocsim:stats:%s", module) }
func markerKey(id string) string    { return fmt.Sprintf("nocsim:checkpoint:%s", id) }

func (r *RedisSink) CommitCheckpoints(ctx context.Context, checkpoints []Checkpoint) error {
	for _, cp := range checkpoints {
		if cp.CheckpointID == "" {
			return errEmptyCheckpointID
		}
		keys := []string{statsKey(cp.Module), markerKey(cp.CheckpointID)}
		args := []interface{}{cp.ReqCount, cp.RespCount, cp.ByteCount, cp.TotalDelay, markerTTLSeconds}
		if _, err := r.client.Eval(ctx, checkpointLuaScript, keys, args...); err != nil {
			return fmt.Errorf("persistence: redis eval module=%s checkpoint=%s: %w", cp.Module, cp.CheckpointID, err)
		}
	}
	return nil
}
