package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// usedSuffix 记录已用字节数的计数键后缀
const usedSuffix = "__used__"

// RedisKV 基于 Redis 的键值存储
// 容量限制有两层：Redis 自身 maxmemory 触发的 OOM 错误，以及可选的字节预算
type RedisKV struct {
	client   redis.UniversalClient
	prefix   string
	capacity int64
}

// NewRedisKV 创建 Redis 存储，capacity 为 0 时只依赖 maxmemory
func NewRedisKV(client redis.UniversalClient, prefix string, capacity int64) *RedisKV {
	return &RedisKV{client: client, prefix: prefix, capacity: capacity}
}

func (r *RedisKV) redisKey(key string) string {
	return r.prefix + key
}

func (r *RedisKV) usedKey() string {
	return r.prefix + usedSuffix
}

// Get 读取
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// setScript 原子地计算增量、检查预算、写入并更新计数
// KEYS[1] 数据键，KEYS[2] 计数键；ARGV[1] 值，ARGV[2] 业务键长度，ARGV[3] 容量
// 返回 1 表示已写入，0 表示超出预算
var setScript = redis.NewScript(`
local delta = string.len(ARGV[1]) - redis.call('STRLEN', KEYS[1])
if redis.call('EXISTS', KEYS[1]) == 0 then
	delta = delta + tonumber(ARGV[2])
end
local capacity = tonumber(ARGV[3])
if capacity > 0 and delta > 0 then
	local used = tonumber(redis.call('GET', KEYS[2]) or '0')
	if used + delta > capacity then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('INCRBY', KEYS[2], delta)
return 1
`)

// removeScript 删除并扣减计数，键不存在时不修改计数
var removeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local size = redis.call('STRLEN', KEYS[1]) + tonumber(ARGV[1])
redis.call('DEL', KEYS[1])
redis.call('DECRBY', KEYS[2], size)
return 1
`)

// Set 写入，预算检查与写入在同一个脚本中执行
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	ok, err := setScript.Run(ctx, r.client, []string{r.redisKey(key), r.usedKey()},
		value, len(key), r.capacity).Int()
	if err != nil {
		return mapRedisError(err)
	}
	if ok == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

// Remove 删除
func (r *RedisKV) Remove(ctx context.Context, key string) error {
	return removeScript.Run(ctx, r.client, []string{r.redisKey(key), r.usedKey()}, len(key)).Err()
}

// Used 计数键记录的已用字节数
func (r *RedisKV) Used(ctx context.Context) (int64, error) {
	used, err := r.client.Get(ctx, r.usedKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return used, err
}

// Clear 删除前缀下全部键
func (r *RedisKV) Clear(ctx context.Context) error {
	keys, err := r.scan(ctx)
	if err != nil {
		return err
	}
	keys = append(keys, r.usedKey())
	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Keys 返回前缀下全部业务键
func (r *RedisKV) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, r.prefix))
	}
	sort.Strings(out)
	return out, nil
}

// scan 返回带前缀的 Redis 键，不含计数键
func (r *RedisKV) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if k := iter.Val(); k != r.usedKey() {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	return keys, nil
}

// mapRedisError 将 maxmemory 触发的 OOM 错误映射为 ErrQuotaExceeded
func mapRedisError(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
