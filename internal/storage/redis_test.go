package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// newTestRedisKV 需要 CHATHY_TEST_REDIS 指向可用的 Redis，例如 localhost:6379
func newTestRedisKV(t *testing.T, capacity int64) *RedisKV {
	t.Helper()
	addr := os.Getenv("CHATHY_TEST_REDIS")
	if addr == "" {
		t.Skip("CHATHY_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	kv := NewRedisKV(client, "chathy-test:"+uuid.NewString()+":", capacity)
	t.Cleanup(func() { _ = kv.Clear(context.Background()) })
	return kv
}

func TestRedisKVEmptyValueAccounting(t *testing.T) {
	ctx := context.Background()
	kv := newTestRedisKV(t, 0)

	for i := 0; i < 3; i++ {
		if err := kv.Set(ctx, "k", ""); err != nil {
			t.Fatal(err)
		}
	}
	if used, _ := kv.Used(ctx); used != 1 {
		t.Errorf("used after rewriting an empty value = %d, want 1", used)
	}
	if err := kv.Set(ctx, "k", "abc"); err != nil {
		t.Fatal(err)
	}
	if used, _ := kv.Used(ctx); used != 4 {
		t.Errorf("used = %d, want 4", used)
	}
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if used, _ := kv.Used(ctx); used != 0 {
		t.Errorf("used after remove = %d, want 0", used)
	}
}

func TestRedisKVConcurrentBudget(t *testing.T) {
	ctx := context.Background()
	kv := newTestRedisKV(t, 100)
	value := strings.Repeat("v", 18)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- kv.Set(ctx, fmt.Sprintf("k%02d", i), value)
		}(i)
	}
	wg.Wait()
	close(errs)

	written := 0
	for err := range errs {
		switch {
		case err == nil:
			written++
		case !errors.Is(err, ErrQuotaExceeded):
			t.Errorf("Set() error = %v", err)
		}
	}

	// 每条 3 + 18 字节，容量 100 最多容纳 4 条
	if written != 4 {
		t.Errorf("written = %d, want 4", written)
	}
	used, _ := kv.Used(ctx)
	if used > 100 {
		t.Errorf("used = %d exceeds capacity", used)
	}
	keys, _ := kv.Keys(ctx)
	if len(keys) != written {
		t.Errorf("keys = %v, want %d", keys, written)
	}
}
