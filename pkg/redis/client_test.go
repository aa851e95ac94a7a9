package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockCmdable struct {
	values map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{values: map[string]string{}}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.values[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	value, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.values[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = toString(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.values[key] += "i"
	return redis.NewIntResult(int64(len(m.values[key])), nil)
}

func (m *mockCmdable) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return "1"
}

func TestSendLockLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	if err := client.AcquireSendLock(ctx, "order-1", time.Minute); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := client.AcquireSendLock(ctx, "order-1", time.Minute); err != ErrLockHeld {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if err := client.AcquireSendLock(ctx, "order-2", time.Minute); err != nil {
		t.Fatalf("unrelated order should lock independently: %v", err)
	}
	if err := client.ReleaseSendLock(ctx, "order-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := client.AcquireSendLock(ctx, "order-1", time.Minute); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.SendLockKey("abc"); got != "pflow:send_lock:abc" {
		t.Fatalf("unexpected send lock key %s", got)
	}
	if got := client.CounterKey("emails"); got != "pflow:counter:emails" {
		t.Fatalf("unexpected counter key %s", got)
	}
}
