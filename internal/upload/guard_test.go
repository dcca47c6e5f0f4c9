package upload

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client, ttl), mr
}

func TestMemoryGuardSingleSlotPerKey(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	if ok, _ := g.Acquire(ctx, "a"); !ok {
		t.Fatalf("first acquire should succeed")
	}
	if ok, _ := g.Acquire(ctx, "a"); ok {
		t.Fatalf("second acquire of a held key should fail")
	}
	if ok, _ := g.Acquire(ctx, "b"); !ok {
		t.Fatalf("other keys are independent")
	}
	_ = g.Release(ctx, "a")
	if held, _ := g.Held(ctx, "a"); held {
		t.Fatalf("released key still held")
	}
}

func TestRedisGuardAcquireReleaseHeld(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGuard(t, time.Minute)

	ok, err := g.Acquire(ctx, "client-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if !mr.Exists("studyhelper:upload:client-1") {
		t.Fatalf("slot key not written")
	}
	if ttl := mr.TTL("studyhelper:upload:client-1"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", ttl)
	}

	ok, err = g.Acquire(ctx, "client-1")
	if err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}
	if held, err := g.Held(ctx, "client-1"); err != nil || !held {
		t.Fatalf("expected held, got %v %v", held, err)
	}
	if held, _ := g.Held(ctx, "client-2"); held {
		t.Fatalf("unrelated key reported held")
	}

	if err := g.Release(ctx, "client-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if held, _ := g.Held(ctx, "client-1"); held {
		t.Fatalf("released key still held")
	}
	if ok, _ := g.Acquire(ctx, "client-1"); !ok {
		t.Fatalf("acquire after release should succeed")
	}
}

func TestRedisGuardSlotExpires(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGuard(t, 30*time.Second)

	if ok, _ := g.Acquire(ctx, "client-1"); !ok {
		t.Fatalf("acquire failed")
	}
	mr.FastForward(31 * time.Second)
	if held, _ := g.Held(ctx, "client-1"); held {
		t.Fatalf("slot should expire after its ttl")
	}
}

func TestGuardTriggerFailsClosedWhenRedisIsDown(t *testing.T) {
	g, mr := newRedisGuard(t, time.Minute)
	mr.Close()

	trigger := NewGuardTrigger(context.Background(), g, "client-1", nil)
	if !trigger.Disabled() {
		t.Fatalf("trigger should report busy when the guard errors")
	}
	if trigger.Disable() {
		t.Fatalf("disable must not succeed without the guard")
	}
}
