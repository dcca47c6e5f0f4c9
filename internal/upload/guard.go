package upload

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"studyhelper/internal/logger"
)

// Guard holds at most one in-flight slot per key.
type Guard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Held(ctx context.Context, key string) (bool, error)
}

type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: map[string]struct{}{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	return nil
}

func (g *MemoryGuard) Held(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok, nil
}

// RedisGuard shares slots across replicas. The TTL bounds how long a crashed
// replica can keep a browser locked out.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl, prefix: "studyhelper:upload:"}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (g *RedisGuard) Held(ctx context.Context, key string) (bool, error) {
	n, err := g.client.Exists(ctx, g.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// GuardTrigger is the server-side Trigger for one browser session. Guard
// errors fail closed: the trigger reports itself busy.
type GuardTrigger struct {
	ctx      context.Context
	guard    Guard
	key      string
	log      *logger.Logger
	acquired atomic.Bool
	disabled atomic.Bool
}

func NewGuardTrigger(ctx context.Context, guard Guard, key string, log *logger.Logger) *GuardTrigger {
	if log == nil {
		log = logger.Nop()
	}
	return &GuardTrigger{ctx: ctx, guard: guard, key: key, log: log}
}

func (t *GuardTrigger) Disabled() bool {
	if t.disabled.Load() {
		return true
	}
	held, err := t.guard.Held(t.ctx, t.key)
	if err != nil {
		t.log.Error("upload guard check failed", "error", err)
		return true
	}
	return held
}

func (t *GuardTrigger) Disable() bool {
	ok, err := t.guard.Acquire(t.ctx, t.key)
	if err != nil {
		t.log.Error("upload guard acquire failed", "error", err)
		return false
	}
	if ok {
		t.acquired.Store(true)
		t.disabled.Store(true)
	}
	return ok
}

func (t *GuardTrigger) Enable() {
	t.disabled.Store(false)
	t.release()
}

// Release frees the server-side slot once the request is done. The trigger
// keeps reporting the state the page should show.
func (t *GuardTrigger) Release() {
	t.release()
}

func (t *GuardTrigger) release() {
	if !t.acquired.CompareAndSwap(true, false) {
		return
	}
	// The request context may already be cancelled by a client disconnect.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), 2*time.Second)
	defer cancel()
	if err := t.guard.Release(ctx, t.key); err != nil {
		t.log.Error("upload guard release failed", "error", err)
	}
}

// ShowsDisabled reports the trigger state the page should render.
func (t *GuardTrigger) ShowsDisabled() bool {
	return t.disabled.Load()
}
