package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"content-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

func TestMemoryStatsStore_CountsByRouteAndKey(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Key: "a", Allowed: true, Method: "GET", Path: "/api/posts"})
	_ = s.Record(ctx, domain.StatsEvent{Key: "a", Allowed: false, Method: "GET", Path: "/api/posts", RetryAfter: time.Second})
	_ = s.Record(ctx, domain.StatsEvent{Key: "b", Allowed: true, Method: "POST", Path: "/api/posts/1/comments"})

	if got := s.Total(); got.Allowed != 2 || got.Denied != 1 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got := s.ByRoute()["GET /api/posts"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected route counters: %+v", got)
	}
	if got := s.ByKey()["b"]; got.Allowed != 1 {
		t.Fatalf("unexpected key counters: %+v", got)
	}
}

func TestMemoryStatsStore_KeysNotTrackedByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	_ = s.Record(context.Background(), domain.StatsEvent{Key: "a", Allowed: true})
	if len(s.ByKey()) != 0 {
		t.Fatalf("expected no per-key counters")
	}
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	if err := s.Record(context.Background(), domain.StatsEvent{Allowed: true}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRedisStatsStore_ReturnsErrorWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisStatsStore(rdb, WithStatsPrefix(":test:"), WithStatsTrackKeys(true))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Record(ctx, domain.StatsEvent{Key: "k", Allowed: false, RetryAfter: time.Second}); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
}

type failingStats struct{}

func (failingStats) Record(context.Context, domain.StatsEvent) error { return errors.New("down") }

func TestTeeStats_RecordsEverywhereAndJoinsErrors(t *testing.T) {
	mem := NewMemoryStatsStore()
	tee := TeeStats{mem, nil, failingStats{}}

	err := tee.Record(context.Background(), domain.StatsEvent{Allowed: true, Method: "GET", Path: "/"})
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	if got := mem.Total(); got.Allowed != 1 {
		t.Fatalf("memory store should still record, got %+v", got)
	}
}

func TestRedisStatsStore_WritesFollowDecision(t *testing.T) {
	s := NewRedisStatsStore(nil, WithStatsTrackKeys(true))
	at := time.Date(2024, 5, 1, 13, 7, 30, 0, time.UTC)

	last := s.writes(domain.StatsEvent{
		Key: "1.2.3.4", Allowed: true, Method: "GET", Path: "/api/posts",
		Limit: 100, Remaining: 0, At: at,
	})
	if len(last) != 4 {
		t.Fatalf("expected total, minute, route and key writes, got %d", len(last))
	}

	total := last[0]
	if total.key != "ratelimit:stats:total" || total.incr["allowed"] != 1 || total.incr["exhausted"] != 1 {
		t.Fatalf("unexpected total write: %+v", total)
	}
	if total.set["limit"] != 100 {
		t.Fatalf("expected limit=100 on total, got %+v", total.set)
	}
	if minute := last[1]; minute.key != "ratelimit:stats:minute:202405011307" || !minute.expire {
		t.Fatalf("unexpected minute write: %+v", minute)
	}
	if route := last[2]; route.incr["GET /api/posts:allowed"] != 1 {
		t.Fatalf("unexpected route write: %+v", route)
	}
	if key := last[3]; key.key != "ratelimit:stats:key:1.2.3.4" || key.set["remaining"] != 0 {
		t.Fatalf("unexpected key write: %+v", key)
	}

	denied := s.writes(domain.StatsEvent{Allowed: false, Limit: 100, RetryAfter: 1500 * time.Millisecond, At: at})
	if got := denied[0].incr; got["denied"] != 1 || got["retry_after_seconds"] != 2 || got["exhausted"] != 0 {
		t.Fatalf("unexpected denied total: %+v", got)
	}

	mid := s.writes(domain.StatsEvent{Allowed: true, Limit: 100, Remaining: 5, At: at})
	if _, ok := mid[0].incr["exhausted"]; ok {
		t.Fatalf("exhausted must only count the last slot: %+v", mid[0].incr)
	}
}
