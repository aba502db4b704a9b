package infra

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"

	"content-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava as decisões do rate limit em hashes do Redis (um pipeline por evento).
//
// Layout com o prefixo padrão:
//
//	ratelimit:stats:total               allowed / denied / exhausted / retry_after_seconds / limit
//	ratelimit:stats:minute:YYYYMMDDhhmm allowed / denied / exhausted
//	ratelimit:stats:route               "<METHOD> <path>:allowed|denied"
//	ratelimit:stats:key:<key>           allowed / denied / exhausted / remaining (só com trackKeys)
//
// exhausted conta as requisições que consumiram a última vaga da janela (Remaining 0).
// remaining é o valor da última decisão daquela chave.
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// hashWrite é o que um evento faz numa hash: incrementos, campos sobrescritos e
// se a chave expira.
type hashWrite struct {
	key    string
	incr   map[string]int64
	set    map[string]any
	expire bool
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, w := range s.writes(ev) {
		for field, n := range w.incr {
			pipe.HIncrBy(ctx, w.key, field, n)
		}
		if len(w.set) > 0 {
			pipe.HSet(ctx, w.key, w.set)
		}
		if w.expire && s.ttl > 0 {
			pipe.Expire(ctx, w.key, s.ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// writes traduz um evento nas escritas por hash, sem tocar no Redis.
func (s *RedisStatsStore) writes(ev domain.StatsEvent) []hashWrite {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	counts := map[string]int64{decisionField(ev.Allowed): 1}
	if ev.Allowed && ev.Limit > 0 && ev.Remaining == 0 {
		counts["exhausted"] = 1
	}

	total := hashWrite{key: s.prefix + ":total", incr: maps.Clone(counts)}
	if !ev.Allowed && ev.RetryAfter > 0 {
		total.incr["retry_after_seconds"] = int64(math.Ceil(ev.RetryAfter.Seconds()))
	}
	if ev.Limit > 0 {
		total.set = map[string]any{"limit": ev.Limit}
	}
	out := []hashWrite{total}

	if s.bucket == "minute" {
		out = append(out, hashWrite{
			key:    fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504")),
			incr:   maps.Clone(counts),
			expire: true,
		})
	}

	if route := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path)); route != "" {
		out = append(out, hashWrite{
			key:  s.prefix + ":route",
			incr: map[string]int64{route + ":" + decisionField(ev.Allowed): 1},
		})
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			w := hashWrite{key: s.prefix + ":key:" + k, incr: maps.Clone(counts), expire: true}
			if ev.Limit > 0 {
				w.set = map[string]any{"remaining": ev.Remaining}
			}
			out = append(out, w)
		}
	}
	return out
}

func decisionField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

// Close fecha o cliente quando ele é um *redis.Client (o wiring do app chama no cleanup).
func (s *RedisStatsStore) Close() error {
	if c, ok := s.rdb.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}
