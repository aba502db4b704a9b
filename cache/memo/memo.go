// Package memo implementa "busca-ou-calcula" sobre o cache.Store.
//
// Do NÃO deduplica misses concorrentes: se duas chamadas encontram a chave ausente ao
// mesmo tempo, as duas executam o producer e a última gravação vence. É uma troca
// consciente (simplicidade no lugar de single-flight). Quem precisa de uma única execução
// por chave usa DoShared, que tem contrato próprio.
//
// Falha do producer nunca é cacheada: o erro volta inalterado e nada é gravado.
package memo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"content-gateway/cache"
	"content-gateway/monitor"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KeyPrefix separa as chaves do memo das do cache de respostas.
const KeyPrefix = "memo:"

type Memoizer struct {
	store *cache.Store
	group singleflight.Group
	mon   *monitor.Monitor
	log   *zap.Logger
}

type Option func(*Memoizer)

func WithLogger(l *zap.Logger) Option {
	return func(m *Memoizer) { m.log = l }
}

// WithMonitor faz Wrap medir cada execução da função embrulhada.
func WithMonitor(mon *monitor.Monitor) Option {
	return func(m *Memoizer) { m.mon = mon }
}

func New(store *cache.Store, opts ...Option) *Memoizer {
	m := &Memoizer{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do retorna o valor cacheado em key ou executa producer uma vez (nesta chamada),
// grava o resultado com ttl e o retorna.
func Do[T any](ctx context.Context, m *Memoizer, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	full := KeyPrefix + key
	if v, ok := lookup[T](m, full); ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.store.Set(full, v, ttl)
	return v, nil
}

// DoShared é a variante single-flight de Do: misses concorrentes da mesma chave
// compartilham uma única execução do producer. O ctx usado é o da chamada que
// iniciou o cálculo.
func DoShared[T any](ctx context.Context, m *Memoizer, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	full := KeyPrefix + key
	if v, ok := lookup[T](m, full); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(full, func() (any, error) {
		if v, ok := lookup[T](m, full); ok {
			return v, nil
		}
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		m.store.Set(full, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Wrap devolve fn com a mesma assinatura, cacheando por op + argumentos.
// Argumentos estruturalmente iguais geram a mesma chave. Se os argumentos não
// serializam, a chamada segue sem cache.
func Wrap[A, T any](m *Memoizer, op string, ttl time.Duration, fn func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	timed := monitor.Timed(m.mon, op, fn)

	return func(ctx context.Context, arg A) (T, error) {
		key, err := ArgsKey(op, arg)
		if err != nil {
			m.log.Warn("memo: uncacheable arguments", zap.String("op", op), zap.Error(err))
			return timed(ctx, arg)
		}
		return Do(ctx, m, key, ttl, func(ctx context.Context) (T, error) {
			return timed(ctx, arg)
		})
	}
}

// Warmup calcula e grava key. Falhas só vão para o log.
func Warmup[T any](ctx context.Context, m *Memoizer, key string, ttl time.Duration, producer func(context.Context) (T, error)) {
	v, err := producer(ctx)
	if err != nil {
		m.log.Warn("memo: warmup failed", zap.String("key", key), zap.Error(err))
		return
	}
	m.store.Set(KeyPrefix+key, v, ttl)
}

// ArgsKey gera a chave de Wrap: op + ":" + sha256(json(args)).
// encoding/json ordena chaves de map, então a serialização é estável.
func ArgsKey(op string, args any) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("memo: serialize args: %v", r)
		}
	}()

	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("memo: serialize args: %w", err)
	}
	sum := sha256.Sum256(b)
	return op + ":" + hex.EncodeToString(sum[:]), nil
}

// Forget remove uma chave do memo.
func (m *Memoizer) Forget(key string) bool {
	return m.store.Delete(KeyPrefix + key)
}

// ForgetPrefix remove todas as chaves do memo que começam com prefix
// (ex.: "content.posts:" apaga todas as listagens cacheadas).
func (m *Memoizer) ForgetPrefix(prefix string) int {
	n, err := m.store.DeletePattern("^" + regexp.QuoteMeta(KeyPrefix+prefix))
	if err != nil {
		m.log.Warn("memo: forget prefix", zap.String("prefix", prefix), zap.Error(err))
	}
	return n
}

func lookup[T any](m *Memoizer, key string) (T, bool) {
	var zero T
	v, ok := m.store.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		// tipo diferente na mesma chave: trata como miss e deixa o producer sobrescrever
		m.log.Warn("memo: cached value has unexpected type", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", v)))
		return zero, false
	}
	return t, true
}
