// Package rate limita intentos sobre los endpoints de credenciales
// (login/register) con un fixed window por clave. El backend Redis comparte
// el contador entre réplicas; el de memoria sirve para desarrollo y tests.
package rate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describe el veredicto del limiter para un hit.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decide si un hit identificado por key entra en la ventana actual.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config parametriza New.
type Config struct {
	// Driver: "redis" o "memory".
	Driver string
	Addr   string
	// Password y DB aplican sólo al driver redis.
	Password string
	DB       int
	Prefix   string

	// Max hits por ventana. Window define el tamaño de la ventana fija.
	Max    int
	Window time.Duration
}

// New construye el limiter según el driver configurado.
func New(cfg Config) (Limiter, error) {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("rate: max y window deben ser positivos")
	}
	switch cfg.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("rate: ping failed: %w", err)
		}
		return NewRedisLimiter(client, cfg.Prefix, cfg.Max, cfg.Window), nil
	case "memory", "":
		return NewMemoryLimiter(cfg.Max, cfg.Window), nil
	default:
		return nil, fmt.Errorf("rate: driver desconocido %q", cfg.Driver)
	}
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE).
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
}

// NewRedisLimiter crea un limiter compartido entre réplicas.
func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	hits := incr.Val()
	res := Result{
		Allowed:   hits <= l.max,
		Remaining: max(l.max-hits, 0),
	}
	if !res.Allowed {
		res.RetryAfter = winStart.Add(l.window).Sub(now)
	}
	return res, nil
}

// MemoryLimiter mantiene la ventana en proceso. No comparte estado entre
// réplicas.
type MemoryLimiter struct {
	max    int64
	window time.Duration

	mu   sync.Mutex
	hits map[string]int64
	win  time.Time

	// now permite congelar el reloj en tests.
	now func() time.Time
}

// NewMemoryLimiter crea un limiter local al proceso.
func NewMemoryLimiter(maxHits int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    int64(maxHits),
		window: window,
		hits:   make(map[string]int64),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Al rotar la ventana se descartan todos los contadores de la anterior.
	if !winStart.Equal(l.win) {
		l.win = winStart
		l.hits = make(map[string]int64)
	}
	l.hits[key]++
	hits := l.hits[key]

	res := Result{
		Allowed:   hits <= l.max,
		Remaining: max(l.max-hits, 0),
	}
	if !res.Allowed {
		res.RetryAfter = winStart.Add(l.window).Sub(now)
	}
	return res, nil
}
