// Package redisstate implementa el ledger de states CSRF sobre Redis.
//
// El TTL nativo de Redis cubre la expiración pasiva; el consume usa un
// script Lua (compare-and-delete) para que validar y borrar sean una sola
// operación atómica, igual que el DELETE..RETURNING del backend Postgres.
package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/security/token"
)

// consumeScript borra la key sólo si su valor coincide con el state presentado.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

type Ledger struct {
	client *redis.Client
	prefix string
}

// Config conexión al Redis del ledger.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New crea el ledger y verifica la conexión.
func New(cfg Config) (*Ledger, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisstate: ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "oauthstate"
	}
	return &Ledger{client: rdb, prefix: prefix}, nil
}

func (l *Ledger) key(userID string) string {
	return l.prefix + ":" + userID
}

const stateBytes = 32

// Create genera un state y lo guarda con TTL. SET sobreescribe el valor
// anterior del usuario: reemplaza-no-acumula sin operación extra.
func (l *Ledger) Create(ctx context.Context, userID string) (string, error) {
	state, err := token.GenerateOpaque(stateBytes)
	if err != nil {
		return "", err
	}
	if err := l.client.Set(ctx, l.key(userID), state, repository.StateTTL).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// ValidateAndConsume compara y borra atómicamente via Lua.
func (l *Ledger) ValidateAndConsume(ctx context.Context, userID, state string) (bool, error) {
	n, err := consumeScript.Run(ctx, l.client, []string{l.key(userID)}, state).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete quema el state vivo del usuario. DEL es idempotente.
func (l *Ledger) Delete(ctx context.Context, userID string) error {
	return l.client.Del(ctx, l.key(userID)).Err()
}

// Close cierra la conexión.
func (l *Ledger) Close() error { return l.client.Close() }
