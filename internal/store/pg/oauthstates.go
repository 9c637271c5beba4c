package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/security/token"
)

// OAuthStateStore implementa repository.OAuthStateLedger sobre Postgres.
//
// Postgres no tiene TTL nativo, así que la expiración pasiva se cubre con
// Sweep (ver RunSweeper): el predicado expires_at > now() en el consume hace
// que un state vencido nunca valide aunque el sweep todavía no haya pasado.
type OAuthStateStore struct{ s *Store }

func (s *Store) OAuthStates() *OAuthStateStore { return &OAuthStateStore{s: s} }

const stateBytes = 32

func (r *OAuthStateStore) Create(ctx context.Context, userID string) (string, error) {
	state, err := token.GenerateOpaque(stateBytes)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	// Upsert sobre PK user_id: reemplaza-no-acumula en una sola operación,
	// sin ventana en la que convivan el state viejo y el nuevo.
	_, err = r.s.pool.Exec(ctx, `
		INSERT INTO oauth_state (user_id, state, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
		    state      = EXCLUDED.state,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at`,
		userID, state, now, now.Add(repository.StateTTL),
	)
	if err != nil {
		return "", mapPgError(err)
	}
	return state, nil
}

func (r *OAuthStateStore) ValidateAndConsume(ctx context.Context, userID, state string) (bool, error) {
	// Find-and-delete en una sola sentencia: dos callbacks concurrentes no
	// pueden consumir el mismo state dos veces.
	var consumed string
	err := r.s.pool.QueryRow(ctx, `
		DELETE FROM oauth_state
		 WHERE user_id = $1 AND state = $2 AND expires_at > now()
		 RETURNING user_id`,
		userID, state,
	).Scan(&consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete quema el state vivo del usuario, tenga o no uno. Idempotente.
func (r *OAuthStateStore) Delete(ctx context.Context, userID string) error {
	_, err := r.s.pool.Exec(ctx, `DELETE FROM oauth_state WHERE user_id = $1`, userID)
	return err
}

// Sweep borra states vencidos. Retorna cuántos reclamó.
func (r *OAuthStateStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM oauth_state WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RunSweeper ejecuta Sweep periódicamente hasta que el contexto se cancele.
func (r *OAuthStateStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	log := logger.Named("oauthstate.sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("sweep failed", logger.Err(err))
				}
				continue
			}
			if n > 0 {
				log.Debug("expired states reclaimed", logger.Count(int(n)))
			}
		}
	}
}
