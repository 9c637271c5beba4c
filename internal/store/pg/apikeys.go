package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
)

// APIKeyStore implementa repository.APIKeyRepository.
type APIKeyStore struct{ s *Store }

func (s *Store) APIKeys() *APIKeyStore { return &APIKeyStore{s: s} }

func (r *APIKeyStore) Create(ctx context.Context, k repository.APIKey) error {
	_, err := r.s.pool.Exec(ctx, `
		INSERT INTO api_key (id, user_id, name, key_hash, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		k.ID, k.UserID, k.Name, k.KeyHash, k.CreatedAt, k.IsActive,
	)
	return mapPgError(err)
}

func (r *APIKeyStore) GetActiveByHash(ctx context.Context, keyHash string) (*repository.APIKey, error) {
	var k repository.APIKey
	err := r.s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, key_hash, created_at, last_used_at, is_active
		  FROM api_key
		 WHERE key_hash = $1 AND is_active`,
		keyHash,
	).Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.CreatedAt, &k.LastUsedAt, &k.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (r *APIKeyStore) ListByUser(ctx context.Context, userID string) ([]repository.APIKey, error) {
	rows, err := r.s.pool.Query(ctx, `
		SELECT id, user_id, name, key_hash, created_at, last_used_at, is_active
		  FROM api_key
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.APIKey
	for rows.Next() {
		var k repository.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.CreatedAt, &k.LastUsedAt, &k.IsActive); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *APIKeyStore) Delete(ctx context.Context, userID, keyID string) error {
	// El filtro por user_id hace indistinguible "no existe" de "no es tuya".
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM api_key WHERE id = $1 AND user_id = $2`, keyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *APIKeyStore) TouchLastUsed(ctx context.Context, keyID string, at time.Time) error {
	_, err := r.s.pool.Exec(ctx, `UPDATE api_key SET last_used_at = $1 WHERE id = $2`, at, keyID)
	return err
}
