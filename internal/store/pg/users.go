package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
)

// UserStore implementa repository.UserRepository.
type UserStore struct{ s *Store }

func (s *Store) Users() *UserStore { return &UserStore{s: s} }

const userSelect = `
SELECT u.id, u.name, u.email, u.password_hash, u.created_at,
       tc.cloud_id, tc.site_url, tc.access_token_enc, tc.refresh_token_enc,
       tc.expires_at_ms, tc.connected_at
  FROM app_user u
  LEFT JOIN tracker_connection tc ON tc.user_id = u.id`

func scanUser(row pgx.Row) (*repository.User, error) {
	var (
		u                                repository.User
		cloudID, siteURL, accEnc, refEnc *string
		expiresAtMs                      *int64
		connectedAt                      *time.Time
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt,
		&cloudID, &siteURL, &accEnc, &refEnc, &expiresAtMs, &connectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if cloudID != nil {
		u.Tracker = &repository.TrackerConnection{
			CloudID:         *cloudID,
			SiteURL:         *siteURL,
			AccessTokenEnc:  *accEnc,
			RefreshTokenEnc: *refEnc,
			ExpiresAtMs:     *expiresAtMs,
			ConnectedAt:     *connectedAt,
		}
	}
	return &u, nil
}

func (r *UserStore) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	id := uuid.NewString()
	var u repository.User
	// La unicidad de email la garantiza el índice único sobre lower(email);
	// un 23505 llega como ErrConflict sin ventana de carrera.
	err := r.s.pool.QueryRow(ctx, `
		INSERT INTO app_user (id, name, email, password_hash)
		VALUES ($1, $2, lower($3), $4)
		RETURNING id, name, email, password_hash, created_at`,
		id, in.Name, in.Email, in.PasswordHash,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

func (r *UserStore) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	return scanUser(r.s.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, userID))
}

func (r *UserStore) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return scanUser(r.s.pool.QueryRow(ctx, userSelect+` WHERE u.email = lower($1)`, email))
}

func (r *UserStore) SetTrackerConnection(ctx context.Context, userID string, c repository.TrackerConnection) error {
	// Upsert: el PK user_id hace estructural el "a lo sumo una conexión".
	_, err := r.s.pool.Exec(ctx, `
		INSERT INTO tracker_connection
		    (user_id, cloud_id, site_url, access_token_enc, refresh_token_enc, expires_at_ms, connected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
		    cloud_id          = EXCLUDED.cloud_id,
		    site_url          = EXCLUDED.site_url,
		    access_token_enc  = EXCLUDED.access_token_enc,
		    refresh_token_enc = EXCLUDED.refresh_token_enc,
		    expires_at_ms     = EXCLUDED.expires_at_ms,
		    connected_at      = EXCLUDED.connected_at`,
		userID, c.CloudID, c.SiteURL, c.AccessTokenEnc, c.RefreshTokenEnc, c.ExpiresAtMs, c.ConnectedAt,
	)
	return mapPgError(err)
}

func (r *UserStore) UpdateTrackerTokens(ctx context.Context, userID, accessTokenEnc, refreshTokenEnc string, expiresAtMs int64) error {
	tag, err := r.s.pool.Exec(ctx, `
		UPDATE tracker_connection
		   SET access_token_enc = $1, refresh_token_enc = $2, expires_at_ms = $3
		 WHERE user_id = $4`,
		accessTokenEnc, refreshTokenEnc, expiresAtMs, userID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserStore) RemoveTrackerConnection(ctx context.Context, userID string) error {
	// Idempotente: borrar una conexión inexistente no es error.
	_, err := r.s.pool.Exec(ctx, `DELETE FROM tracker_connection WHERE user_id = $1`, userID)
	return err
}
