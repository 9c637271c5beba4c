package repository

import (
	"context"
	"time"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time

	// Tracker es la conexión al issue tracker externo, nil si no hay.
	// Invariante: a lo sumo una conexión por usuario.
	Tracker *TrackerConnection
}

// TrackerConnection es la configuración OAuth del tracker de un usuario.
// Los tokens se guardan cifrados (secretbox); nunca en claro.
type TrackerConnection struct {
	CloudID         string
	SiteURL         string
	AccessTokenEnc  string
	RefreshTokenEnc string
	ExpiresAtMs     int64 // epoch millis del vencimiento del access token
	ConnectedAt     time.Time
}

// Expired informa si el access token ya venció en el instante now.
func (c *TrackerConnection) Expired(now time.Time) bool {
	return now.UnixMilli() >= c.ExpiresAtMs
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Name         string
	Email        string
	PasswordHash string
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// Create crea un usuario. Retorna ErrConflict si el email ya existe
	// (unicidad garantizada por constraint de storage, no por pre-check).
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// GetByID busca un usuario por ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// GetByEmail busca un usuario por email (lowercased). Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetTrackerConnection adjunta o reemplaza la conexión del tracker.
	SetTrackerConnection(ctx context.Context, userID string, conn TrackerConnection) error

	// UpdateTrackerTokens persiste un par de tokens refrescado conservando
	// cloud_id, site_url y connected_at. Retorna ErrNotFound si el usuario
	// no tiene conexión.
	UpdateTrackerTokens(ctx context.Context, userID, accessTokenEnc, refreshTokenEnc string, expiresAtMs int64) error

	// RemoveTrackerConnection elimina la conexión. Idempotente: no es error
	// si no había conexión.
	RemoveTrackerConnection(ctx context.Context, userID string) error
}
