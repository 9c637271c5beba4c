package repository

import (
	"context"
	"time"
)

// APIKey representa una credencial de máquina de larga vida.
// El secreto en claro existe sólo en el momento de creación; acá únicamente
// viaja su hash SHA-256 (base64url).
type APIKey struct {
	ID         string
	UserID     string
	Name       string
	KeyHash    string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	IsActive   bool
}

// APIKeyRepository define operaciones sobre API keys.
type APIKeyRepository interface {
	// Create inserta una nueva key (ya hasheada).
	Create(ctx context.Context, key APIKey) error

	// GetActiveByHash busca una key activa por hash.
	// Retorna ErrNotFound si no hay match (hash desconocido o key inactiva).
	GetActiveByHash(ctx context.Context, keyHash string) (*APIKey, error)

	// ListByUser lista las keys de un usuario (metadata, incluye el hash
	// porque es el mismo tipo; la capa de servicio nunca lo expone).
	ListByUser(ctx context.Context, userID string) ([]APIKey, error)

	// Delete borra una key sólo si pertenece al usuario.
	// Retorna ErrNotFound tanto si no existe como si es de otro dueño.
	Delete(ctx context.Context, userID, keyID string) error

	// TouchLastUsed actualiza last_used_at. Best-effort: los callers lo
	// invocan fire-and-forget y nunca fallan el request por esto.
	TouchLastUsed(ctx context.Context, keyID string, at time.Time) error
}
