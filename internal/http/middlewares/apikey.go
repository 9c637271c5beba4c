package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
)

// APIKeyValidator es lo que el middleware necesita del service de API keys.
type APIKeyValidator interface {
	// Validate resuelve una key cruda a su registro activo.
	// Key desconocida o revocada: repository.ErrNotFound.
	Validate(ctx context.Context, rawKey string) (*repository.APIKey, error)
}

// RequireAPIKey autentica con X-API-Key (o Bearer con prefijo de key). Inyecta
// la key y el user dueño en el contexto. Desconocida y revocada responden
// idéntico para no filtrar cuál de las dos fue.
func RequireAPIKey(v APIKeyValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if raw == "" {
				if bt, ok := bearerToken(r); ok && strings.HasPrefix(bt, "ih_") {
					raw = bt
				}
			}
			if raw == "" {
				httperrors.WriteError(w, r, httperrors.ErrInvalidAPIKey.WithDetail("falta el header X-API-Key"))
				return
			}

			key, err := v.Validate(r.Context(), raw)
			if err != nil {
				httperrors.WriteError(w, r, httperrors.ErrInvalidAPIKey)
				return
			}

			ctx := WithAPIKey(r.Context(), key)
			ctx = WithUserID(ctx, key.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
