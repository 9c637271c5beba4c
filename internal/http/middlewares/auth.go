package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	jwtx "github.com/dropDatabas3/issuehub/internal/jwt"
)

// RequireAuth valida Authorization: Bearer <JWT de sesión> y guarda el user ID
// en el contexto. Sesión vencida y token inválido se distinguen en el código
// de error, ambos con 401.
func RequireAuth(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
				return
			}

			su, err := issuer.ParseSession(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				if errors.Is(err, jwtx.ErrExpired) {
					httperrors.WriteError(w, r, httperrors.ErrSessionExpired)
					return
				}
				httperrors.WriteError(w, r, httperrors.ErrTokenInvalid.WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), su.ID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(ah[len("Bearer "):]), true
}
