package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
	ctxKeyAPIKey
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID devuelve el request ID del contexto, o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// WithUserID inyecta el ID del usuario autenticado.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// GetUserID devuelve el user ID autenticado, o "".
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserID).(string)
	return v
}

// WithAPIKey inyecta la API key que autenticó el request.
func WithAPIKey(ctx context.Context, key *repository.APIKey) context.Context {
	return context.WithValue(ctx, ctxKeyAPIKey, key)
}

// GetAPIKey devuelve la API key del contexto, o nil.
func GetAPIKey(ctx context.Context) *repository.APIKey {
	v, _ := ctx.Value(ctxKeyAPIKey).(*repository.APIKey)
	return v
}

// clientIP extrae la IP del cliente respetando X-Forwarded-For.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
