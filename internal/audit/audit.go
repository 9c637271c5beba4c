// Package audit registra eventos de seguridad relevantes (altas de usuario,
// emisión y revocación de keys, conexión del tracker) como entradas
// estructuradas del log principal, identificadas por el campo audit_event.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/issuehub/internal/observability/logger"
)

// Eventos conocidos. Usar estas constantes para poder filtrar en el agregador.
const (
	EventUserRegistered      = "user.registered"
	EventUserLogin           = "user.login"
	EventAPIKeyCreated       = "apikey.created"
	EventAPIKeyRevoked       = "apikey.revoked"
	EventTrackerConnected    = "tracker.connected"
	EventTrackerDisconnected = "tracker.disconnected"
)

// Log emite un evento de auditoría sobre el logger del contexto. Hereda el
// request_id y user_id que el middleware de logging ya inyectó.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Info("audit",
		append([]zap.Field{zap.String("audit_event", event)}, fields...)...,
	)
}
