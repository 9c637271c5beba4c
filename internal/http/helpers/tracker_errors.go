package helpers

import (
	"errors"

	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	trk "github.com/dropDatabas3/issuehub/internal/tracker"
)

// TrackerError mapea los errores del cliente del tracker al catálogo. El
// detalle remoto viaja en Detail; el payload crudo sólo queda en logs.
func TrackerError(err error) *httperrors.AppError {
	var ue *trk.UpstreamError
	switch {
	case errors.Is(err, trk.ErrNotConnected):
		return httperrors.ErrTrackerNotConnected
	case errors.Is(err, trk.ErrReauthRequired):
		return httperrors.ErrTrackerReauthRequired
	case errors.Is(err, trk.ErrNoAccessibleWorkspace):
		return httperrors.ErrUpstreamTracker.WithDetail("el token no da acceso a ningún workspace")
	case errors.As(err, &ue):
		return httperrors.ErrUpstreamTracker.WithDetail("%s", ue.Detail()).WithCause(err)
	default:
		return httperrors.FromError(err)
	}
}
