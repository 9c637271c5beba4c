package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/metrics"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/security/secretbox"
)

// Refresher es lo único que el TokenSource necesita del cliente OAuth.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
}

// TokenSource entrega siempre un access token vigente para un usuario,
// refrescando de forma transparente.
//
// El chequeo de expiración es proactivo: se hace inmediatamente antes de
// cada llamada saliente, nunca reaccionando a un 401. Refrescar no toma
// ningún lock distribuido: dos llamadas concurrentes pueden refrescar ambas
// y gana la última escritura; si el tracker rechaza un refresh token viejo,
// eso emerge como ErrReauthRequired.
type TokenSource struct {
	Users   repository.UserRepository
	Tracker Refresher

	// now permite congelar el reloj en tests.
	Now func() time.Time
}

func NewTokenSource(users repository.UserRepository, tr Refresher) *TokenSource {
	return &TokenSource{Users: users, Tracker: tr, Now: time.Now}
}

// AccessToken devuelve (accessToken, cloudID) vigentes para el usuario.
//
//   - Sin conexión: ErrNotConnected.
//   - Tokens indescifrables (secretbox.ErrCorrupted): ErrReauthRequired,
//     la conexión se considera perdida.
//   - Refresh rechazado upstream: ErrReauthRequired, sin reintentos.
func (ts *TokenSource) AccessToken(ctx context.Context, user *repository.User) (string, string, error) {
	if user == nil || user.Tracker == nil {
		return "", "", ErrNotConnected
	}
	conn := user.Tracker
	log := logger.From(ctx).With(
		logger.Component("tracker.tokensource"),
		logger.UserID(user.ID),
		logger.CloudID(conn.CloudID),
	)

	access, err := secretbox.Decrypt(conn.AccessTokenEnc)
	if err != nil {
		log.Warn("stored access token undecryptable, reauth required", logger.Err(err))
		return "", "", fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	if !conn.Expired(ts.Now()) {
		return access, conn.CloudID, nil
	}

	// Vencido: refrescar antes de la llamada saliente.
	refresh, err := secretbox.Decrypt(conn.RefreshTokenEnc)
	if err != nil {
		log.Warn("stored refresh token undecryptable, reauth required", logger.Err(err))
		return "", "", fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	set, err := ts.Tracker.Refresh(ctx, refresh)
	if err != nil {
		metrics.TrackerRefresh("error")
		log.Warn("token refresh rejected upstream", logger.Err(err))
		return "", "", fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	newRefresh := set.RefreshToken
	if newRefresh == "" {
		// El tracker puede no rotar el refresh token; conservamos el vigente.
		newRefresh = refresh
	}

	accessEnc, err := secretbox.Encrypt(set.AccessToken)
	if err != nil {
		return "", "", err
	}
	refreshEnc, err := secretbox.Encrypt(newRefresh)
	if err != nil {
		return "", "", err
	}

	expiresAtMs := ts.Now().Add(time.Duration(set.ExpiresIn) * time.Second).UnixMilli()
	if err := ts.Users.UpdateTrackerTokens(ctx, user.ID, accessEnc, refreshEnc, expiresAtMs); err != nil {
		// El par nuevo es válido aunque no se haya podido persistir; la
		// próxima llamada volverá a refrescar. Se loguea y se sigue.
		log.Error("persisting refreshed tokens failed", logger.Err(err))
	}

	// Mantener el snapshot en memoria coherente con lo persistido.
	conn.AccessTokenEnc = accessEnc
	conn.RefreshTokenEnc = refreshEnc
	conn.ExpiresAtMs = expiresAtMs

	metrics.TrackerRefresh("ok")
	log.Info("access token refreshed")
	return set.AccessToken, conn.CloudID, nil
}
