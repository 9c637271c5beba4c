package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/issuehub/internal/audit"
	"github.com/dropDatabas3/issuehub/internal/cache"
	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/email"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/tracker"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/security/secretbox"
	trk "github.com/dropDatabas3/issuehub/internal/tracker"
)

// OAuthClient es lo que el service necesita del cliente del tracker.
type OAuthClient interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*trk.TokenSet, error)
	AccessibleResources(ctx context.Context, accessToken string) (*trk.Workspace, error)
	ListProjects(ctx context.Context, accessToken, cloudID string) ([]trk.Project, error)
}

// TokenProvider entrega access tokens vigentes (implementado por
// trk.TokenSource).
type TokenProvider interface {
	AccessToken(ctx context.Context, user *repository.User) (string, string, error)
}

const projectsCacheTTL = 5 * time.Minute

// Deps contiene las dependencias del service.
type Deps struct {
	Users    repository.UserRepository
	States   repository.OAuthStateLedger
	Client   OAuthClient
	Source   TokenProvider
	Cache    cache.Client // nil = sin cache
	Notifier *email.Notifier

	// Now permite congelar el reloj en tests.
	Now func() time.Time
}

type service struct {
	deps  Deps
	group singleflight.Group
}

// NewService crea el service del tracker.
func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}
}

func (s *service) Connect(ctx context.Context, userID string) (*dto.ConnectResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("tracker"),
		logger.Op("Connect"),
		logger.UserID(userID),
	)

	if _, err := s.deps.Users.GetByID(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Create reemplaza cualquier state previo: un connect repetido invalida
	// el handshake anterior en vez de acumular states vivos.
	state, err := s.deps.States.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create oauth state: %w", err)
	}

	log.Info("oauth handshake started")
	return &dto.ConnectResponse{AuthorizationURL: s.deps.Client.AuthURL(state)}, nil
}

func (s *service) Callback(ctx context.Context, userID, state, code string) (*dto.StatusResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("tracker"),
		logger.Op("Callback"),
		logger.UserID(userID),
	)

	// Primero el state, y de forma atómica: un callback con state inválido
	// no canjea el code ni deja rastro.
	ok, err := s.deps.States.ValidateAndConsume(ctx, userID, state)
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	if !ok {
		// Un intento fallido quema también el state legítimo: el handshake
		// entero queda invalidado y hay que arrancar de nuevo con Connect.
		if derr := s.deps.States.Delete(ctx, userID); derr != nil {
			log.Warn("burn state after invalid callback failed", logger.Err(derr))
		}
		log.Warn("callback with invalid or expired state")
		return nil, ErrInvalidState
	}

	set, err := s.deps.Client.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	ws, err := s.deps.Client.AccessibleResources(ctx, set.AccessToken)
	if err != nil {
		return nil, err
	}

	accessEnc, err := secretbox.Encrypt(set.AccessToken)
	if err != nil {
		return nil, err
	}
	refreshEnc, err := secretbox.Encrypt(set.RefreshToken)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now().UTC()
	conn := repository.TrackerConnection{
		CloudID:         ws.CloudID,
		SiteURL:         ws.SiteURL,
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		ExpiresAtMs:     now.Add(time.Duration(set.ExpiresIn) * time.Second).UnixMilli(),
		ConnectedAt:     now,
	}
	if err := s.deps.Users.SetTrackerConnection(ctx, userID, conn); err != nil {
		return nil, err
	}

	log.Info("tracker connected", logger.CloudID(ws.CloudID), logger.TrackerSite(ws.SiteURL))
	audit.Log(ctx, audit.EventTrackerConnected, logger.UserID(userID), logger.CloudID(ws.CloudID))
	s.notifyConnected(ctx, userID, ws.SiteURL)
	s.invalidateProjects(ctx, userID)

	connectedAt := conn.ConnectedAt
	return &dto.StatusResponse{
		IsConnected: true,
		SiteURL:     conn.SiteURL,
		ConnectedAt: &connectedAt,
	}, nil
}

func (s *service) Disconnect(ctx context.Context, userID string) error {
	if err := s.deps.Users.RemoveTrackerConnection(ctx, userID); err != nil {
		return err
	}
	audit.Log(ctx, audit.EventTrackerDisconnected, logger.UserID(userID))
	s.notifyDisconnected(ctx, userID)
	s.invalidateProjects(ctx, userID)
	return nil
}

func (s *service) Status(ctx context.Context, userID string) (*dto.StatusResponse, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Tracker == nil {
		return &dto.StatusResponse{IsConnected: false}, nil
	}
	connectedAt := user.Tracker.ConnectedAt
	return &dto.StatusResponse{
		IsConnected: true,
		SiteURL:     user.Tracker.SiteURL,
		ConnectedAt: &connectedAt,
	}, nil
}

func (s *service) Projects(ctx context.Context, userID string) (*dto.ProjectsResponse, error) {
	cacheKey := "tracker:projects:" + userID

	if s.deps.Cache != nil {
		if raw, err := s.deps.Cache.Get(ctx, cacheKey); err == nil {
			var out dto.ProjectsResponse
			if json.Unmarshal([]byte(raw), &out) == nil {
				return &out, nil
			}
		}
	}

	// singleflight: N requests concurrentes del mismo usuario llenan el
	// cache con UNA llamada al tracker.
	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		return s.fetchProjects(ctx, userID, cacheKey)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.ProjectsResponse), nil
}

func (s *service) fetchProjects(ctx context.Context, userID, cacheKey string) (*dto.ProjectsResponse, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	access, cloudID, err := s.deps.Source.AccessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	projects, err := s.deps.Client.ListProjects(ctx, access, cloudID)
	if err != nil {
		return nil, err
	}

	out := &dto.ProjectsResponse{Projects: make([]dto.Project, 0, len(projects))}
	for _, p := range projects {
		out.Projects = append(out.Projects, dto.Project{ID: p.ID, Key: p.Key, Name: p.Name})
	}

	if s.deps.Cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.deps.Cache.Set(ctx, cacheKey, string(raw), projectsCacheTTL); err != nil {
				logger.From(ctx).Debug("projects cache set failed", logger.Err(err))
			}
		}
	}
	return out, nil
}

func (s *service) invalidateProjects(ctx context.Context, userID string) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Delete(ctx, "tracker:projects:"+userID); err != nil {
		logger.From(ctx).Debug("projects cache invalidation failed", logger.Err(err))
	}
}

func (s *service) notifyConnected(ctx context.Context, userID, siteURL string) {
	if s.deps.Notifier == nil {
		return
	}
	if user, err := s.deps.Users.GetByID(ctx, userID); err == nil {
		s.deps.Notifier.TrackerConnected(user.Email, siteURL)
	}
}

func (s *service) notifyDisconnected(ctx context.Context, userID string) {
	if s.deps.Notifier == nil {
		return
	}
	if user, err := s.deps.Users.GetByID(ctx, userID); err == nil {
		s.deps.Notifier.TrackerDisconnected(user.Email)
	}
}
