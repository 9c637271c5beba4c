package apikey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/issuehub/internal/audit"
	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/email"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/apikey"
	"github.com/dropDatabas3/issuehub/internal/metrics"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	tokens "github.com/dropDatabas3/issuehub/internal/security/token"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

const (
	// KeyPrefix identifica las keys de IssueHub a simple vista (y en scanners
	// de secretos).
	KeyPrefix = "ih_"

	keyEntropyBytes = 32
	maxKeyNameLen   = 100
)

// Deps contiene las dependencias del service.
type Deps struct {
	Keys     repository.APIKeyRepository
	Users    repository.UserRepository
	Notifier *email.Notifier

	// Now permite congelar el reloj en tests.
	Now func() time.Time
}

type service struct {
	deps Deps
}

// NewService crea el service de API keys.
func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}
}

func (s *service) Create(ctx context.Context, userID string, in dto.CreateRequest) (*dto.CreatedResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("apikey"),
		logger.Op("Create"),
		logger.UserID(userID),
	)

	in.Name = strings.TrimSpace(in.Name)
	var c validation.Checker
	c.Required("name", in.Name)
	c.MaxLen("name", in.Name, maxKeyNameLen)
	if err := c.Err(); err != nil {
		return nil, err
	}

	opaque, err := tokens.GenerateOpaque(keyEntropyBytes)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	raw := KeyPrefix + opaque

	// El hash cubre sólo el secreto: el prefijo es un marcador público de
	// identificación (logs, scanners), no parte de la credencial.
	key := repository.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		KeyHash:   tokens.SHA256Base64URL(opaque),
		CreatedAt: s.deps.Now().UTC(),
		IsActive:  true,
	}
	if err := s.deps.Keys.Create(ctx, key); err != nil {
		return nil, err
	}

	log.Info("api key issued", logger.KeyID(key.ID))
	audit.Log(ctx, audit.EventAPIKeyCreated, logger.UserID(userID), logger.KeyID(key.ID))
	s.notifyIssued(ctx, userID, key.Name)

	return &dto.CreatedResponse{
		ID:        key.ID,
		Name:      key.Name,
		Key:       raw,
		CreatedAt: key.CreatedAt,
	}, nil
}

func (s *service) List(ctx context.Context, userID string) (*dto.ListResponse, error) {
	keys, err := s.deps.Keys.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &dto.ListResponse{Keys: make([]dto.KeyInfo, 0, len(keys))}
	for _, k := range keys {
		out.Keys = append(out.Keys, dto.KeyInfo{
			ID:         k.ID,
			Name:       k.Name,
			CreatedAt:  k.CreatedAt,
			LastUsedAt: k.LastUsedAt,
		})
	}
	return out, nil
}

func (s *service) Revoke(ctx context.Context, userID, keyID string) error {
	// El repo filtra por dueño: una key ajena es indistinguible de una
	// inexistente, nunca un "forbidden" que confirme que existe.
	if err := s.deps.Keys.Delete(ctx, userID, keyID); err != nil {
		if repository.IsNotFound(err) {
			return ErrKeyNotFound
		}
		return err
	}
	audit.Log(ctx, audit.EventAPIKeyRevoked, logger.UserID(userID), logger.KeyID(keyID))
	return nil
}

func (s *service) Validate(ctx context.Context, rawKey string) (*repository.APIKey, error) {
	// Se acepta la key con o sin su marcador "ih_": lo que autentica es el
	// secreto que le sigue.
	secret := strings.TrimPrefix(rawKey, KeyPrefix)
	key, err := s.deps.Keys.GetActiveByHash(ctx, tokens.SHA256Base64URL(secret))
	if err != nil {
		metrics.APIKeyValidation("miss")
		return nil, err
	}
	metrics.APIKeyValidation("hit")

	// Best-effort, desacoplado del request: tocar last_used_at jamás falla
	// una validación.
	go func(keyID string, at time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.Keys.TouchLastUsed(ctx, keyID, at); err != nil {
			logger.L().Debug("touch last_used_at failed",
				logger.Component("apikey"),
				logger.KeyID(keyID),
				logger.Err(err),
			)
		}
	}(key.ID, s.deps.Now().UTC())

	return key, nil
}

func (s *service) notifyIssued(ctx context.Context, userID, keyName string) {
	if s.deps.Notifier == nil || s.deps.Users == nil {
		return
	}
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return
	}
	s.deps.Notifier.APIKeyIssued(user.Email, keyName)
}
