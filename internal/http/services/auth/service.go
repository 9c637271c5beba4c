package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/issuehub/internal/audit"
	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/issuehub/internal/jwt"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/security/password"
	"github.com/dropDatabas3/issuehub/internal/util"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

// Deps contiene las dependencias del service.
type Deps struct {
	Users  repository.UserRepository
	Issuer *jwtx.Issuer
}

type service struct {
	deps Deps
}

// NewService crea el service de cuentas.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

const (
	maxNameLen    = 120
	minPasswdLen  = 8
	maxPasswdLen  = 256
	maxEmailChars = 254
)

func (s *service) Register(ctx context.Context, in dto.RegisterRequest) (*dto.SessionResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Register"),
	)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	var c validation.Checker
	c.Required("name", in.Name)
	c.MaxLen("name", in.Name, maxNameLen)
	c.Required("email", in.Email)
	c.Email("email", in.Email)
	c.MaxLen("email", in.Email, maxEmailChars)
	c.Required("password", in.Password)
	c.MinLen("password", in.Password, minPasswdLen)
	c.MaxLen("password", in.Password, maxPasswdLen)
	if err := c.Err(); err != nil {
		return nil, err
	}

	phc, err := password.Hash(password.Default, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// La unicidad del email la garantiza el constraint de storage: acá no hay
	// pre-check, el conflicto llega como ErrConflict.
	user, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: phc,
	})
	if err != nil {
		if repository.IsConflict(err) {
			log.Debug("email already registered", logger.Email(util.MaskEmail(in.Email)))
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	log.Info("user registered", logger.UserID(user.ID))
	audit.Log(ctx, audit.EventUserRegistered, logger.UserID(user.ID))
	return s.session(user)
}

func (s *service) Login(ctx context.Context, in dto.LoginRequest) (*dto.SessionResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Login"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.deps.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(in.Password, user.PasswordHash) {
		log.Debug("password mismatch", logger.UserID(user.ID))
		return nil, ErrInvalidCredentials
	}

	log.Info("user logged in", logger.UserID(user.ID))
	audit.Log(ctx, audit.EventUserLogin, logger.UserID(user.ID))
	return s.session(user)
}

func (s *service) Me(ctx context.Context, userID string) (*dto.UserInfo, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	info := userInfo(user)
	return &info, nil
}

func (s *service) session(user *repository.User) (*dto.SessionResponse, error) {
	token, exp, err := s.deps.Issuer.IssueSession(jwtx.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &dto.SessionResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
		User:        userInfo(user),
	}, nil
}

func userInfo(u *repository.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
