// Package auth contiene los controllers de registro, login y perfil.
package auth

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	"github.com/dropDatabas3/issuehub/internal/http/helpers"
	"github.com/dropDatabas3/issuehub/internal/http/middlewares"
	svc "github.com/dropDatabas3/issuehub/internal/http/services/auth"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
)

// Controller maneja los endpoints de cuentas.
type Controller struct {
	service svc.Service
}

func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Register maneja POST /v1/auth/register
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	out, err := c.service.Register(r.Context(), req)
	if err != nil {
		logger.From(r.Context()).Debug("register failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusCreated, out)
}

// Login maneja POST /v1/auth/login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	out, err := c.service.Login(r.Context(), req)
	if err != nil {
		logger.From(r.Context()).Debug("login failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Me maneja GET /v1/auth/me
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Me(r.Context(), middlewares.GetUserID(r.Context()))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrEmailInUse):
		httperrors.WriteError(w, r, httperrors.ErrEmailInUse)
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, r, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, r, httperrors.ErrNotFound)
	default:
		// validation.Error y lo desconocido los resuelve FromError.
		httperrors.WriteError(w, r, err)
	}
}
