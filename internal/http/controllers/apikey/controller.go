// Package apikey contiene los controllers de API keys.
package apikey

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/apikey"
	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	"github.com/dropDatabas3/issuehub/internal/http/helpers"
	"github.com/dropDatabas3/issuehub/internal/http/middlewares"
	svc "github.com/dropDatabas3/issuehub/internal/http/services/apikey"
)

// Controller maneja los endpoints de API keys.
type Controller struct {
	service svc.Service
}

func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Create maneja POST /v1/apikeys
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	out, err := c.service.Create(r.Context(), middlewares.GetUserID(r.Context()), req)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	// La key en claro viaja una única vez; que nadie la cachee.
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusCreated, out)
}

// List maneja GET /v1/apikeys
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.List(r.Context(), middlewares.GetUserID(r.Context()))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Delete maneja DELETE /v1/apikeys/{id}
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")
	err := c.service.Revoke(r.Context(), middlewares.GetUserID(r.Context()), keyID)
	if err != nil {
		if errors.Is(err, svc.ErrKeyNotFound) {
			httperrors.WriteError(w, r, httperrors.ErrNotFound)
			return
		}
		httperrors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
