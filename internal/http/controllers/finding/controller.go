// Package finding contiene los controllers de findings (clientes máquina).
package finding

import (
	"net/http"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/finding"
	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	"github.com/dropDatabas3/issuehub/internal/http/helpers"
	"github.com/dropDatabas3/issuehub/internal/http/middlewares"
	svc "github.com/dropDatabas3/issuehub/internal/http/services/finding"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

// Controller maneja los endpoints de findings.
type Controller struct {
	service svc.Service
}

func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Create maneja POST /v1/findings
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	out, err := c.service.Create(r.Context(), middlewares.GetUserID(r.Context()), req)
	if err != nil {
		writeFindingError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, out)
}

// Search maneja POST /v1/findings/search
func (c *Controller) Search(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	out, err := c.service.Search(r.Context(), middlewares.GetUserID(r.Context()), req)
	if err != nil {
		writeFindingError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

func writeFindingError(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := err.(*validation.Error); ok {
		httperrors.WriteError(w, r, err)
		return
	}
	httperrors.WriteError(w, r, helpers.TrackerError(err))
}
