// Package tracker contiene los controllers de la conexión al issue tracker.
package tracker

import (
	"errors"
	"net/http"
	"net/url"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/tracker"
	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	"github.com/dropDatabas3/issuehub/internal/http/helpers"
	"github.com/dropDatabas3/issuehub/internal/http/middlewares"
	svc "github.com/dropDatabas3/issuehub/internal/http/services/tracker"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
)

// RedirectConfig son los destinos del 302 post-callback (el callback lo
// navega un browser, no un cliente JSON).
type RedirectConfig struct {
	SuccessURL string
	ErrorURL   string
}

// Controller maneja los endpoints del tracker.
type Controller struct {
	service   svc.Service
	redirects RedirectConfig
}

func NewController(service svc.Service, redirects RedirectConfig) *Controller {
	if redirects.SuccessURL == "" {
		redirects.SuccessURL = "/connected"
	}
	if redirects.ErrorURL == "" {
		redirects.ErrorURL = "/connect-error"
	}
	return &Controller{service: service, redirects: redirects}
}

// Connect maneja POST /v1/tracker/connect
func (c *Controller) Connect(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Connect(r.Context(), middlewares.GetUserID(r.Context()))
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Callback maneja GET /v1/tracker/callback?code&state con un 302 siempre:
// al success URL si el handshake cerró, al error URL con un mensaje humano
// URL-encodeado si no.
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	code := q.Get("code")

	if errCode := q.Get("error"); errCode != "" {
		// El usuario canceló o el tracker rechazó la autorización.
		desc := q.Get("error_description")
		if desc == "" {
			desc = errCode
		}
		c.redirectError(w, r, desc)
		return
	}
	if state == "" || code == "" {
		c.redirectError(w, r, "callback incompleto: faltan code o state")
		return
	}

	_, err := c.service.Callback(r.Context(), middlewares.GetUserID(r.Context()), state, code)
	if err != nil {
		logger.From(r.Context()).Warn("tracker callback failed", logger.Err(err))
		c.redirectError(w, r, humanMessage(err))
		return
	}

	http.Redirect(w, r, c.redirects.SuccessURL, http.StatusFound)
}

// Disconnect maneja POST /v1/tracker/disconnect
func (c *Controller) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Disconnect(r.Context(), middlewares.GetUserID(r.Context())); err != nil {
		writeTrackerError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.DisconnectResponse{Disconnected: true})
}

// Status maneja GET /v1/tracker/status
func (c *Controller) Status(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Status(r.Context(), middlewares.GetUserID(r.Context()))
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Projects maneja GET /v1/tracker/projects
func (c *Controller) Projects(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Projects(r.Context(), middlewares.GetUserID(r.Context()))
	if err != nil {
		writeTrackerError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

func (c *Controller) redirectError(w http.ResponseWriter, r *http.Request, msg string) {
	u := c.redirects.ErrorURL
	sep := "?"
	if parsed, err := url.Parse(u); err == nil && parsed.RawQuery != "" {
		sep = "&"
	}
	http.Redirect(w, r, u+sep+"message="+url.QueryEscape(msg), http.StatusFound)
}

func humanMessage(err error) string {
	switch {
	case errors.Is(err, svc.ErrInvalidState):
		return "El enlace de conexión expiró o ya fue usado. Iniciá la conexión de nuevo."
	default:
		return "No se pudo conectar el tracker. Intentá de nuevo."
	}
}

func writeTrackerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidState):
		httperrors.WriteError(w, r, httperrors.ErrInvalidState)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, r, httperrors.ErrNotFound)
	default:
		httperrors.WriteError(w, r, helpers.TrackerError(err))
	}
}
