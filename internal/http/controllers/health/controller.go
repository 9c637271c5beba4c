// Package health contiene los probes de liveness y readiness.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/issuehub/internal/http/helpers"
	"github.com/dropDatabas3/issuehub/internal/security/secretbox"
)

// Pinger es cualquier dependencia chequeable (store, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja /healthz y /readyz.
type Controller struct {
	deps map[string]Pinger
}

// NewController recibe las dependencias a chequear por nombre. Un Pinger nil
// se ignora (dependencia no configurada).
func NewController(deps map[string]Pinger) *Controller {
	filtered := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			filtered[name] = p
		}
	}
	return &Controller{deps: filtered}
}

// Healthz maneja GET /healthz: vivo si responde.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz: listo si todas las dependencias responden y la
// clave de cifrado está cargada.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(c.deps)+1)
	ready := true

	if secretbox.Ready() {
		checks["secretbox"] = "ok"
	} else {
		checks["secretbox"] = "master key not loaded"
		ready = false
	}

	for name, p := range c.deps {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, map[string]any{"ready": ready, "checks": checks})
}
