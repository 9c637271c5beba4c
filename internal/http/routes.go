package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apikeyctl "github.com/dropDatabas3/issuehub/internal/http/controllers/apikey"
	authctl "github.com/dropDatabas3/issuehub/internal/http/controllers/auth"
	findingctl "github.com/dropDatabas3/issuehub/internal/http/controllers/finding"
	healthctl "github.com/dropDatabas3/issuehub/internal/http/controllers/health"
	trackerctl "github.com/dropDatabas3/issuehub/internal/http/controllers/tracker"
	"github.com/dropDatabas3/issuehub/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/issuehub/internal/jwt"
	"github.com/dropDatabas3/issuehub/internal/rate"
)

// Controllers agrupa los controllers que monta el router.
type Controllers struct {
	Auth    *authctl.Controller
	Tracker *trackerctl.Controller
	APIKeys *apikeyctl.Controller
	Finding *findingctl.Controller
	Health  *healthctl.Controller
}

// RouterDeps son las dependencias transversales del router.
type RouterDeps struct {
	Issuer       *jwtx.Issuer
	KeyValidator middlewares.APIKeyValidator
	Metrics      http.Handler // handler de /metrics, nil lo omite
	LoginLimiter rate.Limiter // limita register/login por IP, nil lo omite
}

// NewRouter arma el router completo con la cadena de middlewares de proceso.
func NewRouter(c Controllers, deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	requireAuth := middlewares.RequireAuth(deps.Issuer)
	requireKey := middlewares.RequireAPIKey(deps.KeyValidator)

	// Público
	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		// Los endpoints de credenciales van detrás del rate limit por IP.
		r.Group(func(r chi.Router) {
			r.Use(middlewares.WithRateLimit(deps.LoginLimiter))
			r.Post("/auth/register", c.Auth.Register)
			r.Post("/auth/login", c.Auth.Login)
		})

		// Sesión (browser / primera persona)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/auth/me", c.Auth.Me)

			r.Post("/tracker/connect", c.Tracker.Connect)
			r.Get("/tracker/callback", c.Tracker.Callback)
			r.Post("/tracker/disconnect", c.Tracker.Disconnect)
			r.Get("/tracker/status", c.Tracker.Status)
			r.Get("/tracker/projects", c.Tracker.Projects)

			r.Post("/apikeys", c.APIKeys.Create)
			r.Get("/apikeys", c.APIKeys.List)
			r.Delete("/apikeys/{id}", c.APIKeys.Delete)
		})

		// API key (clientes máquina)
		r.Group(func(r chi.Router) {
			r.Use(requireKey)
			r.Post("/findings", c.Finding.Create)
			r.Post("/findings/search", c.Finding.Search)
		})
	})

	// La cadena externa: request id primero, después métricas, después logging.
	return middlewares.Chain(r,
		middlewares.WithRequestID(),
		wrapMetrics,
		middlewares.WithLogging(),
	)
}

func wrapMetrics(next http.Handler) http.Handler {
	return WithMetrics(next)
}
