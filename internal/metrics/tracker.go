package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de dominio. Viven en un package propio para evitar ciclos de
// import entre tracker y las capas HTTP.

var (
	trackerRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_token_refresh_total",
		Help: "Refrescos de access token del tracker por resultado",
	}, []string{"outcome"})

	findingsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "findings_created_total",
		Help: "Findings creados contra el tracker por resultado",
	}, []string{"outcome"})

	apiKeyValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_key_validations_total",
		Help: "Validaciones de API keys por resultado",
	}, []string{"outcome"})
)

// TrackerRefresh registra el resultado de un refresh ("ok" | "error").
func TrackerRefresh(outcome string) {
	trackerRefreshTotal.WithLabelValues(outcome).Inc()
}

// FindingCreated registra el resultado de una creación ("ok" | "rejected" | "error").
func FindingCreated(outcome string) {
	findingsCreatedTotal.WithLabelValues(outcome).Inc()
}

// APIKeyValidation registra el resultado de una validación ("hit" | "miss").
func APIKeyValidation(outcome string) {
	apiKeyValidationsTotal.WithLabelValues(outcome).Inc()
}

// RegisterDomain registra las métricas de dominio en reg (default si es nil).
func RegisterDomain(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{trackerRefreshTotal, findingsCreatedTotal, apiKeyValidationsTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
