package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

// errorResponse controla exactamente qué campos ve el cliente.
type errorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Detail    string                 `json:"detail,omitempty"`
	Fields    []validation.Violation `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// WriteError escribe err como respuesta JSON. La causa original nunca viaja al
// cliente; los 5xx se loguean con ella.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("request failed",
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}

	resp := errorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		Fields:    appErr.Fields,
		RequestID: w.Header().Get("X-Request-ID"),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
