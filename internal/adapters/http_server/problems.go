package httpserver

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/concierge"
	"hotel_connect/internal/adapters/ocr"
	"hotel_connect/internal/domain"
)

// problem is an RFC 7807 body with a stable machine-readable code.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, code, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Code: code, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the integration error taxonomy onto HTTP problems.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalidProvider *domain.InvalidProviderError
		invalidConfig   *domain.InvalidConfigError
		unsupported     *domain.UnsupportedProviderError
		notInit         *domain.ConnectorNotInitializedError
		apiErr          *domain.ProviderAPIError
		payErr          *domain.PaymentProviderError
	)
	switch {
	case errors.As(err, &invalidProvider):
		writeProblem(w, http.StatusBadRequest, invalidProvider.Code(), "Invalid provider", err.Error())
	case errors.As(err, &invalidConfig):
		writeProblem(w, http.StatusBadRequest, "invalid_config", "Invalid configuration", err.Error())
	case errors.As(err, &unsupported):
		writeProblem(w, http.StatusBadRequest, "unsupported_provider", "Unsupported provider", err.Error())
	case errors.Is(err, domain.ErrUnknownDomain):
		writeProblem(w, http.StatusNotFound, "unknown_domain", "Not Found", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdate):
		writeProblem(w, http.StatusConflict, "concurrent_update", "Conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidStayWindow),
		errors.Is(err, ocr.ErrEmptyImage),
		errors.Is(err, concierge.ErrEmptyMessage):
		writeProblem(w, http.StatusBadRequest, "invalid_request", "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnsupportedOperation):
		writeProblem(w, http.StatusNotImplemented, "unsupported_operation", "Not Implemented", err.Error())
	case errors.As(err, &notInit):
		writeProblem(w, http.StatusServiceUnavailable, "connector_not_initialized", "Service Unavailable", err.Error())
	case errors.As(err, &apiErr), errors.As(err, &payErr):
		writeProblem(w, http.StatusBadGateway, "provider_error", "Bad Gateway", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "internal", "Internal Server Error", "")
	}
}
