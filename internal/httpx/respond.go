package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
)

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: data})
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err with request context and writes the error envelope.
// Internal error text never reaches the client.
func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code := statusFor(apperr.KindOf(err))
	msg := apperr.Message(err)
	if msg == "" {
		msg = "Internal server error"
	}

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", code,
		"request_id", middleware.GetReqID(r.Context()),
		"err", err,
	}
	if code >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}
	writeJSON(w, code, errorBody{Success: false, Error: msg, StatusCode: code})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid json")
	}
	return nil
}
