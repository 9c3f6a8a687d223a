package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-dashboard/internal/orders"
)

type errorResponse struct {
	Message string              `json:"message"`
	Errors  []orders.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errBadJSON marks a request body that could not be decoded.
var errBadJSON = errors.New("invalid json body")

// writeError maps err to a status code. entity names the resource in 404 and
// 409 messages, e.g. "Order".
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, entity string, err error) {
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: verr.Errors})
	case errors.Is(err, errBadJSON):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON body"})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: entity + " not found"})
	case errors.Is(err, orders.ErrInUse):
		writeJSON(w, http.StatusConflict, errorResponse{Message: entity + " is still referenced by orders"})
	case errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Message: entity + " conflicts with an existing record"})
	default:
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}
