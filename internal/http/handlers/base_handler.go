// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"safari/internal/http/middleware"
	"safari/internal/modules/booking"
	"safari/internal/modules/pricing"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// isValidID accepts booking ids as produced by the ULID generator.
func isValidID(v string) bool {
	_, err := ulid.ParseStrict(v)
	return err == nil
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg, field string) {
	writeJSON(c, status, errorResponse{
		Error:     msg,
		Code:      code,
		Field:     field,
		RequestID: middleware.GetRequestID(c),
	})
}

// writeServiceError maps domain errors from both modules onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	var selErr *pricing.SelectionError
	var cfgErr *pricing.ConfigError
	var valErr *booking.ValidationError

	switch {
	case errors.As(err, &selErr):
		writeError(c, http.StatusBadRequest, "invalid_selection", selErr.Error(), selErr.Field)
	case errors.As(err, &valErr):
		writeError(c, http.StatusBadRequest, "validation_failed", valErr.Error(), valErr.Field)
	case errors.Is(err, pricing.ErrInvalidSelection), errors.Is(err, booking.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "bad_request", err.Error(), "")
	case errors.As(err, &cfgErr) && errors.Is(err, pricing.ErrInvalidConfiguration):
		writeError(c, http.StatusUnprocessableEntity, "invalid_configuration", cfgErr.Error(), cfgErr.Key)
	case errors.As(err, &cfgErr):
		writeError(c, http.StatusUnprocessableEntity, "missing_configuration", cfgErr.Error(), cfgErr.Key)
	case errors.Is(err, pricing.ErrConfigurationUnavailable):
		writeError(c, http.StatusServiceUnavailable, "configuration_unavailable", err.Error(), "")
	case errors.Is(err, pricing.ErrConfigNotFound), errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error(), "")
	case errors.Is(err, booking.ErrSeatsUnavailable):
		writeError(c, http.StatusConflict, "seats_unavailable", err.Error(), "")
	case errors.Is(err, booking.ErrInvalidState):
		writeError(c, http.StatusConflict, "invalid_state", err.Error(), "")
	case errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", err.Error(), "")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal", "internal error", "")
	}
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
