package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/loop"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 错误分类 → HTTP 状态码
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		validation *apperr.ValidationError
		authz      *apperr.AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, Failure(validation.Error()))
	case errors.As(err, &authz):
		writeJSON(w, http.StatusForbidden, Failure(authz.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Failure(err.Error()))
	case errors.Is(err, loop.ErrStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, Failure("service unavailable"))
	default:
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Failure("internal error"))
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return apperr.NewValidation("", "request body is required")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.NewValidation("", "invalid JSON body: %v", err)
	}
	return nil
}
