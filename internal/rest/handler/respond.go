package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// StatusFor maps an outcome code to its HTTP status.
func StatusFor(code enum.OutcomeCode) int {
	switch code {
	case enum.OutcomeCodeOK:
		return http.StatusOK
	case enum.OutcomeCodeInvalid:
		return http.StatusBadRequest
	case enum.OutcomeCodeForbidden:
		return http.StatusForbidden
	case enum.OutcomeCodeNotFound:
		return http.StatusNotFound
	case enum.OutcomeCodeConflict:
		return http.StatusConflict
	case enum.OutcomeCodeCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes it as an ErrorResponse. Internal
// causes are logged and hidden from the caller.
func writeError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) error {
	code := types.OutcomeCodeFor(err)
	if code == enum.OutcomeCodeInternal {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Debug(msg, zap.String("code", code.String()), zap.Error(err))
	}

	return writeJSON(w, StatusFor(code), restTypes.ErrorResponse{
		Code:    code,
		Message: types.PublicMessage(err),
	})
}

// decodeBody reads a JSON request body into v.
func decodeBody(req bunrouter.Request, v any) error {
	if err := sonic.ConfigDefault.NewDecoder(io.LimitReader(req.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %w", types.ErrInvalidRequest, err)
	}
	return nil
}

// paramUUID parses a path parameter as a UUID.
func paramUUID(req bunrouter.Request, name string) (uuid.UUID, error) {
	return parseUUID(req.Param(name), name)
}

// queryUUID parses an optional query parameter as a UUID. Absent is uuid.Nil.
func queryUUID(req bunrouter.Request, name string) (uuid.UUID, error) {
	value := req.URL.Query().Get(name)
	if value == "" {
		return uuid.Nil, nil
	}
	return parseUUID(value, name)
}

func parseUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", types.ErrInvalidID, name)
	}
	return id, nil
}

// queryLimit parses the optional limit query parameter. Zero means default.
func queryLimit(req bunrouter.Request) (int, error) {
	value := req.URL.Query().Get("limit")
	if value == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(value)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", types.ErrInvalidRequest)
	}
	return limit, nil
}
