package handler

import (
	"net/http"

	"github.com/biasnet/influence/internal/database"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// UserHandler handles user-related REST endpoints.
type UserHandler struct {
	svc    *database.Service
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *database.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger.Named("user_handler"),
	}
}

// GetBiases handles GET /users/:id/biases. With context_group_id it returns
// the popover rows for that group's category, otherwise every bias.
func (h *UserHandler) GetBiases(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid user id", err)
	}

	contextGroupID, err := queryUUID(req, "context_group_id")
	if err != nil {
		return writeError(w, h.logger, "Invalid context group id", err)
	}

	if contextGroupID == uuid.Nil {
		biases, err := h.svc.View().GetBiasesWithDetails(req.Context(), userID)
		if err != nil {
			return writeError(w, h.logger, "Failed to get biases", err)
		}
		return writeJSON(w, http.StatusOK, restTypes.UserBiasesResponse{Biases: biases})
	}

	currentUserID, err := queryUUID(req, "current_user_id")
	if err != nil {
		return writeError(w, h.logger, "Invalid current user id", err)
	}

	popover, err := h.svc.View().GetUserBiasesForCategory(req.Context(), userID, contextGroupID, currentUserID)
	if err != nil {
		return writeError(w, h.logger, "Failed to get bias popover", err)
	}

	return writeJSON(w, http.StatusOK, restTypes.UserBiasesResponse{Popover: popover})
}
