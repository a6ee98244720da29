package handler

import (
	"net/http"

	"github.com/biasnet/influence/internal/database"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// GroupHandler handles group-related REST endpoints.
type GroupHandler struct {
	svc    *database.Service
	logger *zap.Logger
}

// NewGroupHandler creates a new group handler.
func NewGroupHandler(svc *database.Service, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		svc:    svc,
		logger: logger.Named("group_handler"),
	}
}

// EnsureMember handles POST /groups/:id/members. The user's bias in the group
// is created with zero points if missing.
func (h *GroupHandler) EnsureMember(w http.ResponseWriter, req bunrouter.Request) error {
	group, err := h.svc.View().ResolveGroup(req.Context(), req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, "Failed to resolve group", err)
	}

	var body restTypes.EnsureBiasRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, "Invalid member request", err)
	}

	bias, err := h.svc.Endorsement().EnsureBias(req.Context(), body.UserID, group.ID)
	if err != nil {
		return writeError(w, h.logger, "Failed to ensure bias", err)
	}

	return writeJSON(w, http.StatusOK, bias)
}

// GetLeaderboard handles GET /groups/:id/leaderboard. The id may also be the
// group's slug.
func (h *GroupHandler) GetLeaderboard(w http.ResponseWriter, req bunrouter.Request) error {
	limit, err := queryLimit(req)
	if err != nil {
		return writeError(w, h.logger, "Invalid limit", err)
	}

	group, err := h.svc.View().ResolveGroup(req.Context(), req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, "Failed to resolve group", err)
	}

	entries, err := h.svc.View().GetGroupLeaderboard(req.Context(), group.ID, limit)
	if err != nil {
		return writeError(w, h.logger, "Failed to get leaderboard", err)
	}

	return writeJSON(w, http.StatusOK, restTypes.LeaderboardResponse{
		Group:   group,
		Entries: entries,
	})
}
