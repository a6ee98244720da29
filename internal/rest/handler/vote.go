package handler

import (
	"net/http"

	"github.com/biasnet/influence/internal/database"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// VoteHandler handles vote REST endpoints.
type VoteHandler struct {
	svc    *database.Service
	logger *zap.Logger
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(svc *database.Service, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		svc:    svc,
		logger: logger.Named("vote_handler"),
	}
}

// ApplyVote handles POST /votes.
func (h *VoteHandler) ApplyVote(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.VoteRequest
	if err := decodeBody(req, &body); err != nil {
		return writeJSON(w, http.StatusBadRequest, types.VoteFailed(err))
	}

	targetType, err := enum.TargetTypeString(body.TargetType)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, types.VoteFailed(types.ErrInvalidTarget))
	}

	target, err := types.NewTargetRef(targetType, body.TargetID)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, types.VoteFailed(err))
	}

	voteType, err := enum.VoteTypeString(body.VoteType)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, types.VoteFailed(types.ErrInvalidVoteType))
	}

	outcome := h.svc.Counter().ApplyVote(req.Context(), &types.VoteRequest{
		UserID:   body.UserID,
		Target:   target,
		VoteType: voteType,
	})

	return writeJSON(w, StatusFor(outcome.Code), outcome)
}
