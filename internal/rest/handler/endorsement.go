package handler

import (
	"net/http"

	"github.com/biasnet/influence/internal/database"
	"github.com/biasnet/influence/internal/database/types"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// EndorsementHandler handles endorsement REST endpoints.
type EndorsementHandler struct {
	svc    *database.Service
	logger *zap.Logger
}

// NewEndorsementHandler creates a new endorsement handler.
func NewEndorsementHandler(svc *database.Service, logger *zap.Logger) *EndorsementHandler {
	return &EndorsementHandler{
		svc:    svc,
		logger: logger.Named("endorsement_handler"),
	}
}

// ApplyEndorsement handles POST /biases/:id/endorsements. The response body is
// always the outcome; its code decides the status.
func (h *EndorsementHandler) ApplyEndorsement(w http.ResponseWriter, req bunrouter.Request) error {
	biasID, err := paramUUID(req, "id")
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, types.EndorsementFailed(err))
	}

	var body restTypes.ApplyEndorsementRequest
	if err := decodeBody(req, &body); err != nil {
		return writeJSON(w, http.StatusBadRequest, types.EndorsementFailed(err))
	}

	endorsementType, ok := body.EndorsementType.Type()
	if !ok {
		return writeJSON(w, http.StatusBadRequest, types.EndorsementFailed(types.ErrInvalidEndorsementType))
	}

	outcome := h.svc.Endorsement().ApplyEndorsement(req.Context(), &types.EndorsementRequest{
		BiasID:        biasID,
		AuthorID:      body.EndorsingUserID,
		Type:          endorsementType,
		PointsToAward: body.PointsToAward,
	})

	return writeJSON(w, StatusFor(outcome.Code), outcome)
}

// RetractEndorsement handles DELETE /biases/:id/endorsements/:author_id.
func (h *EndorsementHandler) RetractEndorsement(w http.ResponseWriter, req bunrouter.Request) error {
	biasID, err := paramUUID(req, "id")
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, types.EndorsementFailed(err))
	}

	authorID, err := paramUUID(req, "author_id")
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, types.EndorsementFailed(err))
	}

	outcome := h.svc.Endorsement().RetractEndorsement(req.Context(), biasID, authorID)
	return writeJSON(w, StatusFor(outcome.Code), outcome)
}

// GetHistory handles GET /biases/:id/endorsements.
func (h *EndorsementHandler) GetHistory(w http.ResponseWriter, req bunrouter.Request) error {
	biasID, err := paramUUID(req, "id")
	if err != nil {
		return writeError(w, h.logger, "Invalid bias id", err)
	}

	limit, err := queryLimit(req)
	if err != nil {
		return writeError(w, h.logger, "Invalid limit", err)
	}

	history, err := h.svc.View().GetEndorsementHistory(req.Context(), biasID, limit)
	if err != nil {
		return writeError(w, h.logger, "Failed to get endorsement history", err)
	}

	return writeJSON(w, http.StatusOK, history)
}
