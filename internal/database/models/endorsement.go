package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// EndorsementModel handles database operations for the endorsement ledger.
// Rows are only ever inserted or closed by setting superseded_at.
type EndorsementModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewEndorsement creates an EndorsementModel.
func NewEndorsement(db *bun.DB, logger *zap.Logger) *EndorsementModel {
	return &EndorsementModel{
		db:     db,
		logger: logger.Named("db_endorsement"),
	}
}

// GetActive returns the author's active endorsement of a bias, or nil if none.
// The caller must hold the bias row lock.
func (r *EndorsementModel) GetActive(
	ctx context.Context, tx bun.IDB, authorID, biasID uuid.UUID,
) (*types.Endorsement, error) {
	var endorsement types.Endorsement

	err := tx.NewSelect().
		Model(&endorsement).
		Where("author_id = ?", authorID).
		Where("bias_id = ?", biasID).
		Where("superseded_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // no active endorsement
		}
		return nil, fmt.Errorf("failed to get active endorsement: %w", err)
	}

	return &endorsement, nil
}

// Insert appends a new endorsement event.
func (r *EndorsementModel) Insert(ctx context.Context, tx bun.IDB, endorsement *types.Endorsement) error {
	_, err := tx.NewInsert().
		Model(endorsement).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert endorsement: %w", err)
	}

	return nil
}

// Supersede closes an active endorsement. Closing an already closed row is a
// conflict since another transaction got there first.
func (r *EndorsementModel) Supersede(ctx context.Context, tx bun.IDB, endorsementID uuid.UUID, at time.Time) error {
	result, err := tx.NewUpdate().
		Model((*types.Endorsement)(nil)).
		Set("superseded_at = ?", at).
		Where("id = ?", endorsementID).
		Where("superseded_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to supersede endorsement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return types.ErrConflict
	}

	return nil
}

// GetHistory returns every endorsement of a bias, newest first.
func (r *EndorsementModel) GetHistory(ctx context.Context, biasID uuid.UUID, limit int) ([]*types.Endorsement, error) {
	var endorsements []*types.Endorsement

	err := r.db.NewSelect().
		Model(&endorsements).
		Where("bias_id = ?", biasID).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get endorsement history: %w", err)
	}

	return endorsements, nil
}
