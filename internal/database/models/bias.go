package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BiasModel handles database operations for biases.
type BiasModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBias creates a BiasModel.
func NewBias(db *bun.DB, logger *zap.Logger) *BiasModel {
	return &BiasModel{
		db:     db,
		logger: logger.Named("db_bias"),
	}
}

// LockBias reads a bias and holds its row lock until the transaction ends.
// Every change to influence_points goes through this lock.
func (r *BiasModel) LockBias(ctx context.Context, tx bun.IDB, biasID uuid.UUID) (*types.Bias, error) {
	var bias types.Bias

	err := tx.NewSelect().
		Model(&bias).
		Where("id = ?", biasID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrBiasNotFound
		}
		return nil, fmt.Errorf("failed to lock bias: %w", err)
	}

	return &bias, nil
}

// SetInfluencePoints stores the new total of a locked bias.
func (r *BiasModel) SetInfluencePoints(ctx context.Context, tx bun.IDB, biasID uuid.UUID, points int32) error {
	result, err := tx.NewUpdate().
		Model((*types.Bias)(nil)).
		Set("influence_points = ?", points).
		Where("id = ?", biasID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update influence points: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return types.ErrBiasNotFound
	}

	return nil
}

// InsertIfMissing creates the bias for (user, group) unless it already exists
// and returns the stored row. created reports whether this call inserted it.
func (r *BiasModel) InsertIfMissing(
	ctx context.Context, tx bun.IDB, bias *types.Bias,
) (stored *types.Bias, created bool, err error) {
	result, err := tx.NewInsert().
		Model(bias).
		On("CONFLICT (user_id, group_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert bias: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	var row types.Bias

	err = tx.NewSelect().
		Model(&row).
		Where("user_id = ?", bias.UserID).
		Where("group_id = ?", bias.GroupID).
		Scan(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read bias: %w", err)
	}

	return &row, affected > 0, nil
}

// GetBias returns a bias without locking it.
func (r *BiasModel) GetBias(ctx context.Context, biasID uuid.UUID) (*types.Bias, error) {
	var bias types.Bias

	err := r.db.NewSelect().
		Model(&bias).
		Where("id = ?", biasID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrBiasNotFound
		}
		return nil, fmt.Errorf("failed to get bias: %w", err)
	}

	return &bias, nil
}
