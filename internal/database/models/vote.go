package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// VoteModel handles database operations for votes and the counters they feed.
type VoteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVote creates a VoteModel.
func NewVote(db *bun.DB, logger *zap.Logger) *VoteModel {
	return &VoteModel{
		db:     db,
		logger: logger.Named("db_vote"),
	}
}

// GetForUpdate returns the user's vote on a target with its row locked, or nil.
func (r *VoteModel) GetForUpdate(
	ctx context.Context, tx bun.IDB, userID uuid.UUID, target types.TargetRef,
) (*types.Vote, error) {
	var vote types.Vote

	err := tx.NewSelect().
		Model(&vote).
		Where("user_id = ?", userID).
		Where("target_type = ?", target.Type()).
		Where("target_id = ?", target.ID()).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // no vote yet
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return &vote, nil
}

// Insert stores a new vote. A concurrent insert for the same (user, target)
// fails with a unique violation that the caller retries.
func (r *VoteModel) Insert(ctx context.Context, tx bun.IDB, vote *types.Vote) error {
	_, err := tx.NewInsert().
		Model(vote).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	return nil
}

// UpdateType changes the direction of an existing vote.
func (r *VoteModel) UpdateType(ctx context.Context, tx bun.IDB, voteID uuid.UUID, voteType enum.VoteType) error {
	_, err := tx.NewUpdate().
		Model((*types.Vote)(nil)).
		Set("vote_type = ?", voteType).
		Where("id = ?", voteID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}

	return nil
}

// Delete removes a vote.
func (r *VoteModel) Delete(ctx context.Context, tx bun.IDB, voteID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*types.Vote)(nil)).
		Where("id = ?", voteID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	return nil
}

// DeleteForTarget removes every vote on a target.
func (r *VoteModel) DeleteForTarget(ctx context.Context, tx bun.IDB, target types.TargetRef) error {
	_, err := tx.NewDelete().
		Model((*types.Vote)(nil)).
		Where("target_type = ?", target.Type()).
		Where("target_id = ?", target.ID()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete votes for %s: %w", target, err)
	}

	return nil
}

// AdjustCounters applies delta to the target row in a single atomic update and
// returns the resulting counters.
func (r *VoteModel) AdjustCounters(
	ctx context.Context, tx bun.IDB, target types.TargetRef, delta types.CounterDelta,
) (*types.Counters, error) {
	var (
		counters types.Counters
		query    *bun.UpdateQuery
	)

	switch target.Type() {
	case enum.TargetTypePost:
		query = tx.NewUpdate().
			Model((*types.Post)(nil)).
			Set("comments_count = comments_count + ?", delta.Comments).
			Returning("likes_count, dislikes_count, comments_count")
	case enum.TargetTypeComment:
		if delta.Comments != 0 {
			return nil, fmt.Errorf("%w: comments have no comment counter", types.ErrInvalidTarget)
		}
		query = tx.NewUpdate().
			Model((*types.Comment)(nil)).
			Returning("likes_count, dislikes_count")
	default:
		return nil, types.ErrInvalidTarget
	}

	err := query.
		Set("likes_count = likes_count + ?", delta.Likes).
		Set("dislikes_count = dislikes_count + ?", delta.Dislikes).
		Where("id = ?", target.ID()).
		Scan(ctx, &counters)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, targetNotFound(target)
		}
		return nil, fmt.Errorf("failed to adjust counters for %s: %w", target, err)
	}

	return &counters, nil
}

// GetCounters reads the counters of a target without changing them.
func (r *VoteModel) GetCounters(ctx context.Context, tx bun.IDB, target types.TargetRef) (*types.Counters, error) {
	var (
		counters types.Counters
		query    *bun.SelectQuery
	)

	switch target.Type() {
	case enum.TargetTypePost:
		query = tx.NewSelect().
			Model((*types.Post)(nil)).
			Column("likes_count", "dislikes_count", "comments_count")
	case enum.TargetTypeComment:
		query = tx.NewSelect().
			Model((*types.Comment)(nil)).
			Column("likes_count", "dislikes_count")
	default:
		return nil, types.ErrInvalidTarget
	}

	err := query.Where("id = ?", target.ID()).Scan(ctx, &counters)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, targetNotFound(target)
		}
		return nil, fmt.Errorf("failed to get counters for %s: %w", target, err)
	}

	return &counters, nil
}

func targetNotFound(target types.TargetRef) error {
	if target.Type() == enum.TargetTypeComment {
		return types.ErrCommentNotFound
	}
	return types.ErrPostNotFound
}
