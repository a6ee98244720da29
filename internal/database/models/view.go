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

// ReadViewModel reads the denormalized views. It never writes.
type ReadViewModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReadView creates a ReadViewModel.
func NewReadView(db *bun.DB, logger *zap.Logger) *ReadViewModel {
	return &ReadViewModel{
		db:     db,
		logger: logger.Named("db_read_view"),
	}
}

// GetUserBiasesForCategory returns the author's biases in the category of the
// context group, with the viewer's active endorsement of each.
func (r *ReadViewModel) GetUserBiasesForCategory(
	ctx context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
) ([]*types.UserBiasForPopover, error) {
	var categoryID uuid.UUID

	err := r.db.NewSelect().
		Model((*types.Group)(nil)).
		ColumnExpr("COALESCE(category_group_id, id)").
		Where("id = ?", contextGroupID).
		Scan(ctx, &categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}

	biases := make([]*types.UserBiasForPopover, 0)

	err = r.db.NewSelect().
		TableExpr("biases_with_details AS b").
		ColumnExpr("b.bias_id, b.group_id, b.group_name, b.group_slug").
		ColumnExpr("COALESCE(b.flag_path, '') AS flag_path").
		ColumnExpr("COALESCE(b.country_code, '') AS country_code").
		ColumnExpr("b.influence_points").
		ColumnExpr("e.endorsement_type AS current_user_endorsement").
		Join("LEFT JOIN endorsements AS e").
		JoinOn("e.bias_id = b.bias_id").
		JoinOn("e.author_id = ?", currentUserID).
		JoinOn("e.superseded_at IS NULL").
		Where("b.user_id = ?", authorID).
		Where("b.category_id = ?", categoryID).
		OrderExpr("b.influence_points DESC, b.group_name ASC").
		Scan(ctx, &biases)
	if err != nil {
		return nil, fmt.Errorf("failed to get user biases for category: %w", err)
	}

	return biases, nil
}

// GetBiasesWithDetails returns every bias of a user.
func (r *ReadViewModel) GetBiasesWithDetails(ctx context.Context, userID uuid.UUID) ([]*types.BiasWithDetails, error) {
	biases := make([]*types.BiasWithDetails, 0)

	err := r.db.NewSelect().
		Model(&biases).
		Where("user_id = ?", userID).
		Order("influence_points DESC", "group_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get biases with details: %w", err)
	}

	return biases, nil
}

// GetPostWithAuthor returns one row of posts_with_author_info.
func (r *ReadViewModel) GetPostWithAuthor(ctx context.Context, postID uuid.UUID) (*types.PostWithAuthor, error) {
	var post types.PostWithAuthor

	err := r.db.NewSelect().
		Model(&post).
		Where("id = ?", postID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// ListPostsWithAuthor returns a page of posts on a wall, newest first.
func (r *ReadViewModel) ListPostsWithAuthor(
	ctx context.Context, owner types.OwnerRef, cursor *types.PostCursor, limit int,
) ([]*types.PostWithAuthor, error) {
	posts := make([]*types.PostWithAuthor, 0, limit)

	query := r.db.NewSelect().
		Model(&posts).
		Where("owner_type = ?", owner.Type).
		Where("owner_id = ?", owner.ID)

	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.PostID)
	}

	err := query.
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// ListCommentsWithAuthor returns the comments of a post, oldest first.
func (r *ReadViewModel) ListCommentsWithAuthor(
	ctx context.Context, postID uuid.UUID,
) ([]*types.CommentWithAuthor, error) {
	comments := make([]*types.CommentWithAuthor, 0)

	err := r.db.NewSelect().
		Model(&comments).
		Where("post_id = ?", postID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// GetLeaderboard returns the top members of a group by influence.
func (r *ReadViewModel) GetLeaderboard(
	ctx context.Context, groupID uuid.UUID, limit int,
) ([]*types.LeaderboardEntry, error) {
	entries := make([]*types.LeaderboardEntry, 0, limit)

	err := r.db.NewSelect().
		Model(&entries).
		Where("group_id = ?", groupID).
		Order("rank ASC", "user_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return entries, nil
}
