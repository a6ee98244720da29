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

// PostModel handles database operations for posts and comments.
type PostModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPost creates a PostModel.
func NewPost(db *bun.DB, logger *zap.Logger) *PostModel {
	return &PostModel{
		db:     db,
		logger: logger.Named("db_post"),
	}
}

// InsertPost stores a new post.
func (r *PostModel) InsertPost(ctx context.Context, tx bun.IDB, post *types.Post) error {
	if _, err := tx.NewInsert().Model(post).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost returns a post by id.
func (r *PostModel) GetPost(ctx context.Context, tx bun.IDB, postID uuid.UUID) (*types.Post, error) {
	var post types.Post

	err := tx.NewSelect().
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

// InsertComment stores a new comment.
func (r *PostModel) InsertComment(ctx context.Context, tx bun.IDB, comment *types.Comment) error {
	if _, err := tx.NewInsert().Model(comment).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetComment returns a comment by id.
func (r *PostModel) GetComment(ctx context.Context, tx bun.IDB, commentID uuid.UUID) (*types.Comment, error) {
	var comment types.Comment

	err := tx.NewSelect().
		Model(&comment).
		Where("id = ?", commentID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &comment, nil
}

// DeleteComment hard deletes a comment. Replies keep existing with reply_to
// cleared by the foreign key.
func (r *PostModel) DeleteComment(ctx context.Context, tx bun.IDB, commentID uuid.UUID) error {
	result, err := tx.NewDelete().
		Model((*types.Comment)(nil)).
		Where("id = ?", commentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return types.ErrCommentNotFound
	}

	return nil
}
