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

// GroupModel handles database operations for groups.
type GroupModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGroup creates a GroupModel.
func NewGroup(db *bun.DB, logger *zap.Logger) *GroupModel {
	return &GroupModel{
		db:     db,
		logger: logger.Named("db_group"),
	}
}

// Exists reports whether a group with the given id exists.
func (r *GroupModel) Exists(ctx context.Context, tx bun.IDB, groupID uuid.UUID) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.Group)(nil)).
		Where("id = ?", groupID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check group: %w", err)
	}

	return exists, nil
}

// GetGroup returns a group by id.
func (r *GroupModel) GetGroup(ctx context.Context, groupID uuid.UUID) (*types.Group, error) {
	var group types.Group

	err := r.db.NewSelect().
		Model(&group).
		Where("id = ?", groupID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return &group, nil
}

// GetGroupBySlug returns a group by its normalized slug.
func (r *GroupModel) GetGroupBySlug(ctx context.Context, slug string) (*types.Group, error) {
	var group types.Group

	err := r.db.NewSelect().
		Model(&group).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group by slug: %w", err)
	}

	return &group, nil
}
