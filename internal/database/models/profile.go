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

// ProfileModel handles database operations for profiles.
type ProfileModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewProfile creates a ProfileModel.
func NewProfile(db *bun.DB, logger *zap.Logger) *ProfileModel {
	return &ProfileModel{
		db:     db,
		logger: logger.Named("db_profile"),
	}
}

// Exists reports whether a profile with the given id exists.
func (r *ProfileModel) Exists(ctx context.Context, tx bun.IDB, userID uuid.UUID) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.Profile)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}

	return exists, nil
}

// GetProfile returns a profile by id.
func (r *ProfileModel) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	var profile types.Profile

	err := r.db.NewSelect().
		Model(&profile).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}
