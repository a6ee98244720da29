package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Bias lookups
			CREATE INDEX IF NOT EXISTS idx_biases_group_points
			ON biases (group_id, influence_points DESC);

			-- Endorsement history and reconcile sums
			CREATE INDEX IF NOT EXISTS idx_endorsements_bias_time
			ON endorsements (bias_id, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_endorsements_bias_active
			ON endorsements (bias_id)
			WHERE superseded_at IS NULL;

			-- Group categories
			CREATE INDEX IF NOT EXISTS idx_groups_category
			ON groups (category_group_id)
			WHERE category_group_id IS NOT NULL;

			-- Wall pagination
			CREATE INDEX IF NOT EXISTS idx_posts_owner_time
			ON posts (owner_type, owner_id, created_at DESC, id DESC);

			-- Comment listing
			CREATE INDEX IF NOT EXISTS idx_comments_post_time
			ON comments (post_id, created_at, id);

			CREATE INDEX IF NOT EXISTS idx_comments_reply_to
			ON comments (reply_to)
			WHERE reply_to IS NOT NULL;

			-- Vote counts per target
			CREATE INDEX IF NOT EXISTS idx_votes_target
			ON votes (target_type, target_id, vote_type);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_votes_target;
			DROP INDEX IF EXISTS idx_comments_reply_to;
			DROP INDEX IF EXISTS idx_comments_post_time;
			DROP INDEX IF EXISTS idx_posts_owner_time;
			DROP INDEX IF EXISTS idx_groups_category;
			DROP INDEX IF EXISTS idx_endorsements_bias_active;
			DROP INDEX IF EXISTS idx_endorsements_bias_time;
			DROP INDEX IF EXISTS idx_biases_group_points;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
