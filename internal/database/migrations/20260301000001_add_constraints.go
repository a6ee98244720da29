package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Descriptive relations
			ALTER TABLE groups
			ADD CONSTRAINT fk_groups_country
			FOREIGN KEY (country_code) REFERENCES countries (code) ON DELETE SET NULL;

			ALTER TABLE groups
			ADD CONSTRAINT fk_groups_category
			FOREIGN KEY (category_group_id) REFERENCES groups (id) ON DELETE SET NULL;

			ALTER TABLE groups
			ADD CONSTRAINT fk_groups_parent
			FOREIGN KEY (parent_group_id) REFERENCES groups (id) ON DELETE SET NULL;

			-- Biases
			ALTER TABLE biases
			ADD CONSTRAINT uq_biases_user_group UNIQUE (user_id, group_id);

			ALTER TABLE biases
			ADD CONSTRAINT fk_biases_user
			FOREIGN KEY (user_id) REFERENCES profiles (id) ON DELETE CASCADE;

			ALTER TABLE biases
			ADD CONSTRAINT fk_biases_group
			FOREIGN KEY (group_id) REFERENCES groups (id) ON DELETE CASCADE;

			-- Endorsements are an append-only ledger; a bias with history cannot be removed
			ALTER TABLE endorsements
			ADD CONSTRAINT fk_endorsements_bias
			FOREIGN KEY (bias_id) REFERENCES biases (id) ON DELETE RESTRICT;

			ALTER TABLE endorsements
			ADD CONSTRAINT fk_endorsements_author
			FOREIGN KEY (author_id) REFERENCES profiles (id) ON DELETE RESTRICT;

			ALTER TABLE endorsements
			ADD CONSTRAINT chk_endorsements_points CHECK (points_awarded <> 0);

			ALTER TABLE endorsements
			ADD CONSTRAINT chk_endorsements_type CHECK (endorsement_type IN (-1, 1, 2, 3));

			CREATE UNIQUE INDEX IF NOT EXISTS uq_endorsements_active
			ON endorsements (author_id, bias_id)
			WHERE superseded_at IS NULL;

			-- Posts and comments
			ALTER TABLE posts
			ADD CONSTRAINT fk_posts_author
			FOREIGN KEY (author_id) REFERENCES profiles (id) ON DELETE SET NULL;

			ALTER TABLE posts
			ADD CONSTRAINT chk_posts_owner_type CHECK (owner_type IN ('group', 'profile'));

			ALTER TABLE posts
			ADD CONSTRAINT chk_posts_counters
			CHECK (likes_count >= 0 AND dislikes_count >= 0 AND comments_count >= 0);

			ALTER TABLE comments
			ADD CONSTRAINT fk_comments_post
			FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE;

			ALTER TABLE comments
			ADD CONSTRAINT fk_comments_author
			FOREIGN KEY (author_id) REFERENCES profiles (id) ON DELETE SET NULL;

			ALTER TABLE comments
			ADD CONSTRAINT fk_comments_reply_to
			FOREIGN KEY (reply_to) REFERENCES comments (id) ON DELETE SET NULL;

			ALTER TABLE comments
			ADD CONSTRAINT chk_comments_counters
			CHECK (likes_count >= 0 AND dislikes_count >= 0);

			-- Votes
			ALTER TABLE votes
			ADD CONSTRAINT uq_votes_user_target UNIQUE (user_id, target_type, target_id);

			ALTER TABLE votes
			ADD CONSTRAINT fk_votes_user
			FOREIGN KEY (user_id) REFERENCES profiles (id) ON DELETE CASCADE;

			ALTER TABLE votes
			ADD CONSTRAINT chk_votes_target_type CHECK (target_type IN ('post', 'comment'));

			ALTER TABLE votes
			ADD CONSTRAINT chk_votes_type CHECK (vote_type IN (-1, 1));
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add constraints: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			ALTER TABLE votes DROP CONSTRAINT IF EXISTS chk_votes_type;
			ALTER TABLE votes DROP CONSTRAINT IF EXISTS chk_votes_target_type;
			ALTER TABLE votes DROP CONSTRAINT IF EXISTS fk_votes_user;
			ALTER TABLE votes DROP CONSTRAINT IF EXISTS uq_votes_user_target;
			ALTER TABLE comments DROP CONSTRAINT IF EXISTS chk_comments_counters;
			ALTER TABLE comments DROP CONSTRAINT IF EXISTS fk_comments_reply_to;
			ALTER TABLE comments DROP CONSTRAINT IF EXISTS fk_comments_author;
			ALTER TABLE comments DROP CONSTRAINT IF EXISTS fk_comments_post;
			ALTER TABLE posts DROP CONSTRAINT IF EXISTS chk_posts_counters;
			ALTER TABLE posts DROP CONSTRAINT IF EXISTS chk_posts_owner_type;
			ALTER TABLE posts DROP CONSTRAINT IF EXISTS fk_posts_author;
			DROP INDEX IF EXISTS uq_endorsements_active;
			ALTER TABLE endorsements DROP CONSTRAINT IF EXISTS chk_endorsements_type;
			ALTER TABLE endorsements DROP CONSTRAINT IF EXISTS chk_endorsements_points;
			ALTER TABLE endorsements DROP CONSTRAINT IF EXISTS fk_endorsements_author;
			ALTER TABLE endorsements DROP CONSTRAINT IF EXISTS fk_endorsements_bias;
			ALTER TABLE biases DROP CONSTRAINT IF EXISTS fk_biases_group;
			ALTER TABLE biases DROP CONSTRAINT IF EXISTS fk_biases_user;
			ALTER TABLE biases DROP CONSTRAINT IF EXISTS uq_biases_user_group;
			ALTER TABLE groups DROP CONSTRAINT IF EXISTS fk_groups_parent;
			ALTER TABLE groups DROP CONSTRAINT IF EXISTS fk_groups_category;
			ALTER TABLE groups DROP CONSTRAINT IF EXISTS fk_groups_country;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop constraints: %w", err)
		}

		return nil
	})
}
