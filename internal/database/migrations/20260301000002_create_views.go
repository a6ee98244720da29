package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			CREATE OR REPLACE VIEW biases_with_details AS
			SELECT
				b.id AS bias_id,
				b.user_id,
				b.group_id,
				b.influence_points,
				b.created_at,
				g.name AS group_name,
				g.slug AS group_slug,
				g.flag_path,
				g.country_code,
				COALESCE(g.category_group_id, g.id) AS category_id,
				COALESCE(cg.name, g.name) AS category_name
			FROM biases b
			JOIN groups g ON g.id = b.group_id
			LEFT JOIN groups cg ON cg.id = g.category_group_id;

			CREATE OR REPLACE VIEW posts_with_author_info AS
			SELECT
				p.*,
				pr.username AS author_username,
				pr.avatar_path AS author_avatar_path
			FROM posts p
			LEFT JOIN profiles pr ON pr.id = p.author_id;

			CREATE OR REPLACE VIEW comments_with_author_info AS
			SELECT
				c.*,
				pr.username AS author_username,
				pr.avatar_path AS author_avatar_path
			FROM comments c
			LEFT JOIN profiles pr ON pr.id = c.author_id;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create read views: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP VIEW IF EXISTS comments_with_author_info;
			DROP VIEW IF EXISTS posts_with_author_info;
			DROP VIEW IF EXISTS biases_with_details;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop read views: %w", err)
		}

		return nil
	})
}
