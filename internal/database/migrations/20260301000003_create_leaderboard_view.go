package migrations

import (
	"context"
	"fmt"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			CREATE MATERIALIZED VIEW IF NOT EXISTS ? AS
			SELECT
				b.group_id,
				b.id AS bias_id,
				b.user_id,
				pr.username,
				pr.avatar_path,
				b.influence_points,
				RANK() OVER (PARTITION BY b.group_id ORDER BY b.influence_points DESC) AS rank
			FROM biases b
			JOIN profiles pr ON pr.id = b.user_id;

			CREATE UNIQUE INDEX IF NOT EXISTS idx_influence_leaderboard_bias
			ON ? (bias_id);

			CREATE INDEX IF NOT EXISTS idx_influence_leaderboard_group_rank
			ON ? (group_id, rank, user_id);
		`,
			bun.Ident(types.LeaderboardViewName),
			bun.Ident(types.LeaderboardViewName),
			bun.Ident(types.LeaderboardViewName),
		).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create leaderboard view: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_influence_leaderboard_group_rank;
			DROP INDEX IF EXISTS idx_influence_leaderboard_bias;
			DROP MATERIALIZED VIEW IF EXISTS ?;
		`, bun.Ident(types.LeaderboardViewName)).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop leaderboard view: %w", err)
		}

		return nil
	})
}
