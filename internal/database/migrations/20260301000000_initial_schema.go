package migrations

import (
	"context"
	"fmt"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	// Parents before children so the down migration can walk the list backwards.
	models := []any{
		(*types.Country)(nil),
		(*types.Taxon)(nil),
		(*types.Profile)(nil),
		(*types.Group)(nil),
		(*types.Bias)(nil),
		(*types.Endorsement)(nil),
		(*types.Post)(nil),
		(*types.Comment)(nil),
		(*types.Vote)(nil),
		(*types.MaterializedViewRefresh)(nil),
	}

	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(models) - 1; i >= 0; i-- {
			_, err := db.NewDropTable().
				Model(models[i]).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", models[i], err)
			}
		}

		return nil
	})
}
