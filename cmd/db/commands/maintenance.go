package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MaintenanceCommands returns commands that check and repair derived data.
func MaintenanceCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "reconcile",
			Usage: "Recompute influence points and vote counters from their source rows",
			Description: `Compare every stored aggregate with the rows it summarizes:
  - biases.influence_points against active endorsements
  - posts likes/dislikes/comments counters against votes and comments
  - comments likes/dislikes counters against votes

Examples:
  db reconcile --dry-run   # Report drift without changing anything
  db reconcile             # Report and repair drift`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Usage:   "Only report drift; fail when any is found",
					Aliases: []string{"n"},
				},
			},
			Action: handleReconcile(deps),
		},
		{
			Name:      "refresh-views",
			Usage:     "Refresh materialized views",
			ArgsUsage: "[VIEW]",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "stale",
					Usage: "Only refresh when the last refresh is older than this",
					Value: 0,
				},
			},
			Action: handleRefreshViews(deps),
		},
	}
}

// handleReconcile handles the 'reconcile' command.
func handleReconcile(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		reconcile := deps.DB.Model().Reconcile()

		drifts, err := reconcile.FindDrift(ctx)
		if err != nil {
			return err
		}

		for _, d := range drifts {
			deps.Logger.Warn("Aggregate drift",
				zap.String("table", d.Table),
				zap.String("id", d.ID.String()),
				zap.String("column", d.Column),
				zap.Int64("stored", d.Stored),
				zap.Int64("computed", d.Computed))
		}

		if len(drifts) == 0 {
			deps.Logger.Info("All aggregates match their source rows")
			return nil
		}

		if c.Bool("dry-run") {
			return fmt.Errorf("%w: %d values", ErrDriftDetected, len(drifts))
		}

		repaired, err := reconcile.Repair(ctx)
		if err != nil {
			return err
		}

		deps.DB.Service().Endorsement().InvalidateOwners(ctx, repaired.Owners...)

		deps.Logger.Info("Repaired aggregates",
			zap.Int64("rows", repaired.Rows),
			zap.Int("owners", len(repaired.Owners)))
		return nil
	}
}

// handleRefreshViews handles the 'refresh-views' command.
func handleRefreshViews(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		views := []string{types.LeaderboardViewName}
		if c.Args().Len() > 0 {
			name := c.Args().First()
			if name != types.LeaderboardViewName {
				return fmt.Errorf("%w: %s", ErrUnknownView, name)
			}
			views = []string{name}
		}

		model := deps.DB.Model().View()
		stale := c.Duration("stale")

		for _, view := range views {
			refreshed, err := model.RefreshIfStale(ctx, view, stale)
			if err != nil {
				return err
			}

			lastRefresh, err := model.GetRefreshInfo(ctx, view)
			if err != nil {
				return err
			}

			deps.Logger.Info("Materialized view",
				zap.String("view", view),
				zap.Bool("refreshed", refreshed),
				zap.String("last_refresh", lastRefresh.Format(time.RFC3339)))
		}

		return nil
	}
}
