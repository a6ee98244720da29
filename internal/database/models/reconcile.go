package models

import (
	"context"
	"fmt"

	"github.com/biasnet/influence/internal/database/dbretry"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Drift is a stored aggregate that disagrees with the rows it summarizes.
type Drift struct {
	Table    string    `bun:"table_name"`
	ID       uuid.UUID `bun:"id"`
	Column   string    `bun:"column_name"`
	Stored   int64     `bun:"stored"`
	Computed int64     `bun:"computed"`
}

// ReconcileModel recomputes denormalized aggregates from their source rows.
type ReconcileModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReconcile creates a ReconcileModel.
func NewReconcile(db *bun.DB, logger *zap.Logger) *ReconcileModel {
	return &ReconcileModel{
		db:     db,
		logger: logger.Named("db_reconcile"),
	}
}

const influenceDriftQuery = `
	SELECT 'biases' AS table_name, b.id, 'influence_points' AS column_name,
		b.influence_points::bigint AS stored, COALESCE(e.total, 0)::bigint AS computed
	FROM biases b
	LEFT JOIN (
		SELECT bias_id, SUM(points_awarded) AS total
		FROM endorsements
		WHERE superseded_at IS NULL
		GROUP BY bias_id
	) e ON e.bias_id = b.id
	WHERE b.influence_points <> COALESCE(e.total, 0)`

const postCounterDriftQuery = `
	WITH computed AS (
		SELECT p.id,
			p.likes_count, p.dislikes_count, p.comments_count,
			(SELECT COUNT(*) FROM votes v WHERE v.target_type = 'post' AND v.target_id = p.id AND v.vote_type = 1) AS likes,
			(SELECT COUNT(*) FROM votes v WHERE v.target_type = 'post' AND v.target_id = p.id AND v.vote_type = -1) AS dislikes,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments
		FROM posts p
	)
	SELECT 'posts' AS table_name, id, 'likes_count' AS column_name, likes_count::bigint AS stored, likes AS computed
	FROM computed WHERE likes_count <> likes
	UNION ALL
	SELECT 'posts', id, 'dislikes_count', dislikes_count::bigint, dislikes
	FROM computed WHERE dislikes_count <> dislikes
	UNION ALL
	SELECT 'posts', id, 'comments_count', comments_count::bigint, comments
	FROM computed WHERE comments_count <> comments`

const commentCounterDriftQuery = `
	WITH computed AS (
		SELECT c.id, c.likes_count, c.dislikes_count,
			(SELECT COUNT(*) FROM votes v WHERE v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = 1) AS likes,
			(SELECT COUNT(*) FROM votes v WHERE v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = -1) AS dislikes
		FROM comments c
	)
	SELECT 'comments' AS table_name, id, 'likes_count' AS column_name, likes_count::bigint AS stored, likes AS computed
	FROM computed WHERE likes_count <> likes
	UNION ALL
	SELECT 'comments', id, 'dislikes_count', dislikes_count::bigint, dislikes
	FROM computed WHERE dislikes_count <> dislikes`

// FindDrift lists every aggregate that no longer matches its source rows.
func (r *ReconcileModel) FindDrift(ctx context.Context) ([]*Drift, error) {
	drifts := make([]*Drift, 0)

	for _, query := range []string{influenceDriftQuery, postCounterDriftQuery, commentCounterDriftQuery} {
		var batch []*Drift
		if err := r.db.NewRaw(query).Scan(ctx, &batch); err != nil {
			return nil, fmt.Errorf("failed to find drift: %w", err)
		}
		drifts = append(drifts, batch...)
	}

	return drifts, nil
}

// RepairResult reports what Repair changed.
type RepairResult struct {
	// Rows is the number of rows rewritten across all tables.
	Rows int64
	// Owners are the users whose bias totals were rewritten.
	Owners []uuid.UUID
}

const repairAttempts = 3

// Lock order matches the write paths: comment deletes lock the comment before
// its post.
var repairLocks = []struct {
	name  string
	query string
}{
	{"biases", `SELECT id FROM biases ORDER BY id FOR UPDATE`},
	{"comments", `SELECT id FROM comments ORDER BY id FOR UPDATE`},
	{"posts", `SELECT id FROM posts ORDER BY id FOR UPDATE`},
}

const repairBiasesQuery = `
	WITH sums AS (
		SELECT bias_id, SUM(points_awarded) AS total
		FROM endorsements WHERE superseded_at IS NULL GROUP BY bias_id
	)
	UPDATE biases b SET influence_points = COALESCE(s.total, 0)
	FROM biases x LEFT JOIN sums s ON s.bias_id = x.id
	WHERE b.id = x.id AND b.influence_points <> COALESCE(s.total, 0)
	RETURNING b.user_id`

var repairCounters = []struct {
	name  string
	query string
}{
	{"posts", `
		UPDATE posts p SET
			likes_count = (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'post' AND v.target_id = p.id AND v.vote_type = 1),
			dislikes_count = (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'post' AND v.target_id = p.id AND v.vote_type = -1),
			comments_count = (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		WHERE p.likes_count <> (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'post' AND v.target_id = p.id AND v.vote_type = 1)
			OR p.dislikes_count <> (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'post' AND v.target_id = p.id AND v.vote_type = -1)
			OR p.comments_count <> (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)`},
	{"comments", `
		UPDATE comments c SET
			likes_count = (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = 1),
			dislikes_count = (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = -1)
		WHERE c.likes_count <> (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = 1)
			OR c.dislikes_count <> (SELECT COUNT(*) FROM votes v WHERE v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = -1)`},
}

// Repair rewrites every drifted aggregate in one transaction. The aggregate
// rows are locked by statements of their own before any UPDATE runs, so each
// UPDATE reads a snapshot taken after every writer that held those locks has
// committed. Deadlocks with the write paths are retried.
func (r *ReconcileModel) Repair(ctx context.Context) (*RepairResult, error) {
	var result *RepairResult

	err := dbretry.Conflict(ctx, repairAttempts, func(ctx context.Context) error {
		return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var err error
			result, err = r.repair(ctx, tx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ReconcileModel) repair(ctx context.Context, tx bun.Tx) (*RepairResult, error) {
	for _, lock := range repairLocks {
		if _, err := tx.NewRaw(lock.query).Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", lock.name, err)
		}
	}

	var owners []uuid.UUID
	if err := tx.NewRaw(repairBiasesQuery).Scan(ctx, &owners); err != nil {
		return nil, fmt.Errorf("failed to repair biases: %w", err)
	}

	result := &RepairResult{Rows: int64(len(owners))}

	seen := make(map[uuid.UUID]struct{}, len(owners))
	for _, owner := range owners {
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		result.Owners = append(result.Owners, owner)
	}

	r.logger.Debug("Repaired aggregates",
		zap.String("table", "biases"),
		zap.Int("rows", len(owners)))

	for _, stmt := range repairCounters {
		res, err := tx.NewRaw(stmt.query).Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to repair %s: %w", stmt.name, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}

		r.logger.Debug("Repaired aggregates",
			zap.String("table", stmt.name),
			zap.Int64("rows", affected))

		result.Rows += affected
	}

	return result, nil
}
