package models_test

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/biasnet/influence/internal/database/models"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"go.uber.org/zap"
)

var biasColumns = []string{"id", "user_id", "group_id", "influence_points", "created_at"}

func setupTest(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return db, mock
}

func TestBiasModel_LockBias(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewBias(db, zap.NewNop())

	biasID, userID, groupID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "biases" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(biasColumns).
			AddRow(biasID.String(), userID.String(), groupID.String(), 12, time.Now()))

	bias, err := model.LockBias(t.Context(), db, biasID)
	require.NoError(t, err)
	assert.Equal(t, biasID, bias.ID)
	assert.Equal(t, userID, bias.UserID)
	assert.Equal(t, int32(12), bias.InfluencePoints)

	mock.ExpectQuery(`SELECT .* FROM "biases" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(biasColumns))

	_, err = model.LockBias(t.Context(), db, uuid.New())
	assert.ErrorIs(t, err, types.ErrBiasNotFound)
}

func TestBiasModel_SetInfluencePoints(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewBias(db, zap.NewNop())

	mock.ExpectExec(`UPDATE "biases" .*SET influence_points = 7`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, model.SetInfluencePoints(t.Context(), db, uuid.New(), 7))

	mock.ExpectExec(`UPDATE "biases"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, model.SetInfluencePoints(t.Context(), db, uuid.New(), 7), types.ErrBiasNotFound)

	mock.ExpectExec(`UPDATE "biases"`).
		WillReturnError(errors.New("connection reset"))
	err := model.SetInfluencePoints(t.Context(), db, uuid.New(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update influence points")
}

func TestGroupModel_Exists(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewGroup(db, zap.NewNop())

	mock.ExpectQuery(`SELECT EXISTS \(SELECT .* FROM "groups"`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := model.Exists(t.Context(), db, uuid.New())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGroupModel_GetGroupBySlug_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewGroup(db, zap.NewNop())

	mock.ExpectQuery(`SELECT .* FROM "groups" .*slug = 'seoul-fc'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := model.GetGroupBySlug(t.Context(), "seoul-fc")
	assert.ErrorIs(t, err, types.ErrGroupNotFound)
}

func TestReconcileModel_FindDrift(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewReconcile(db, zap.NewNop())

	driftColumns := []string{"table_name", "id", "column_name", "stored", "computed"}
	biasID, postID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM biases b`).
		WillReturnRows(sqlmock.NewRows(driftColumns).
			AddRow("biases", biasID.String(), "influence_points", 9, 8))
	mock.ExpectQuery(`FROM posts p`).
		WillReturnRows(sqlmock.NewRows(driftColumns).
			AddRow("posts", postID.String(), "comments_count", 3, 2))
	mock.ExpectQuery(`FROM comments c`).
		WillReturnRows(sqlmock.NewRows(driftColumns))

	drifts, err := model.FindDrift(t.Context())
	require.NoError(t, err)
	require.Len(t, drifts, 2)

	assert.Equal(t, &models.Drift{
		Table: "biases", ID: biasID, Column: "influence_points", Stored: 9, Computed: 8,
	}, drifts[0])
	assert.Equal(t, "comments_count", drifts[1].Column)
}

func expectRepairLocks(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`SELECT id FROM biases ORDER BY id FOR UPDATE`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`SELECT id FROM comments ORDER BY id FOR UPDATE`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`SELECT id FROM posts ORDER BY id FOR UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestReconcileModel_Repair(t *testing.T) {
	t.Parallel()

	t.Run("locks before rewriting every table", func(t *testing.T) {
		t.Parallel()

		db, mock := setupTest(t)
		model := models.NewReconcile(db, zap.NewNop())
		owner, other := uuid.New(), uuid.New()

		mock.ExpectBegin()
		expectRepairLocks(mock)
		mock.ExpectQuery(`UPDATE biases b .* RETURNING b.user_id`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).
				AddRow(owner.String()).
				AddRow(other.String()).
				AddRow(owner.String()))
		mock.ExpectExec(`UPDATE posts p`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE comments c`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		repaired, err := model.Repair(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(4), repaired.Rows)
		assert.Equal(t, []uuid.UUID{owner, other}, repaired.Owners)
	})

	t.Run("retries a deadlock", func(t *testing.T) {
		t.Parallel()

		db, mock := setupTest(t)
		model := models.NewReconcile(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(`SELECT id FROM biases ORDER BY id FOR UPDATE`).
			WillReturnError(types.ErrConflict)
		mock.ExpectRollback()

		mock.ExpectBegin()
		expectRepairLocks(mock)
		mock.ExpectQuery(`UPDATE biases b`).WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
		mock.ExpectExec(`UPDATE posts p`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE comments c`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		repaired, err := model.Repair(t.Context())
		require.NoError(t, err)
		assert.Zero(t, repaired.Rows)
		assert.Empty(t, repaired.Owners)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		t.Parallel()

		db, mock := setupTest(t)
		model := models.NewReconcile(db, zap.NewNop())

		mock.ExpectBegin()
		expectRepairLocks(mock)
		mock.ExpectQuery(`UPDATE biases b`).WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
		mock.ExpectExec(`UPDATE posts p`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := model.Repair(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to repair posts")
	})
}

func TestVoteModel_AdjustCounters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    types.TargetRef
		delta     types.CounterDelta
		query     string
		columns   []string
		values    []driver.Value
		want      *types.Counters
		wantErr   error
		skipQuery bool
	}{
		{
			name:    "post returns all three counters",
			target:  types.PostTarget(uuid.New()),
			delta:   types.CounterDelta{Likes: 1, Comments: 1},
			query:   `UPDATE "posts" .*likes_count = likes_count \+ 1.* RETURNING likes_count, dislikes_count, comments_count`,
			columns: []string{"likes_count", "dislikes_count", "comments_count"},
			values:  []driver.Value{4, 1, 2},
			want:    &types.Counters{LikesCount: 4, DislikesCount: 1, CommentsCount: 2},
		},
		{
			name:    "comment returns likes and dislikes",
			target:  types.CommentTarget(uuid.New()),
			delta:   types.CounterDelta{Likes: -1, Dislikes: 1},
			query:   `UPDATE "comments" .*dislikes_count = dislikes_count \+ 1.* RETURNING likes_count, dislikes_count`,
			columns: []string{"likes_count", "dislikes_count"},
			values:  []driver.Value{0, 3},
			want:    &types.Counters{LikesCount: 0, DislikesCount: 3},
		},
		{
			name:    "missing post",
			target:  types.PostTarget(uuid.New()),
			delta:   types.CounterDelta{Likes: 1},
			query:   `UPDATE "posts"`,
			columns: []string{"likes_count", "dislikes_count", "comments_count"},
			wantErr: types.ErrPostNotFound,
		},
		{
			name:    "missing comment",
			target:  types.CommentTarget(uuid.New()),
			delta:   types.CounterDelta{Dislikes: 1},
			query:   `UPDATE "comments"`,
			columns: []string{"likes_count", "dislikes_count"},
			wantErr: types.ErrCommentNotFound,
		},
		{
			name:      "comment counter on a comment",
			target:    types.CommentTarget(uuid.New()),
			delta:     types.CounterDelta{Comments: 1},
			wantErr:   types.ErrInvalidTarget,
			skipQuery: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := setupTest(t)
			model := models.NewVote(db, zap.NewNop())

			if !tt.skipQuery {
				rows := sqlmock.NewRows(tt.columns)
				if tt.values != nil {
					rows.AddRow(tt.values...)
				}
				mock.ExpectQuery(tt.query).WillReturnRows(rows)
			}

			counters, err := model.AdjustCounters(t.Context(), db, tt.target, tt.delta)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, counters)
		})
	}
}

func TestVoteModel_GetForUpdate(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewVote(db, zap.NewNop())

	voteID, userID, postID := uuid.New(), uuid.New(), uuid.New()
	columns := []string{"id", "user_id", "target_type", "target_id", "vote_type", "created_at"}

	mock.ExpectQuery(`SELECT .* FROM "votes" .*target_type = 'post'.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(voteID.String(), userID.String(), "post", postID.String(), 1, time.Now()))

	vote, err := model.GetForUpdate(t.Context(), db, userID, types.PostTarget(postID))
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, voteID, vote.ID)
	assert.Equal(t, types.PostTarget(postID), vote.Target())
	assert.Equal(t, enum.VoteTypeLike, vote.VoteType)

	mock.ExpectQuery(`SELECT .* FROM "votes" .*target_type = 'comment'.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(columns))

	vote, err = model.GetForUpdate(t.Context(), db, userID, types.CommentTarget(uuid.New()))
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestEndorsementModel_GetActive(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewEndorsement(db, zap.NewNop())

	endorsementID, authorID, biasID := uuid.New(), uuid.New(), uuid.New()
	columns := []string{"id", "author_id", "bias_id", "endorsement_type", "points_awarded", "created_at", "superseded_at"}

	mock.ExpectQuery(`SELECT .* FROM "endorsements" .*author_id = .*bias_id = .*superseded_at IS NULL`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(endorsementID.String(), authorID.String(), biasID.String(), 2, 3, time.Now(), nil))

	active, err := model.GetActive(t.Context(), db, authorID, biasID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, endorsementID, active.ID)
	assert.Equal(t, enum.EndorsementTypeStrong, active.EndorsementType)
	assert.Equal(t, int32(3), active.PointsAwarded)
	assert.True(t, active.IsActive())

	mock.ExpectQuery(`superseded_at IS NULL`).
		WillReturnRows(sqlmock.NewRows(columns))

	active, err = model.GetActive(t.Context(), db, authorID, biasID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestEndorsementModel_Supersede(t *testing.T) {
	t.Parallel()

	db, mock := setupTest(t)
	model := models.NewEndorsement(db, zap.NewNop())

	mock.ExpectExec(`UPDATE "endorsements" .*SET superseded_at = .*superseded_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, model.Supersede(t.Context(), db, uuid.New(), time.Now()))

	mock.ExpectExec(`UPDATE "endorsements"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, model.Supersede(t.Context(), db, uuid.New(), time.Now()), types.ErrConflict)
}
