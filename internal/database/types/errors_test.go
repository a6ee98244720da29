package types_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    enum.OutcomeCode
		message string
	}{
		{"nil", nil, enum.OutcomeCodeOK, "internal error"},
		{"missing bias", types.ErrBiasNotFound, enum.OutcomeCodeNotFound, "bias not found"},
		{"wrapped missing user", fmt.Errorf("lock: %w", types.ErrProfileNotFound), enum.OutcomeCodeNotFound, "user not found"},
		{"self endorsement", types.ErrSelfEndorsement, enum.OutcomeCodeForbidden, "cannot endorse your own bias"},
		{"bad points", types.ErrInvalidPoints, enum.OutcomeCodeInvalid, "points to award are out of range"},
		{"conflict", types.ErrConflict, enum.OutcomeCodeConflict, "transient contention, retry the request"},
		{"canceled", fmt.Errorf("tx: %w", context.Canceled), enum.OutcomeCodeCanceled, "request canceled"},
		{"unknown", errors.New("connection refused"), enum.OutcomeCodeInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.code, types.OutcomeCodeFor(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.message, types.PublicMessage(tt.err))
			}
		})
	}
}

func TestEndorsementOutcomes(t *testing.T) {
	t.Parallel()

	ok := types.EndorsementApplied(4, "endorsement recorded")
	assert.True(t, ok.Success)
	require.NotNil(t, ok.NewInfluencePoints)
	assert.Equal(t, int32(4), *ok.NewInfluencePoints)

	failed := types.EndorsementFailed(fmt.Errorf("apply: %w", types.ErrBiasNotFound))
	assert.False(t, failed.Success)
	assert.Equal(t, enum.OutcomeCodeNotFound, failed.Code)
	assert.Nil(t, failed.NewInfluencePoints)
}

func TestTargetRef(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	post := types.PostTarget(id)
	assert.Equal(t, enum.TargetTypePost, post.Type())
	assert.Equal(t, id, post.ID())
	assert.False(t, post.IsZero())
	assert.Equal(t, "post:"+id.String(), post.String())

	comment, err := types.NewTargetRef(enum.TargetTypeComment, id)
	require.NoError(t, err)
	assert.Equal(t, types.CommentTarget(id), comment)

	_, err = types.NewTargetRef(enum.TargetType(9), id)
	require.ErrorIs(t, err, types.ErrInvalidTarget)

	_, err = types.NewTargetRef(enum.TargetTypePost, uuid.Nil)
	require.ErrorIs(t, err, types.ErrInvalidTarget)

	assert.True(t, types.TargetRef{}.IsZero())
}

func TestCounterDelta(t *testing.T) {
	t.Parallel()

	like := types.VoteDelta(enum.VoteTypeLike)
	dislike := types.VoteDelta(enum.VoteTypeDislike)

	assert.Equal(t, types.CounterDelta{Likes: 1}, like)
	assert.True(t, types.VoteDelta(enum.VoteTypeClear).IsZero())

	switched := dislike.Add(like.Negate())
	assert.Equal(t, types.CounterDelta{Likes: -1, Dislikes: 1}, switched)

	counters := types.Counters{LikesCount: 3, DislikesCount: 1, CommentsCount: 2}.Apply(switched)
	assert.Equal(t, types.Counters{LikesCount: 2, DislikesCount: 2, CommentsCount: 2}, counters)
}

func TestPostCursor(t *testing.T) {
	t.Parallel()

	cursor := &types.PostCursor{
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		PostID:    uuid.New(),
	}

	decoded, err := types.DecodePostCursor(cursor.Encode())
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.PostID, decoded.PostID)

	empty, err := types.DecodePostCursor("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = types.DecodePostCursor("%%%")
	require.ErrorIs(t, err, types.ErrInvalidCursor)
}

func TestGroupCategoryID(t *testing.T) {
	t.Parallel()

	root := &types.Group{ID: uuid.New()}
	child := &types.Group{ID: uuid.New(), CategoryGroupID: root.ID}

	assert.Equal(t, root.ID, root.CategoryID())
	assert.Equal(t, root.ID, child.CategoryID())
}
