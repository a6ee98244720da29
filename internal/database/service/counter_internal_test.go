package service

import (
	"testing"

	"github.com/biasnet/influence/internal/database/types"
	"github.com/biasnet/influence/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestPlanVote(t *testing.T) {
	t.Parallel()

	like := &types.Vote{VoteType: enum.VoteTypeLike}
	dislike := &types.Vote{VoteType: enum.VoteTypeDislike}

	tests := []struct {
		name       string
		prior      *types.Vote
		next       enum.VoteType
		wantAction voteAction
		wantDelta  types.CounterDelta
	}{
		{name: "clear without vote", next: enum.VoteTypeClear, wantAction: voteNone},
		{name: "first like", next: enum.VoteTypeLike, wantAction: voteInsert, wantDelta: types.CounterDelta{Likes: 1}},
		{name: "first dislike", next: enum.VoteTypeDislike, wantAction: voteInsert, wantDelta: types.CounterDelta{Dislikes: 1}},
		{name: "repeat like", prior: like, next: enum.VoteTypeLike, wantAction: voteNone},
		{name: "repeat dislike", prior: dislike, next: enum.VoteTypeDislike, wantAction: voteNone},
		{
			name: "like to dislike", prior: like, next: enum.VoteTypeDislike,
			wantAction: voteUpdate, wantDelta: types.CounterDelta{Likes: -1, Dislikes: 1},
		},
		{
			name: "dislike to like", prior: dislike, next: enum.VoteTypeLike,
			wantAction: voteUpdate, wantDelta: types.CounterDelta{Likes: 1, Dislikes: -1},
		},
		{name: "clear like", prior: like, next: enum.VoteTypeClear, wantAction: voteDelete, wantDelta: types.CounterDelta{Likes: -1}},
		{
			name: "clear dislike", prior: dislike, next: enum.VoteTypeClear,
			wantAction: voteDelete, wantDelta: types.CounterDelta{Dislikes: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action, delta := planVote(tt.prior, tt.next)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantDelta, delta)
			assert.Zero(t, delta.Comments)
		})
	}
}
